package grn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenWiresFileStorage(t *testing.T) {
	h := newHarness(t)
	h.standardRoutes()

	config := testConfig(h.srv)
	config.Storage = StorageFile
	config.StateDir = t.TempDir()
	config.LogFile = filepath.Join(config.StateDir, "logs", "grn-cli.log")
	config.LogLevel = "debug"

	app, err := Open(context.Background(), config, &MemorySink{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := app.Workflow.Login(context.Background(), "jdoe"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(TabDir(config.StateDir, "test"), KeySession+".json")); err != nil {
		t.Fatalf("session not written to the tab dir: %v", err)
	}
	logged, err := os.ReadFile(config.LogFile)
	if err != nil || !bytes.Contains(logged, []byte(`"logged in"`)) {
		t.Fatalf("log file = %q, %v", logged, err)
	}

	// a second process of the same tab
	again, err := Open(context.Background(), config, &MemorySink{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer again.Close()
	if !again.Workflow.Start(context.Background()) {
		t.Fatal("session not restored by a new process")
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "not-a-level")

	LogError(logger, "workflow", "Login", "auth/login", "jdoe", errors.New("Unknown user"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["module"] != "workflow" || entry["funcName"] != "Login" || entry["data"] != "jdoe" || entry["msg"] != "Unknown user" {
		t.Fatalf("entry = %v", entry)
	}
}

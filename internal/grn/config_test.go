package grn

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearConfigEnv blanks every GRN_ variable for the test
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".grn-config")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	config, err := LoadConfigFrom("")
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if config.APIBase != DefaultAPIBase {
		t.Errorf("APIBase = %q", config.APIBase)
	}
	if config.Storage != StorageFile || config.TransporterMode != ResolveRefetch {
		t.Errorf("Storage = %q, TransporterMode = %q", config.Storage, config.TransporterMode)
	}
	if config.StateDir != filepath.Join("/tmp/state", "grn-cli") {
		t.Errorf("StateDir = %q", config.StateDir)
	}
	if config.LogFile != filepath.Join(config.StateDir, "grn-cli.log") {
		t.Errorf("LogFile = %q", config.LogFile)
	}
	if config.TabID == "" || !config.Bell {
		t.Errorf("TabID = %q, Bell = %v", config.TabID, config.Bell)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `# local setup
GRN_API_BASE=http://localhost:3001/api/
GRN_BRAND="Warehouse GRN"
GRN_STORAGE=redis
GRN_REDIS_DB=2
GRN_SESSION_TTL=30m
GRN_HTTP_TIMEOUT=10s
GRN_TRANSPORTER_RESOLVE=cached
GRN_BELL=off
GRN_TAB_ID=from-file
`)
	t.Setenv("GRN_TAB_ID", "from-env")

	config, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if config.APIBase != LocalAPIBase || config.Brand != "Warehouse GRN" {
		t.Errorf("APIBase = %q, Brand = %q", config.APIBase, config.Brand)
	}
	if config.Storage != StorageRedis || config.RedisDB != 2 {
		t.Errorf("Storage = %q, RedisDB = %d", config.Storage, config.RedisDB)
	}
	if config.SessionTTL != 30*time.Minute || config.HTTPTimeout != 10*time.Second {
		t.Errorf("SessionTTL = %v, HTTPTimeout = %v", config.SessionTTL, config.HTTPTimeout)
	}
	if config.TransporterMode != ResolveCached || config.Bell {
		t.Errorf("TransporterMode = %q, Bell = %v", config.TransporterMode, config.Bell)
	}
	if config.TabID != "from-env" {
		t.Errorf("TabID = %q, environment must win", config.TabID)
	}
	if config.ConfigPath != path {
		t.Errorf("ConfigPath = %q", config.ConfigPath)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "storage", key: "GRN_STORAGE", val: "sqlite"},
		{name: "resolve mode", key: "GRN_TRANSPORTER_RESOLVE", val: "sometimes"},
		{name: "redis db", key: "GRN_REDIS_DB", val: "two"},
		{name: "ttl", key: "GRN_SESSION_TTL", val: "forever"},
		{name: "timeout", key: "GRN_HTTP_TIMEOUT", val: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.val)

			if _, err := LoadConfigFrom(""); err == nil {
				t.Fatalf("%s=%q accepted", tt.key, tt.val)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	if _, err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

package grn

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs against a real server when GRN_TEST_REDIS_ADDR is set
func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("GRN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GRN_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, &Config{RedisAddr: addr})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer rdb.Close()

	scope := "test:" + uuid.NewString()
	storage := NewRedisStorage(rdb, scope, time.Minute)
	other := NewRedisStorage(rdb, scope+":other", time.Minute)

	storedSession(t, storage)
	if sess, _ := NewSessionStore(storage, testLogger()).Restore(ctx); sess == nil || sess.Username != "jdoe" {
		t.Fatalf("Restore = %+v", sess)
	}
	if _, ok, _ := other.Get(ctx, KeySession); ok {
		t.Fatal("scopes must not share keys")
	}
	if ttl := rdb.TTL(ctx, storage.key(KeySession)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("TTL = %v", ttl)
	}

	if err := NewSessionStore(storage, testLogger()).Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := storage.Get(ctx, KeyChallan); ok {
		t.Fatal("draft survived Clear")
	}
}

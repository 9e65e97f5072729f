package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(&Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisClient_LockLifecycle(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()
	key := "lock:replenishment:run:2024-03-01"

	ok, err := client.AcquireLock(ctx, key, "run-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = client.AcquireLock(ctx, key, "run-b", time.Minute)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Fatal("Expected second acquire to be rejected")
	}

	// a foreign value must not release the lock
	if err := client.ReleaseLock(ctx, key, "run-b"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ok, _ = client.AcquireLock(ctx, key, "run-b", time.Minute)
	if ok {
		t.Fatal("Expected lock to survive release by another holder")
	}

	if err := client.ReleaseLock(ctx, key, "run-a"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ok, err = client.AcquireLock(ctx, key, "run-b", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expected acquire after release to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestRedisClient_LockExpires(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	if ok, _ := client.AcquireLock(ctx, "k", "a", 10*time.Second); !ok {
		t.Fatal("Expected acquire to succeed")
	}
	mr.FastForward(11 * time.Second)

	if ok, _ := client.AcquireLock(ctx, "k", "b", 10*time.Second); !ok {
		t.Fatal("Expected expired lock to be acquirable")
	}
}

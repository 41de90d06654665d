package cron

import (
	"context"
	"testing"
	"time"

	pkgredis "github.com/agrimandi/agrimandi-backend/pkg/redis"
)

type memoryLockStore struct {
	values map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: make(map[string]string)}
}

func (m *memoryLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", pkgredis.ErrNotFound
	}
	return value, nil
}

func (m *memoryLockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "am:cron-worker:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	locked, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !locked {
		t.Fatal("expected first acquire to succeed")
	}

	second, err := NewRedisLock(store, "am:cron-worker:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("new second lock: %v", err)
	}
	locked, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if locked {
		t.Fatal("expected second acquire to fail while held")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	locked, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if !locked {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestRedisLockReleaseOnlyOwnValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "am:cron-worker:lock:owner", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if _, err := lock.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// simulate TTL expiry plus takeover by another worker
	store.values["am:cron-worker:lock:owner"] = "someone-else"

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["am:cron-worker:lock:owner"] != "someone-else" {
		t.Fatal("release must not delete a lock owned by another worker")
	}
}

func TestRedisLockReleaseMissingKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "am:cron-worker:lock:expired", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if _, err := lock.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	delete(store.values, "am:cron-worker:lock:expired")

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release after expiry should not error: %v", err)
	}
}

package cron

import (
	"context"
	"testing"
	"time"
)

type fakeLockStore struct {
	values map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: map[string]string{}}
}

func (f *fakeLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeLockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "wl:cron-worker:lock:test", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}

	second, err := NewRedisLock(store, "wl:cron-worker:lock:test", time.Hour)
	if err != nil {
		t.Fatalf("new second lock: %v", err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to lose")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = second.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed, ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyOwnKey(t *testing.T) {
	store := newFakeLockStore()
	store.values["wl:cron-worker:lock:test"] = "someone-else"

	lock, err := NewRedisLock(store, "wl:cron-worker:lock:test", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release without ownership: %v", err)
	}
	if store.values["wl:cron-worker:lock:test"] != "someone-else" {
		t.Fatal("release must not delete a lock it does not own")
	}
}

func TestRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewRedisLock(newFakeLockStore(), "", time.Hour); err == nil {
		t.Fatal("expected error for empty key")
	}
}

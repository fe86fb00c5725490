package storage

import (
	"testing"
	"time"
)

func TestMemoryStoreNeverExpiresWithoutTTL(t *testing.T) {
	store, err := NewStore("", "", Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	mem := store.(*memoryStore)
	mem.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }

	if err := store.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, ok, _ := store.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Get = %q ok=%v", got, ok)
	}
	if n, _ := store.Len(); n != 1 {
		t.Fatalf("Len = %d", n)
	}
}

func TestMemoryStoreExpiresWithTTL(t *testing.T) {
	mem := newMemoryStore(Options{EntryTTL: time.Minute})
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return base }

	_ = mem.Put("k", []byte("v"))
	if _, ok, _ := mem.Get("k"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	mem.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok, _ := mem.Get("k"); ok {
		t.Fatalf("expected miss after expiry")
	}
	if n, _ := mem.Len(); n != 0 {
		t.Fatalf("expected expired entry dropped, Len = %d", n)
	}
}

func TestMemoryStoreCopiesValue(t *testing.T) {
	mem := newMemoryStore(Options{})
	buf := []byte("abc")
	_ = mem.Put("k", buf)
	buf[0] = 'z'
	got, _, _ := mem.Get("k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
}

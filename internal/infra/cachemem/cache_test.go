package cachemem

import (
	"context"
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	cache := New()
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := cache.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(value) != "v" {
		t.Fatalf("value = %s", value)
	}

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Fatal("key should be gone after delete")
	}
}

func TestGet_Miss(t *testing.T) {
	cache := New()
	if _, ok, err := cache.Get(context.Background(), "absent"); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
}

func TestTTLExpiry(t *testing.T) {
	cache := New()
	ctx := context.Background()

	cache.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	if _, ok, _ := cache.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live before the ttl elapses")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Fatal("entry should expire after the ttl")
	}
}

func TestStoredValueIsACopy(t *testing.T) {
	cache := New()
	ctx := context.Background()

	original := []byte("abc")
	cache.Set(ctx, "k", original, 0)
	original[0] = 'z'

	value, _, _ := cache.Get(ctx, "k")
	if string(value) != "abc" {
		t.Fatalf("value = %s; caller mutation leaked into the cache", value)
	}

	value[0] = 'z'
	again, _, _ := cache.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatal("returned slice must not alias the stored value")
	}
}

package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value")); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache should miss")
	}

	payload := []byte("serialized provider output")
	if err := c.Set(ctx, "httpresponse:abc", payload); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "httpresponse:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("Get after Set should hit")
	}
	if string(data) != string(payload) {
		t.Errorf("Get = %q, want %q", data, payload)
	}

	// Overwrite: last writer wins.
	if err := c.Set(ctx, "httpresponse:abc", []byte("v2")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, _, _ = c.Get(ctx, "httpresponse:abc")
	if string(data) != "v2" {
		t.Errorf("Get after overwrite = %q, want %q", data, "v2")
	}

	if err := c.Delete(ctx, "httpresponse:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "httpresponse:abc"); hit {
		t.Error("Get after Delete should miss")
	}

	// Deleting a missing key is fine.
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete on missing key: %v", err)
	}
}

func TestFileCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir(), time.Nanosecond)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if err := c.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("expired entry should be a miss")
	}
}

func TestFileCacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c1, err := NewFileCache(dir, 0)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	if err := c1.Set(ctx, "persistent", []byte("payload")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	c1.Close()

	c2, err := NewFileCache(dir, 0)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	data, hit, err := c2.Get(ctx, "persistent")
	if err != nil || !hit {
		t.Fatalf("Get after reopen = (%v, %v), want hit", err, hit)
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q, want %q", data, "payload")
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, _ := c.Get(ctx, "a")
	if !hit || string(data) != "1" {
		t.Errorf("Get = (%q, %v), want (1, true)", data, hit)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	// Returned slice must be a copy.
	data[0] = 'X'
	data2, _, _ := c.Get(ctx, "a")
	if string(data2) != "1" {
		t.Error("mutating a returned slice must not affect the stored entry")
	}

	c.Delete(ctx, "a")
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashKey(t *testing.T) {
	k1 := HashKey("provider", "httpresponse", "fp1")
	k2 := HashKey("provider", "httpresponse", "fp2")
	if k1 == k2 {
		t.Error("different parts should produce different keys")
	}
	if k1 != HashKey("provider", "httpresponse", "fp1") {
		t.Error("HashKey should be deterministic")
	}
	if k1[:9] != "provider:" {
		t.Errorf("key should carry its prefix, got %q", k1)
	}
}

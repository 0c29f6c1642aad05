package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores each entry as a file in a directory tree.
//
// Entry paths are derived from a SHA-256 hash of the key, with the first two
// hex characters used as a subdirectory to keep directory fan-out bounded.
// Writes go through a temporary file followed by an atomic rename, so
// concurrent writers (even from different processes) cannot corrupt an
// entry: the last completed rename wins.
//
// A TTL of 0 means entries never expire; expiry is based on file
// modification time.
type FileCache struct {
	dir string
	ttl time.Duration
}

// NewFileCache creates a file-based cache rooted at dir.
// The directory is created with mode 0755 if it doesn't exist.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves an entry. Expired entries are removed and reported as a miss.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		_ = os.Remove(path)
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// Removed between Stat and ReadFile by a concurrent pruner.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores an entry, replacing any previous value for the key.
func (c *FileCache) Set(ctx context.Context, key string, data []byte) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes an entry. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for a file cache.
func (c *FileCache) Close() error { return nil }

// path converts a cache key to a file path.
// The first 2 hash chars form a subdirectory for distribution.
func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, sum[:2], fmt.Sprintf("%s.bin", sum[2:]))
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)

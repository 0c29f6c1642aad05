// Package cache provides the persistent key-value stores used to memoize
// expensive provider output across requests and across process runs.
//
// Entries are opaque bytes: serialization is owned by whoever writes the
// entry (see the provider Codec contract). Stores survive process restarts
// and tolerate concurrent writers with last-writer-wins semantics on a key.
// No eviction policy is implemented; stores are pruned externally.
package cache

import "context"

// Cache is a durable key -> bytes store.
//
// Get reports (data, true, nil) on a hit and (nil, false, nil) on a miss;
// errors are reserved for backend failures. Set overwrites any existing
// entry. Implementations must keep concurrent Set calls for the same key
// atomic (no torn entries); last writer wins.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Package cache provides pluggable key/value caching with per-entry TTLs.
//
// Four backends are provided:
//   - FileCache: JSON files in a directory, the CLI default
//   - NullCache: no-op, disables caching
//   - RedisCache: Redis-backed, for shared deployments
//   - MongoCache: MongoDB-backed, for shared deployments
//
// All backends treat expired entries as misses. Values are opaque byte
// slices; callers own serialization.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that require a hit when an item is
// not found in cache.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the interface implemented by all cache backends.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss
	// (including expired entries).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means the entry
	// never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

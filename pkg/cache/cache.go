// Package cache provides response caching for the idea-generation service.
//
// The cache stores raw bytes under opaque string keys with a TTL. Three
// backends are provided:
//
//   - [FileCache]: entries as files under a directory, for CLI usage
//   - [RedisCache]: Redis-backed, for multi-instance server deployments
//   - [NullCache]: no-op, for tests and --no-cache
//
// Keys are built with [IdeaKey], which hashes the request parameters so
// arbitrary concept strings are safe as keys. The cache never holds tree
// state - only collaborator responses - so clearing it is always safe.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by backends that cannot reach their storage
// (e.g., Redis connection refused). Callers treat it as a miss.
var ErrUnavailable = errors.New("cache unavailable")

// Cache is the storage contract shared by all backends.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// expired entries are misses. Set stores data under key for ttl (0 means
// no expiration). Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

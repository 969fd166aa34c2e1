package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Storage is the byte store underneath the versioned cache.
//
// Contract:
//   - Get returns ErrCacheMiss for absent or expired keys.
//   - Set with ttl <= 0 stores the value without expiry.
//   - Incr must be atomic across every client sharing the store.
//   - Implementations must be safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Count(ctx context.Context, prefix string) (int64, error)
	Kind() string
}

// Package search orchestrates product filter requests: it sanitizes input, serves
// results from the versioned cache and falls back to the catalog on a miss.
package search

import (
	"time"

	"github.com/Sternrassler/catalog-filter/pkg/cache"
)

// Config is the capability set of a Service. It is resolved once at construction.
type Config struct {
	// CachingEnabled turns result and aggregate caching on
	CachingEnabled bool

	// WarmingEnabled recomputes the aggregates on Warm and after every Flush
	WarmingEnabled bool

	// TTL is the lifetime of cached results
	TTL time.Duration
}

// DefaultConfig returns caching enabled without warming.
func DefaultConfig() Config {
	return Config{
		CachingEnabled: true,
		WarmingEnabled: false,
		TTL:            cache.DefaultTTL,
	}
}

// Status reports whether a response was served from the cache.
type Status string

const (
	StatusHit  Status = "HIT"
	StatusMiss Status = "MISS"
)

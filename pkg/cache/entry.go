package cache

import (
	"time"
)

// CacheEntry is the envelope stored for every cached value.
type CacheEntry struct {
	// Data is the cached value, usually JSON
	Data []byte `json:"data"`

	// Version is the cache generation the entry was written under
	Version int64 `json:"version"`

	// Expires is when the entry stops being served, regardless of backend eviction
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was written
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry wraps data for storage under version with the given TTL.
func NewEntry(data []byte, version int64, ttl time.Duration) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Data:     data,
		Version:  version,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Precomputed aggregate keys. Flush deletes them explicitly.
const (
	KeyCategoriesHierarchical = "categories_hierarchical"
	KeyCategoriesFlat         = "categories_flat"
	KeyAttributes             = "attributes"
	KeyPriceRange             = "price_range"
)

// AggregateKeys lists the precomputed aggregate keys.
var AggregateKeys = []string{
	KeyCategoriesHierarchical,
	KeyCategoriesFlat,
	KeyAttributes,
	KeyPriceRange,
}

const (
	// DefaultNamespace prefixes every key written by the cache.
	DefaultNamespace = "catalog_filter"

	// DefaultTTL is used when Set is called without a positive TTL.
	DefaultTTL = time.Hour
)

// Options configures a Cache.
type Options struct {
	// Namespace prefixes versioned keys and the version counter key
	Namespace string

	// TTL is the default entry lifetime
	TTL time.Duration

	// Logger receives cache warnings
	Logger zerolog.Logger
}

// DefaultOptions returns the default cache options with a disabled logger.
func DefaultOptions() Options {
	return Options{
		Namespace: DefaultNamespace,
		TTL:       DefaultTTL,
		Logger:    zerolog.Nop(),
	}
}

// Stats describes the cache for observability. It never affects behaviour.
type Stats struct {
	Version     int64  `json:"version"`
	EntryCount  int64  `json:"entry_count"`
	TTLSeconds  int64  `json:"ttl_seconds"`
	StorageKind string `json:"storage_kind"`
}

// AggregateFunc computes a precomputed aggregate value for Warm.
type AggregateFunc func(ctx context.Context) (any, error)

// Cache is a versioned key-value cache.
//
// Every key is stored as <namespace>_v<version>_<key>. Flush increments the persisted
// version, which makes every previously written key unreachable in O(1); orphaned
// entries expire through the storage TTL.
//
// The version is loaded lazily and memoized for the lifetime of the Cache. A flush
// performed by another instance is not observed until this instance is recreated or
// flushes itself, so at most one generation of stale reads can occur per instance.
type Cache struct {
	storage   Storage
	namespace string
	ttl       time.Duration
	logger    zerolog.Logger

	mu      sync.Mutex
	version int64
}

// New creates a versioned cache over storage.
func New(storage Storage, opts Options) *Cache {
	if storage == nil {
		panic("cache storage cannot be nil")
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Cache{
		storage:   storage,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
		logger:    opts.Logger,
	}
}

// TTL returns the default entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) versionKey() string {
	return c.namespace + "_version"
}

func (c *Cache) prefix(version int64) string {
	return c.namespace + "_v" + strconv.FormatInt(version, 10) + "_"
}

func (c *Cache) versionedKey(version int64, key string) string {
	return c.prefix(version) + key
}

// Version returns the memoized cache version, loading it on first use.
// A missing counter is initialised to 1.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version > 0 {
		return c.version, nil
	}

	v, err := c.loadVersion(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("version").Inc()
		return 0, err
	}
	c.version = v
	CacheVersion.Set(float64(v))
	return v, nil
}

func (c *Cache) loadVersion(ctx context.Context) (int64, error) {
	data, err := c.storage.Get(ctx, c.versionKey())
	if errors.Is(err, ErrCacheMiss) {
		if _, err := c.storage.SetNX(ctx, c.versionKey(), []byte("1")); err != nil {
			return 0, fmt.Errorf("initialise cache version: %w", err)
		}
		data, err = c.storage.Get(ctx, c.versionKey())
	}
	if err != nil {
		return 0, fmt.Errorf("load cache version: %w", err)
	}

	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: version %q", ErrInvalidEntry, data)
	}
	return v, nil
}

// Get returns the value stored under key for the current version.
// Any storage failure, corrupt entry or expired entry is reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	version, err := c.Version(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache version unavailable, treating as miss")
		CacheMisses.Inc()
		return nil, false
	}

	data, err := c.storage.Get(ctx, c.versionedKey(version, key))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			CacheErrors.WithLabelValues("get").Inc()
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache get error")
		}
		CacheMisses.Inc()
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		c.logger.Warn().Err(fmt.Errorf("%w: %v", ErrInvalidEntry, err)).Str("key", key).Msg("Corrupt cache entry")
		CacheMisses.Inc()
		return nil, false
	}
	if entry.IsExpired() {
		CacheMisses.Inc()
		return nil, false
	}

	CacheHits.WithLabelValues(c.storage.Kind()).Inc()
	c.logger.Debug().Str("key", key).Int64("version", version).Dur("ttl", entry.TTL()).Msg("Cache hit")
	return entry.Data, true
}

// GetJSON decodes the cached value for key into v. It reports false on miss or decode failure.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Cached value does not decode")
		return false
	}
	return true
}

// Set stores value under key for the current version. A non-positive ttl uses the default.
// It reports whether the write succeeded.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.ttl
	}

	version, err := c.Version(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache version unavailable, skipping write")
		return false
	}

	data, err := json.Marshal(NewEntry(value, version, ttl))
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return false
	}

	if err := c.storage.Set(ctx, c.versionedKey(version, key), data, ttl); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache set error")
		return false
	}

	CacheWrittenBytes.WithLabelValues(c.storage.Kind()).Add(float64(len(data)))
	c.logger.Debug().Str("key", key).Int64("version", version).Dur("ttl", ttl).Msg("Cached value")
	return true
}

// SetJSON encodes v and stores it under key.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) bool {
	data, err := json.Marshal(v)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Value does not encode")
		return false
	}
	return c.Set(ctx, key, data, ttl)
}

// Delete removes the entry stored under key for the current version.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	version, err := c.Version(ctx)
	if err != nil {
		return false
	}
	if err := c.storage.Delete(ctx, c.versionedKey(version, key)); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache delete error")
		return false
	}
	return true
}

// Flush invalidates every cached entry by atomically incrementing the persisted version,
// then deletes the precomputed aggregates written under the previous version.
//
// A failure to persist the new version is returned: silently skipping it would keep
// stale entries visible.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.storage.SetNX(ctx, c.versionKey(), []byte("1")); err != nil {
		CacheErrors.WithLabelValues("flush").Inc()
		return fmt.Errorf("initialise cache version: %w", err)
	}
	next, err := c.storage.Incr(ctx, c.versionKey())
	if err != nil {
		CacheErrors.WithLabelValues("flush").Inc()
		return fmt.Errorf("increment cache version: %w", err)
	}

	// INCR is atomic, so next-1 is the generation this flush retired.
	previous := next - 1
	c.version = next
	CacheFlushes.Inc()
	CacheVersion.Set(float64(next))

	if previous > 0 {
		keys := make([]string, len(AggregateKeys))
		for i, key := range AggregateKeys {
			keys[i] = c.versionedKey(previous, key)
		}
		if err := c.storage.Delete(ctx, keys...); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			c.logger.Warn().Err(err).Int64("version", previous).Msg("Failed to delete aggregate entries")
		}
	}

	c.logger.Info().Int64("previous_version", previous).Int64("version", next).Msg("Cache flushed")
	return nil
}

// Stats reports the current version, the number of entries under it and the backend kind.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		TTLSeconds:  int64(c.ttl / time.Second),
		StorageKind: c.storage.Kind(),
	}

	version, err := c.Version(ctx)
	if err != nil {
		return stats, err
	}
	stats.Version = version

	count, err := c.storage.Count(ctx, c.prefix(version))
	if err != nil {
		CacheErrors.WithLabelValues("stats").Inc()
		return stats, fmt.Errorf("count cache entries: %w", err)
	}
	stats.EntryCount = count
	return stats, nil
}

// Warm computes every aggregate in sources concurrently and stores it under its key.
// It is idempotent and safe to call right after Flush.
func (c *Cache) Warm(ctx context.Context, sources map[string]AggregateFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	for key, load := range sources {
		g.Go(func() error {
			v, err := load(gctx)
			if err != nil {
				return fmt.Errorf("warm %s: %w", key, err)
			}
			if !c.SetJSON(gctx, key, v, 0) {
				c.logger.Warn().Str("key", key).Msg("Warmed value was not cached")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Debug().Int("aggregates", len(sources)).Msg("Cache warmed")
	return nil
}

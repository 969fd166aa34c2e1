// Package cache provides the versioned product filter cache.
//
// Every key is written under the current cache generation:
//
//	<namespace>_v<version>_<key>
//
// Flushing increments the persisted version counter, so all previously written
// entries become unreachable at once without scanning or deleting them. Orphaned
// entries are reclaimed by the storage TTL. The precomputed aggregates
// (categories_hierarchical, categories_flat, attributes, price_range) of the
// retired generation are additionally deleted on flush.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	c := cache.New(cache.NewRedisStorage(redisClient), cache.DefaultOptions())
//
//	key := cache.DeriveKey(params)
//	if data, ok := c.Get(ctx, key); ok {
//		// serve cached page
//	}
//
//	c.Set(ctx, key, data, 0) // default TTL
//
//	// Catalog changed
//	if err := c.Flush(ctx); err != nil {
//		return err
//	}
//
// # Failure Semantics
//
// The cache is fail-soft. Storage errors, corrupt entries and an unreadable version
// counter are logged and reported as misses; writes that fail are skipped. Only Flush
// returns an error, because a flush that did not persist leaves stale entries visible.
//
// # Consistency
//
// The version is memoized per Cache instance. An instance that did not perform a
// flush keeps serving the previous generation until it is recreated, which bounds
// stale reads to one generation.
//
// # Storage
//
// RedisStorage is the production backend; INCR keeps version bumps atomic across
// processes. MemoryStorage is a single-process backend used when no Redis is
// configured and in tests.
//
// # Metrics
//
//   - filter_cache_hits_total{layer} - Cache hits
//   - filter_cache_misses_total - Cache misses
//   - filter_cache_written_bytes_total{layer} - Bytes written
//   - filter_cache_flushes_total - Version bumps
//   - filter_cache_version - Current version seen by this process
//   - filter_cache_errors_total{operation} - Cache operation errors
package cache

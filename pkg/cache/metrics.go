package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by storage layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_cache_hits_total",
			Help: "Total number of filter cache hits",
		},
		[]string{"layer"}, // "redis", "memory"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_cache_misses_total",
			Help: "Total number of filter cache misses",
		},
	)

	// CacheWrittenBytes tracks bytes written to the cache by layer
	CacheWrittenBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_cache_written_bytes_total",
			Help: "Total bytes written to the filter cache",
		},
		[]string{"layer"},
	)

	// CacheFlushes tracks successful version bumps
	CacheFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_cache_flushes_total",
			Help: "Total number of filter cache flushes (version bumps)",
		},
	)

	// CacheVersion exposes the generation most recently seen by this process
	CacheVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filter_cache_version",
			Help: "Current filter cache version as seen by this process",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "version", "get", "set", "delete", "flush", "stats"
	)
)

// Package metrics documents the Prometheus metrics exported by the catalog filter.
// All metrics are defined in their respective packages (cache, query, search, events)
// to maintain modularity and avoid circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the catalog filter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry served on /metrics.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric family exported by the service.
var Names = []string{
	"filter_cache_hits_total",
	"filter_cache_misses_total",
	"filter_cache_written_bytes_total",
	"filter_cache_flushes_total",
	"filter_cache_version",
	"filter_cache_errors_total",
	"filter_query_duration_seconds",
	"filter_query_errors_total",
	"filter_requests_total",
	"filter_events_processed_total",
	"filter_flush_retries_total",
	"filter_flush_retry_backoff_seconds",
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - filter_cache_hits_total{layer} (Counter): Cache hits by storage layer (redis, memory)
//   - filter_cache_misses_total (Counter): Cache misses, including degraded reads
//   - filter_cache_written_bytes_total{layer} (Counter): Bytes written by storage layer
//   - filter_cache_flushes_total (Counter): Successful version bumps
//   - filter_cache_version (Gauge): Cache generation seen by this process
//   - filter_cache_errors_total{operation} (Counter): Storage errors (version, get, set, delete, flush, stats)
//
// Query Metrics (pkg/query):
//   - filter_query_duration_seconds (Histogram): Catalog query duration
//   - filter_query_errors_total (Counter): Failed catalog queries
//
// Request Metrics (pkg/search):
//   - filter_requests_total{endpoint, outcome} (Counter): Requests by endpoint (products, filters)
//     and outcome (HIT, MISS, error)
//
// Event Metrics (pkg/events):
//   - filter_events_processed_total{outcome} (Counter): Product events by outcome
//     (flushed, ignored, malformed, failed)
//   - filter_flush_retries_total (Counter): Flush retries after a failed attempt
//   - filter_flush_retry_backoff_seconds (Histogram): Backoff slept before a flush retry
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(filter_cache_hits_total[5m])) /
//   (sum(rate(filter_cache_hits_total[5m])) + sum(rate(filter_cache_misses_total[5m])))
//
//   # Degraded Cache
//   rate(filter_cache_errors_total[5m]) > 0
//
//   # P95 Catalog Query Latency
//   histogram_quantile(0.95, rate(filter_query_duration_seconds_bucket[5m]))
//
//   # Flush Rate
//   rate(filter_cache_flushes_total[15m])

package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryDuration tracks catalog query latency
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filter_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// QueryErrors tracks failed catalog queries
	QueryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_query_errors_total",
			Help: "Total number of failed catalog queries",
		},
	)
)

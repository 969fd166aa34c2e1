package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests tracks orchestrated requests by endpoint and outcome
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_requests_total",
			Help: "Total number of filter requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "HIT", "MISS", "error"
	)
)

package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed tracks consumed product events by outcome
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_events_processed_total",
			Help: "Total number of consumed product events by outcome",
		},
		[]string{"outcome"}, // "flushed", "ignored", "malformed", "failed"
	)
)

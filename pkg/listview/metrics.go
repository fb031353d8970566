package listview

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ev_service",
			Subsystem: "list_view",
			Name:      "fetches_total",
			Help:      "The total number of list fetches by outcome",
		},
		[]string{"view", "outcome"},
	)
	fetchSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ev_service",
			Subsystem: "list_view",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent waiting for the upstream list endpoint",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"view"},
	)
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ev_service",
			Subsystem: "list_view",
			Name:      "frames_total",
			Help:      "The total number of frames published by status",
		},
		[]string{"view", "status"},
	)
)

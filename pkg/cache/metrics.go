package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "ev_service"

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "page_cache",
			Name:      "lookups_total",
			Help:      "The total number of page cache lookups by result",
		},
		[]string{"cache", "result"},
	)
	cacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "page_cache",
			Name:      "evictions_total",
			Help:      "The total number of pages evicted to stay within capacity",
		},
		[]string{"cache"},
	)
)

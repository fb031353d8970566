package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tasksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ev_service",
		Subsystem: "render_scheduler",
		Name:      "tasks_total",
		Help:      "The total number of render tasks by priority and outcome",
	},
	[]string{"priority", "outcome"},
)

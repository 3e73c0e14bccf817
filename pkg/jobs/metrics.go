package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_started_total",
			Help: "Background runs started, by kind",
		},
		[]string{"kind"},
	)

	jobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_completed_total",
			Help: "Background runs finished successfully, by kind",
		},
		[]string{"kind"},
	)

	jobsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_failed_total",
			Help: "Background runs finished with an error, by kind",
		},
		[]string{"kind"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Background run duration from submission to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"kind"},
	)
)

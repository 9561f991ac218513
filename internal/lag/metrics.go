package lag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerdictsTotal tracks evaluation verdicts by kind and no-lag reason.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_verdicts_total",
			Help: "Total number of lag evaluation verdicts",
		},
		[]string{"kind", "reason"},
	)

	// EvaluationDurationSeconds tracks lag evaluation latency.
	EvaluationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_lag_evaluation_duration_seconds",
		Help:    "Duration of a single lag evaluation",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 8),
	})
)

package marketfeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal tracks quote updates by event type.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_quote_updates_total",
			Help: "Total number of quote updates processed",
		},
		[]string{"event_type"},
	)

	// QuotesTracked tracks the number of quote states in memory.
	QuotesTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_quotes_tracked",
		Help: "Number of token quote states tracked in memory",
	})

	// BaselinesSetTotal counts baseline prices pinned at first observation.
	BaselinesSetTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_lag_quote_baselines_set_total",
		Help: "Total number of quote baselines set",
	})

	// UpdatesDroppedTotal tracks dropped quote updates by reason.
	UpdatesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_quote_updates_dropped_total",
			Help: "Total number of quote updates dropped",
		},
		[]string{"reason"},
	)

	// UpdateProcessingDuration tracks quote update processing latency.
	UpdateProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_lag_quote_update_processing_seconds",
		Help:    "Time to process a quote update",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 8),
	})
)

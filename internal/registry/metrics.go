package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsScannedTotal tracks total markets scanned from the Gamma API.
	MarketsScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_lag_registry_markets_scanned_total",
		Help: "Total number of markets scanned from the Gamma API",
	})

	// EntitiesMatchedTotal tracks markets that matched a reference symbol.
	EntitiesMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_lag_registry_entities_matched_total",
		Help: "Total number of markets matched to a reference symbol",
	})

	// EntitiesTracked tracks the current size of the entity set.
	EntitiesTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_registry_entities_tracked",
		Help: "Number of entities currently tracked",
	})

	// PollDurationSeconds tracks API poll latency.
	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_lag_registry_poll_duration_seconds",
		Help:    "Duration of Gamma API poll requests",
		Buckets: prometheus.DefBuckets,
	})

	// PollErrorsTotal tracks API poll failures.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_lag_registry_poll_errors_total",
		Help: "Total number of Gamma API poll failures",
	})

	// EventsDroppedTotal tracks registry events dropped on a full channel.
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_lag_registry_events_dropped_total",
		Help: "Total number of registry events dropped",
	})
)

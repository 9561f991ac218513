package reference

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal tracks reference ticks recorded per symbol.
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_reference_ticks_total",
			Help: "Total number of reference price ticks recorded",
		},
		[]string{"symbol"},
	)

	// WindowSamples tracks the number of samples currently in each rolling window.
	WindowSamples = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polymarket_lag_reference_window_samples",
			Help: "Number of price samples in the detection window",
		},
		[]string{"symbol"},
	)

	// MovesDetectedTotal tracks threshold-exceeding moves per symbol and direction.
	MovesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_reference_moves_total",
			Help: "Total number of reference moves exceeding the detection threshold",
		},
		[]string{"symbol", "direction"},
	)

	// StreamMessagesTotal tracks raw messages received from the Binance stream.
	StreamMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_reference_stream_messages_total",
			Help: "Total number of messages received from the reference stream",
		},
		[]string{"symbol"},
	)

	// MovesDroppedTotal tracks move events dropped because the channel was full.
	MovesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_lag_reference_moves_dropped_total",
		Help: "Total number of move events dropped due to a full channel",
	})
)

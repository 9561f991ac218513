package position

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PositionsOpen tracks the number of live positions.
	PositionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_positions_open",
		Help: "Number of live positions",
	})

	// EntriesTotal tracks entry attempts by result.
	EntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_entries_total",
			Help: "Total number of entry attempts",
		},
		[]string{"result"},
	)

	// ExitsTotal tracks position exits by reason.
	ExitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_exits_total",
			Help: "Total number of position exits",
		},
		[]string{"reason"},
	)

	// ProfitPctHist tracks realized profit per closed position.
	ProfitPctHist = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_lag_position_profit_pct",
		Help:    "Realized profit percentage per closed position",
		Buckets: []float64{-10, -5, -2, -1, -0.5, 0, 0.5, 1, 2, 5, 10},
	})

	// HoldDurationSeconds tracks how long positions were held.
	HoldDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_lag_position_hold_seconds",
		Help:    "Hold duration per closed position",
		Buckets: []float64{5, 10, 20, 30, 45, 60, 120, 300, 600},
	})
)

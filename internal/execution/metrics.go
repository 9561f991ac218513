package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersPlacedTotal tracks placed orders by side and order type.
	OrdersPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_orders_placed_total",
			Help: "Total number of orders placed",
		},
		[]string{"side", "order_type"},
	)

	// OrdersRejectedTotal tracks rejected orders by reason.
	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_lag_orders_rejected_total",
			Help: "Total number of orders rejected",
		},
		[]string{"reason"},
	)

	// OrderLatencySeconds tracks order submission round-trip latency.
	OrderLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_lag_order_latency_seconds",
		Help:    "Order submission round-trip latency",
		Buckets: prometheus.DefBuckets,
	})
)

package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerEnabled is 1 when new entries are allowed, 0 when halted.
	BreakerEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_breaker_enabled",
		Help: "Whether new position entries are currently allowed (1) or halted (0)",
	})

	// BreakerBalance is the last observed USDC balance.
	BreakerBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_breaker_balance_usdc",
		Help: "Last observed wallet USDC balance",
	})

	// BreakerHaltThreshold is the balance below which entries halt.
	BreakerHaltThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_breaker_halt_threshold_usdc",
		Help: "Balance threshold below which new entries are halted",
	})

	// BreakerResumeThreshold is the balance above which entries resume.
	BreakerResumeThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_breaker_resume_threshold_usdc",
		Help: "Balance threshold above which halted entries resume",
	})

	// BreakerAvgEntryNotional is the rolling average entry notional.
	BreakerAvgEntryNotional = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_lag_breaker_avg_entry_notional_usdc",
		Help: "Rolling average notional of recent position entries",
	})

	// BreakerStateChanges counts halt/resume transitions.
	BreakerStateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_lag_breaker_state_changes_total",
		Help: "Total number of breaker halt/resume transitions",
	})

	// BreakerCheckDuration observes balance check latency.
	BreakerCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_lag_breaker_check_duration_seconds",
		Help:    "Duration of balance checks",
		Buckets: prometheus.DefBuckets,
	})
)

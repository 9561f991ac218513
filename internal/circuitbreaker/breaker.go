// Package circuitbreaker halts new position entries when the wallet's USDC
// collateral drops below a dynamic floor. The floor tracks recent entry sizes
// so a run of large positions raises it, and hysteresis keeps the breaker from
// flapping around the boundary. Exits are never blocked; only entries are.
package circuitbreaker

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/polymarket-lag/pkg/wallet"
	"go.uber.org/zap"
)

// defaultWindow is the number of recent entries used to size the floor.
const defaultWindow = 20

// BalanceFetcher fetches on-chain balances for the trading wallet.
type BalanceFetcher interface {
	GetBalances(ctx context.Context, address common.Address) (*wallet.Balances, error)
}

// Breaker gates new entries on available collateral. IsEnabled is lock-free
// so the entry path can consult it on every opportunity.
type Breaker struct {
	enabled atomic.Bool

	checkInterval   time.Duration
	fetcher         BalanceFetcher
	address         common.Address
	entryMultiplier float64
	minCollateral   float64
	hysteresisRatio float64
	logger          *zap.Logger

	mu            sync.RWMutex
	lastBalance   float64
	lastCheck     time.Time
	recentEntries []float64 // notional of recent entries, newest last
	haltBelow     float64
	resumeAbove   float64
}

// Config configures the breaker. EntryMultiplier scales the average entry
// notional into the halt floor; MinCollateral is the absolute floor that
// applies even before any entries have been recorded.
type Config struct {
	CheckInterval   time.Duration
	EntryMultiplier float64
	MinCollateral   float64
	HysteresisRatio float64
	Fetcher         BalanceFetcher
	Address         common.Address
	Logger          *zap.Logger
}

// Status is a point-in-time view for the health endpoint.
type Status struct {
	Enabled          bool
	LastBalance      float64
	LastCheck        time.Time
	HaltBelow        float64
	ResumeAbove      float64
	AvgEntryNotional float64
	RecentEntryCount int
}

// New validates the configuration and returns a breaker that starts enabled.
func New(cfg *Config) (*Breaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("balance fetcher cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("check interval must be positive")
	}
	if cfg.EntryMultiplier <= 0 {
		return nil, fmt.Errorf("entry multiplier must be positive")
	}
	if cfg.MinCollateral <= 0 {
		return nil, fmt.Errorf("min collateral must be positive")
	}
	if cfg.HysteresisRatio < 1.0 {
		return nil, fmt.Errorf("hysteresis ratio must be >= 1.0")
	}

	b := &Breaker{
		checkInterval:   cfg.CheckInterval,
		fetcher:         cfg.Fetcher,
		address:         cfg.Address,
		entryMultiplier: cfg.EntryMultiplier,
		minCollateral:   cfg.MinCollateral,
		hysteresisRatio: cfg.HysteresisRatio,
		logger:          cfg.Logger,
		recentEntries:   make([]float64, 0, defaultWindow),
		haltBelow:       cfg.MinCollateral,
		resumeAbove:     cfg.MinCollateral * cfg.HysteresisRatio,
	}
	b.enabled.Store(true)

	BreakerEnabled.Set(1)
	BreakerHaltThreshold.Set(b.haltBelow)
	BreakerResumeThreshold.Set(b.resumeAbove)

	return b, nil
}

// IsEnabled reports whether new entries are currently allowed.
func (b *Breaker) IsEnabled() bool {
	return b.enabled.Load()
}

// RecordEntry folds an entry's notional into the rolling window and
// recomputes the halt floor. Called after every successful entry fill.
func (b *Breaker) RecordEntry(notional float64) {
	if notional <= 0 {
		b.logger.Warn("invalid-entry-notional", zap.Float64("notional", notional))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.recentEntries = append(b.recentEntries, notional)
	if len(b.recentEntries) > defaultWindow {
		b.recentEntries = b.recentEntries[1:]
	}

	avg := mean(b.recentEntries)
	b.haltBelow = math.Max(avg*b.entryMultiplier, b.minCollateral)
	b.resumeAbove = b.haltBelow * b.hysteresisRatio

	BreakerAvgEntryNotional.Set(avg)
	BreakerHaltThreshold.Set(b.haltBelow)
	BreakerResumeThreshold.Set(b.resumeAbove)

	b.logger.Debug("breaker-floor-updated",
		zap.Float64("avg_entry_notional", avg),
		zap.Int("entry_count", len(b.recentEntries)),
		zap.Float64("halt_below", b.haltBelow),
		zap.Float64("resume_above", b.resumeAbove))
}

// Check fetches the current USDC balance and flips the breaker state if the
// balance crossed a threshold. Disable and enable use different thresholds so
// a balance oscillating at the floor does not toggle the breaker.
func (b *Breaker) Check(ctx context.Context) error {
	timer := time.Now()
	defer func() {
		BreakerCheckDuration.Observe(time.Since(timer).Seconds())
	}()

	balances, err := b.fetcher.GetBalances(ctx, b.address)
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	// USDC carries 6 decimals on-chain.
	usdc := new(big.Float).Quo(new(big.Float).SetInt(balances.USDC), big.NewFloat(1e6))
	balance, _ := usdc.Float64()

	b.mu.Lock()
	b.lastBalance = balance
	b.lastCheck = time.Now()
	haltBelow := b.haltBelow
	resumeAbove := b.resumeAbove
	b.mu.Unlock()

	BreakerBalance.Set(balance)

	enabled := b.enabled.Load()
	switch {
	case enabled && balance < haltBelow:
		b.enabled.Store(false)
		BreakerEnabled.Set(0)
		BreakerStateChanges.Inc()
		b.logger.Warn("entries-halted",
			zap.Float64("balance", balance),
			zap.Float64("halt_below", haltBelow),
			zap.Float64("resume_above", resumeAbove))
	case !enabled && balance >= resumeAbove:
		b.enabled.Store(true)
		BreakerEnabled.Set(1)
		BreakerStateChanges.Inc()
		b.logger.Info("entries-resumed",
			zap.Float64("balance", balance),
			zap.Float64("resume_above", resumeAbove))
	default:
		b.logger.Debug("balance-checked",
			zap.Float64("balance", balance),
			zap.Bool("enabled", enabled))
	}

	return nil
}

// Start checks the balance once immediately, then monitors in the background
// until the context is cancelled.
func (b *Breaker) Start(ctx context.Context) {
	b.logger.Info("circuit-breaker-started",
		zap.Duration("check_interval", b.checkInterval),
		zap.Float64("entry_multiplier", b.entryMultiplier),
		zap.Float64("min_collateral", b.minCollateral),
		zap.Float64("hysteresis_ratio", b.hysteresisRatio))

	if err := b.Check(ctx); err != nil {
		b.logger.Error("initial-balance-check-failed", zap.Error(err))
	}

	go b.monitorLoop(ctx)
}

func (b *Breaker) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(b.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("circuit-breaker-stopped")
			return
		case <-ticker.C:
			if err := b.Check(ctx); err != nil {
				b.logger.Error("balance-check-failed", zap.Error(err))
			}
		}
	}
}

// GetStatus snapshots the breaker for the health endpoint.
func (b *Breaker) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Status{
		Enabled:          b.enabled.Load(),
		LastBalance:      b.lastBalance,
		LastCheck:        b.lastCheck,
		HaltBelow:        b.haltBelow,
		ResumeAbove:      b.resumeAbove,
		AvgEntryNotional: mean(b.recentEntries),
		RecentEntryCount: len(b.recentEntries),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

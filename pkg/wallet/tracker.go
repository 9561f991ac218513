package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// balanceSource is the subset of Client the tracker needs.
type balanceSource interface {
	GetBalances(ctx context.Context, address common.Address) (*Balances, error)
}

// Tracker periodically fetches wallet balances and updates Prometheus gauges.
type Tracker struct {
	source       balanceSource
	address      common.Address
	pollInterval time.Duration
	logger       *zap.Logger
}

// Config holds tracker configuration.
type Config struct {
	RPCEndpoint  string
	Address      common.Address
	PollInterval time.Duration
	Logger       *zap.Logger
}

// New creates a new wallet tracker.
func New(cfg *Config) (*Tracker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.RPCEndpoint == "" {
		return nil, errors.New("RPC endpoint cannot be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}

	client, err := NewClient(cfg.RPCEndpoint, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Tracker{
		source:       client,
		address:      cfg.Address,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// Start runs the polling loop until the context is cancelled.
func (t *Tracker) Start(ctx context.Context) {
	t.logger.Info("wallet-tracker-started",
		zap.String("address", t.address.Hex()),
		zap.Duration("poll_interval", t.pollInterval))

	t.update(ctx)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("wallet-tracker-stopped")
			return
		case <-ticker.C:
			t.update(ctx)
		}
	}
}

// update fetches balances once and refreshes the gauges.
func (t *Tracker) update(ctx context.Context) {
	start := time.Now()

	balances, err := t.source.GetBalances(ctx, t.address)
	if err != nil {
		UpdateErrorsTotal.Inc()
		t.logger.Warn("wallet-update-failed", zap.Error(err))
		return
	}

	UpdateDuration.Observe(time.Since(start).Seconds())

	matic := weiToFloat(balances.MATIC, 18)
	usdc := weiToFloat(balances.USDC, 6)
	allowance := weiToFloat(balances.USDCAllowance, 6)

	MATICBalance.Set(matic)
	USDCBalance.Set(usdc)
	USDCAllowance.Set(allowance)
	LastUpdateTimestamp.Set(float64(time.Now().Unix()))

	t.logger.Debug("wallet-balances-updated",
		zap.Float64("matic", matic),
		zap.Float64("usdc", usdc),
		zap.Float64("usdc_allowance", allowance))
}

func weiToFloat(value *big.Int, decimals int) float64 {
	if value == nil {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	result, _ := new(big.Float).Quo(new(big.Float).SetInt(value), scale).Float64()
	return result
}

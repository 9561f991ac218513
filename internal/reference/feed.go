package reference

import (
	"sync"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// Feed tracks a rolling window of price samples for one reference symbol and
// detects threshold-exceeding moves across the window.
type Feed struct {
	symbol       string
	window       time.Duration
	thresholdPct float64
	logger       *zap.Logger

	mu      sync.Mutex
	samples []types.PriceSample
}

// FeedConfig holds reference feed configuration.
type FeedConfig struct {
	Symbol       string
	Window       time.Duration
	ThresholdPct float64
	Logger       *zap.Logger
}

// NewFeed creates a rolling-window feed for a single symbol.
func NewFeed(cfg FeedConfig) *Feed {
	return &Feed{
		symbol:       cfg.Symbol,
		window:       cfg.Window,
		thresholdPct: cfg.ThresholdPct,
		logger:       cfg.Logger,
	}
}

// Record appends a price sample and evicts samples that have fallen out of the
// detection window. Eviction is amortized O(1): each sample is appended once
// and removed once.
func (f *Feed) Record(sample types.PriceSample) {
	if sample.Price <= 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.samples = append(f.samples, sample)

	cutoff := sample.Timestamp.Add(-f.window)
	for len(f.samples) > 0 && f.samples[0].Timestamp.Before(cutoff) {
		f.samples = f.samples[1:]
	}

	TicksTotal.WithLabelValues(f.symbol).Inc()
	WindowSamples.WithLabelValues(f.symbol).Set(float64(len(f.samples)))
}

// DetectMove scans the window [now-W, now] and returns a MoveEvent iff the
// change from the earliest in-window sample to the latest sample meets the
// threshold (boundary inclusive). Fewer than two in-window samples means no
// rate of change can be computed.
func (f *Feed) DetectMove(now time.Time) (*types.MoveEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	windowStart := now.Add(-f.window)

	// Samples are in arrival order; find the earliest one inside the window.
	startIdx := -1
	for i := range f.samples {
		if !f.samples[i].Timestamp.Before(windowStart) {
			startIdx = i
			break
		}
	}

	if startIdx < 0 || len(f.samples)-startIdx < 2 {
		return nil, false
	}

	start := f.samples[startIdx]
	latest := f.samples[len(f.samples)-1]

	if start.Price <= 0 {
		return nil, false
	}

	changePct := (latest.Price - start.Price) / start.Price * 100

	if changePct < f.thresholdPct && changePct > -f.thresholdPct {
		return nil, false
	}

	direction := types.DirectionUp
	if changePct < 0 {
		direction = types.DirectionDown
	}

	move := &types.MoveEvent{
		Symbol:       f.symbol,
		StartPrice:   start.Price,
		CurrentPrice: latest.Price,
		ChangePct:    changePct,
		Direction:    direction,
		DetectedAt:   now,
		WindowStart:  windowStart,
	}

	MovesDetectedTotal.WithLabelValues(f.symbol, string(direction)).Inc()

	f.logger.Debug("reference-move-detected",
		zap.String("symbol", f.symbol),
		zap.Float64("change-pct", changePct),
		zap.Float64("start-price", start.Price),
		zap.Float64("current-price", latest.Price))

	return move, true
}

// LastPrice returns the most recent sample price.
func (f *Feed) LastPrice() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.samples) == 0 {
		return 0, false
	}
	return f.samples[len(f.samples)-1].Price, true
}

// Symbol returns the reference symbol this feed tracks.
func (f *Feed) Symbol() string {
	return f.symbol
}

package lag

import (
	"testing"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestDetector() *Detector {
	return New(Config{
		MoveThresholdPct:    0.2,
		MinLag:              2 * time.Second,
		TransferCoefficient: 0.1,
		QuoteStaleness:      5 * time.Minute,
		DefaultBias:         Bullish,
		Logger:              zap.NewNop(),
	})
}

func bitcoinEntity() *types.Entity {
	return &types.Entity{
		ID:         "entity-btc",
		Title:      "Will Bitcoin be above $100,000 on December 31?",
		YesTokenID: "token-yes",
		NoTokenID:  "token-no",
	}
}

func upMove(changePct float64) *types.MoveEvent {
	return &types.MoveEvent{
		Symbol:    "BTCUSDT",
		ChangePct: changePct,
		Direction: types.DirectionUp,
	}
}

// Reference +0.25% over the window, market drifted 0.02% against an expected
// 0.025%, last quote 6s old. All three entry conditions hold.
func TestDetector_LagDetected(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()

	quote := &types.QuoteState{
		EntityID:      "entity-btc",
		TokenID:       "token-yes",
		Outcome:       types.OutcomeYes,
		LastPrice:     0.5001,
		LastUpdatedAt: now.Add(-6 * time.Second),
		BaselinePrice: 0.5000,
		BaselineSetAt: now.Add(-60 * time.Second),
	}

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.25), quote, now)

	assert.Equal(t, LagDetected, verdict.Kind)
	assert.Equal(t, types.OutcomeYes, verdict.Outcome)
	assert.Equal(t, "token-yes", verdict.TokenID)
	assert.InDelta(t, 0.02, verdict.PolyChangePct, 1e-9)
	assert.InDelta(t, 0.025, verdict.ExpectedMovePct, 1e-9)
}

// Market already moved 0.04% against an expected 0.025%.
func TestDetector_AlreadyReacted(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()

	quote := &types.QuoteState{
		LastPrice:     0.5002,
		LastUpdatedAt: now.Add(-6 * time.Second),
		BaselinePrice: 0.5000,
		BaselineSetAt: now.Add(-60 * time.Second),
	}

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.25), quote, now)

	assert.Equal(t, NoLag, verdict.Kind)
	assert.Equal(t, ReasonAlreadyReacted, verdict.Reason)
}

// Quote arrived 1s ago: a fresh unchanged quote is confirmation, not lag.
func TestDetector_TooRecent(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()

	quote := &types.QuoteState{
		LastPrice:     0.5000,
		LastUpdatedAt: now.Add(-1 * time.Second),
		BaselinePrice: 0.5000,
		BaselineSetAt: now.Add(-60 * time.Second),
	}

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.25), quote, now)

	assert.Equal(t, NoLag, verdict.Kind)
	assert.Equal(t, ReasonTooRecent, verdict.Reason)
}

func TestDetector_BelowThreshold(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()

	quote := &types.QuoteState{
		LastPrice:     0.5000,
		LastUpdatedAt: now.Add(-6 * time.Second),
		BaselinePrice: 0.5000,
		BaselineSetAt: now.Add(-60 * time.Second),
	}

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.1), quote, now)

	assert.Equal(t, NoLag, verdict.Kind)
	assert.Equal(t, ReasonBelowThreshold, verdict.Reason)
}

func TestDetector_NoQuoteIsNoData(t *testing.T) {
	detector := newTestDetector()

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.25), nil, time.Now())

	assert.Equal(t, NoData, verdict.Kind)
	// Token resolution still happened so the caller can see which side was checked.
	assert.Equal(t, "token-yes", verdict.TokenID)
}

func TestDetector_StaleQuoteIsNoData(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()

	quote := &types.QuoteState{
		LastPrice:     0.5000,
		LastUpdatedAt: now.Add(-10 * time.Minute),
		BaselinePrice: 0.5000,
		BaselineSetAt: now.Add(-10 * time.Minute),
	}

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.25), quote, now)

	assert.Equal(t, NoData, verdict.Kind)
}

func TestDetector_FreshBaselineIsInitializing(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()

	observedAt := now.Add(-500 * time.Millisecond)
	quote := &types.QuoteState{
		LastPrice:     0.5000,
		LastUpdatedAt: observedAt,
		BaselinePrice: 0.5000,
		BaselineSetAt: observedAt,
	}

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.25), quote, now)

	assert.Equal(t, Initializing, verdict.Kind)
}

// A baseline-only quote that has aged past the lag floor is a market that
// never reacted, which is the strongest form of lag.
func TestDetector_AgedBaselineOnlyQuoteIsLag(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()

	observedAt := now.Add(-6 * time.Second)
	quote := &types.QuoteState{
		LastPrice:     0.5000,
		LastUpdatedAt: observedAt,
		BaselinePrice: 0.5000,
		BaselineSetAt: observedAt,
	}

	verdict := detector.Evaluate(bitcoinEntity(), upMove(0.25), quote, now)

	assert.Equal(t, LagDetected, verdict.Kind)
	assert.Equal(t, 0.0, verdict.PolyChangePct)
}

// Same inputs must always yield the same verdict.
func TestDetector_EvaluateIsPure(t *testing.T) {
	detector := newTestDetector()
	now := time.Now()
	entity := bitcoinEntity()
	move := upMove(0.25)

	quote := &types.QuoteState{
		LastPrice:     0.5001,
		LastUpdatedAt: now.Add(-6 * time.Second),
		BaselinePrice: 0.5000,
		BaselineSetAt: now.Add(-60 * time.Second),
	}

	first := detector.Evaluate(entity, move, quote, now)
	for range 10 {
		quoteCopy := *quote
		assert.Equal(t, first, detector.Evaluate(entity, move, &quoteCopy, now))
	}
}

func TestDetector_DownMoveOnBullishEntityChecksNoToken(t *testing.T) {
	detector := newTestDetector()

	move := &types.MoveEvent{
		Symbol:    "BTCUSDT",
		ChangePct: -0.3,
		Direction: types.DirectionDown,
	}

	verdict := detector.Evaluate(bitcoinEntity(), move, nil, time.Now())

	assert.Equal(t, types.OutcomeNo, verdict.Outcome)
	assert.Equal(t, "token-no", verdict.TokenID)
}

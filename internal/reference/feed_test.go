package reference

import (
	"testing"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFeed(t *testing.T) *Feed {
	t.Helper()
	return NewFeed(FeedConfig{
		Symbol:       "BTCUSDT",
		Window:       10 * time.Second,
		ThresholdPct: 0.2,
		Logger:       zap.NewNop(),
	})
}

func TestFeed_DetectMove_NotEnoughSamples(t *testing.T) {
	feed := newTestFeed(t)
	now := time.Now()

	// Empty window
	move, ok := feed.DetectMove(now)
	assert.False(t, ok)
	assert.Nil(t, move)

	// Single sample cannot produce a rate of change
	feed.Record(types.PriceSample{Timestamp: now, Price: 50000})
	move, ok = feed.DetectMove(now)
	assert.False(t, ok)
	assert.Nil(t, move)
}

func TestFeed_DetectMove_BelowThreshold(t *testing.T) {
	feed := newTestFeed(t)
	now := time.Now()

	feed.Record(types.PriceSample{Timestamp: now.Add(-5 * time.Second), Price: 50000})
	feed.Record(types.PriceSample{Timestamp: now, Price: 50050}) // +0.1%

	move, ok := feed.DetectMove(now)
	assert.False(t, ok)
	assert.Nil(t, move)
}

func TestFeed_DetectMove_ExactThresholdIsIncluded(t *testing.T) {
	feed := newTestFeed(t)
	now := time.Now()

	feed.Record(types.PriceSample{Timestamp: now.Add(-5 * time.Second), Price: 50000})
	feed.Record(types.PriceSample{Timestamp: now, Price: 50100}) // exactly +0.2%

	move, ok := feed.DetectMove(now)
	require.True(t, ok)
	require.NotNil(t, move)

	assert.Equal(t, "BTCUSDT", move.Symbol)
	assert.Equal(t, types.DirectionUp, move.Direction)
	assert.InDelta(t, 0.2, move.ChangePct, 1e-9)
	assert.Equal(t, 50000.0, move.StartPrice)
	assert.Equal(t, 50100.0, move.CurrentPrice)
}

func TestFeed_DetectMove_Downward(t *testing.T) {
	feed := newTestFeed(t)
	now := time.Now()

	feed.Record(types.PriceSample{Timestamp: now.Add(-8 * time.Second), Price: 50000})
	feed.Record(types.PriceSample{Timestamp: now.Add(-4 * time.Second), Price: 49900})
	feed.Record(types.PriceSample{Timestamp: now, Price: 49700}) // -0.6%

	move, ok := feed.DetectMove(now)
	require.True(t, ok)

	assert.Equal(t, types.DirectionDown, move.Direction)
	assert.InDelta(t, -0.6, move.ChangePct, 1e-9)
	assert.True(t, move.ChangePct < 0)
}

func TestFeed_DetectMove_UsesEarliestInWindowSample(t *testing.T) {
	feed := newTestFeed(t)
	now := time.Now()

	// Sample older than the window must not anchor the change calculation.
	feed.Record(types.PriceSample{Timestamp: now.Add(-15 * time.Second), Price: 40000})
	feed.Record(types.PriceSample{Timestamp: now.Add(-6 * time.Second), Price: 50000})
	feed.Record(types.PriceSample{Timestamp: now, Price: 50050}) // +0.1% vs in-window start

	move, ok := feed.DetectMove(now)
	assert.False(t, ok)
	assert.Nil(t, move)
}

func TestFeed_Record_EvictsSamplesOutsideWindow(t *testing.T) {
	feed := newTestFeed(t)
	base := time.Now()

	feed.Record(types.PriceSample{Timestamp: base, Price: 50000})
	feed.Record(types.PriceSample{Timestamp: base.Add(2 * time.Second), Price: 50010})

	// This sample pushes the first one out of the 10s window.
	feed.Record(types.PriceSample{Timestamp: base.Add(11 * time.Second), Price: 51000})

	// Change vs the surviving earliest sample (50010 -> 51000 is ~+1.98%).
	move, ok := feed.DetectMove(base.Add(11 * time.Second))
	require.True(t, ok)
	assert.Equal(t, 50010.0, move.StartPrice)
}

func TestFeed_Record_IgnoresNonPositivePrices(t *testing.T) {
	feed := newTestFeed(t)
	now := time.Now()

	feed.Record(types.PriceSample{Timestamp: now, Price: 0})
	feed.Record(types.PriceSample{Timestamp: now, Price: -1})

	_, ok := feed.LastPrice()
	assert.False(t, ok)
}

func TestFeed_LastPrice(t *testing.T) {
	feed := newTestFeed(t)
	now := time.Now()

	_, ok := feed.LastPrice()
	assert.False(t, ok)

	feed.Record(types.PriceSample{Timestamp: now, Price: 50000})
	feed.Record(types.PriceSample{Timestamp: now.Add(time.Second), Price: 50123})

	price, ok := feed.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 50123.0, price)
}

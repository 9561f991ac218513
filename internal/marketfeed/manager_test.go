package marketfeed

import (
	"testing"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := New(&Config{
		Logger:       zap.NewNop(),
		UpdateBuffer: 16,
	})
	m.Track(&types.Entity{
		ID:         "entity-1",
		Slug:       "bitcoin-up-or-down",
		YesTokenID: "yes-token-1",
		NoTokenID:  "no-token-1",
	})
	return m
}

func TestManager_BaselineSetOnce(t *testing.T) {
	manager := newTestManager(t)

	// First observation pins the baseline.
	err := manager.applyUpdate(&types.MarketMessage{
		EventType: "book",
		AssetID:   "yes-token-1",
		Bids:      []types.PriceLevel{{Price: "0.50", Size: "100"}},
		Asks:      []types.PriceLevel{{Price: "0.52", Size: "100"}},
	})
	require.NoError(t, err)

	quote, ok := manager.Quote("yes-token-1")
	require.True(t, ok)
	assert.Equal(t, 0.51, quote.BaselinePrice)
	assert.Equal(t, 0.51, quote.LastPrice)
	assert.Equal(t, "entity-1", quote.EntityID)
	assert.Equal(t, types.OutcomeYes, quote.Outcome)

	// Later updates move the last price but never the baseline.
	for _, price := range []string{"0.55", "0.60", "0.45"} {
		err = manager.applyUpdate(&types.MarketMessage{
			EventType: "price_change",
			AssetID:   "yes-token-1",
			Bids:      []types.PriceLevel{{Price: price, Size: "100"}},
			Asks:      []types.PriceLevel{{Price: price, Size: "100"}},
		})
		require.NoError(t, err)

		quote, ok = manager.Quote("yes-token-1")
		require.True(t, ok)
		assert.Equal(t, 0.51, quote.BaselinePrice)
	}

	quote, _ = manager.Quote("yes-token-1")
	assert.Equal(t, 0.45, quote.LastPrice)
	assert.InDelta(t, (0.45-0.51)/0.51*100, quote.ChangePct(), 1e-9)
}

func TestManager_IgnoresUntrackedTokens(t *testing.T) {
	manager := newTestManager(t)

	err := manager.applyUpdate(&types.MarketMessage{
		EventType: "book",
		AssetID:   "unknown-token",
		Bids:      []types.PriceLevel{{Price: "0.50", Size: "100"}},
	})
	require.NoError(t, err)

	_, ok := manager.Quote("unknown-token")
	assert.False(t, ok)
}

func TestManager_EmptyBookIsSkipped(t *testing.T) {
	manager := newTestManager(t)

	err := manager.applyUpdate(&types.MarketMessage{
		EventType: "book",
		AssetID:   "yes-token-1",
	})
	require.NoError(t, err)

	_, ok := manager.Quote("yes-token-1")
	assert.False(t, ok)
}

func TestManager_OneSidedBookUsesAvailableSide(t *testing.T) {
	manager := newTestManager(t)

	err := manager.applyUpdate(&types.MarketMessage{
		EventType: "book",
		AssetID:   "no-token-1",
		Asks:      []types.PriceLevel{{Price: "0.40", Size: "50"}},
	})
	require.NoError(t, err)

	quote, ok := manager.Quote("no-token-1")
	require.True(t, ok)
	assert.Equal(t, 0.40, quote.LastPrice)
	assert.Equal(t, types.OutcomeNo, quote.Outcome)
}

func TestManager_Untrack(t *testing.T) {
	manager := newTestManager(t)

	err := manager.applyUpdate(&types.MarketMessage{
		EventType: "book",
		AssetID:   "yes-token-1",
		Bids:      []types.PriceLevel{{Price: "0.50", Size: "100"}},
	})
	require.NoError(t, err)

	manager.Untrack(&types.Entity{
		ID:         "entity-1",
		YesTokenID: "yes-token-1",
		NoTokenID:  "no-token-1",
	})

	_, ok := manager.Quote("yes-token-1")
	assert.False(t, ok)

	// Updates after untrack are ignored.
	err = manager.applyUpdate(&types.MarketMessage{
		EventType: "book",
		AssetID:   "yes-token-1",
		Bids:      []types.PriceLevel{{Price: "0.60", Size: "100"}},
	})
	require.NoError(t, err)

	_, ok = manager.Quote("yes-token-1")
	assert.False(t, ok)
}

func TestManager_UpdateChanReceivesCopies(t *testing.T) {
	manager := newTestManager(t)

	err := manager.applyUpdate(&types.MarketMessage{
		EventType: "book",
		AssetID:   "yes-token-1",
		Bids:      []types.PriceLevel{{Price: "0.50", Size: "100"}},
		Asks:      []types.PriceLevel{{Price: "0.50", Size: "100"}},
	})
	require.NoError(t, err)

	select {
	case update := <-manager.UpdateChan():
		assert.Equal(t, "yes-token-1", update.TokenID)
		assert.Equal(t, 0.50, update.LastPrice)
	default:
		t.Fatal("expected quote update on channel")
	}
}

func TestQuotePrice(t *testing.T) {
	tests := []struct {
		name        string
		msg         *types.MarketMessage
		expectPrice float64
		expectError bool
	}{
		{
			name: "mid-of-both-sides",
			msg: &types.MarketMessage{
				Bids: []types.PriceLevel{{Price: "0.48", Size: "10"}},
				Asks: []types.PriceLevel{{Price: "0.52", Size: "10"}},
			},
			expectPrice: 0.50,
		},
		{
			name: "bid-only",
			msg: &types.MarketMessage{
				Bids: []types.PriceLevel{{Price: "0.48", Size: "10"}},
			},
			expectPrice: 0.48,
		},
		{
			name: "ask-only",
			msg: &types.MarketMessage{
				Asks: []types.PriceLevel{{Price: "0.52", Size: "10"}},
			},
			expectPrice: 0.52,
		},
		{
			name:        "empty",
			msg:         &types.MarketMessage{},
			expectError: true,
		},
		{
			name: "invalid-price",
			msg: &types.MarketMessage{
				Bids: []types.PriceLevel{{Price: "bogus", Size: "10"}},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := quotePrice(tt.msg)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.expectPrice, price, 1e-9)
		})
	}
}

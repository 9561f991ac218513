package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/mselser95/polymarket-lag/pkg/config"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// marketChannel is a test Polymarket market-channel endpoint. It accepts
// subscription frames and can push book messages to the client.
type marketChannel struct {
	server   *httptest.Server
	upgrader gws.Upgrader

	mu   sync.Mutex
	conn *gws.Conn
}

func newMarketChannel(t *testing.T) *marketChannel {
	t.Helper()
	s := &marketChannel{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *marketChannel) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

// pushBook sends a book message for tokenID. The feed derives its quote from
// the bid/ask mid.
func (s *marketChannel) pushBook(t *testing.T, tokenID string, bid, ask string) {
	t.Helper()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	require.NotNil(t, conn)

	frame := `[{"event_type":"book","asset_id":"` + tokenID + `","market":"mkt-btc","timestamp":"1700000000000",` +
		`"bids":[{"price":"` + bid + `","size":"100"}],"asks":[{"price":"` + ask + `","size":"100"}]}]`
	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(frame)))
}

// idleWSServer accepts WebSocket upgrades on any path and never sends data.
// Stands in for the reference ticker endpoint.
func idleWSServer(t *testing.T) string {
	t.Helper()
	upgrader := gws.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// gammaServer serves a single BTC market.
func gammaServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "mkt-btc",
				"question": "Will Bitcoin reach $150,000 by March 31?",
				"slug": "bitcoin-150k-march",
				"active": true,
				"liquidityNum": 5000.0,
				"outcomes": "[\"Yes\", \"No\"]",
				"clobTokenIds": "[\"tok-yes\", \"tok-no\"]"
			}
		]`))
	}))
	t.Cleanup(server.Close)
	return server
}

func testAppConfig(t *testing.T, gammaURL, marketWSURL, referenceWSURL string) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel: "debug",
		HTTPPort: "0",

		BinanceWSURL:     referenceWSURL,
		ReferenceSymbols: []string{"BTCUSDT"},

		PolymarketWSURL:    marketWSURL,
		PolymarketGammaURL: gammaURL,
		PolymarketCLOBURL:  "https://clob.invalid",

		RegistryPollInterval: 50 * time.Millisecond,
		RegistryMaxEntities:  10,
		RegistryMinLiquidity: 100.0,

		WSDialTimeout:           2 * time.Second,
		WSPongTimeout:           5 * time.Second,
		WSPingInterval:          1 * time.Second,
		WSReconnectInitialDelay: 10 * time.Millisecond,
		WSReconnectMaxDelay:     100 * time.Millisecond,
		WSReconnectBackoffMult:  2.0,
		WSMessageBufferSize:     100,

		MoveThresholdPct:    0.2,
		DetectionWindow:     10 * time.Second,
		MinLag:              time.Millisecond,
		TransferCoefficient: 0.1,
		QuoteStaleness:      time.Minute,
		DefaultBias:         "bullish",

		ExecutionPolicy:   "limit",
		MinProfitPct:      1.0,
		MaxNotional:       100.0,
		LiquidityFraction: 0.10,
		MinTradeSize:      1.0,

		HoldDuration:       30 * time.Second,
		MinHold:            0,
		EarlyExitPct:       1.0,
		MinExitProfitPct:   1.0,
		Cooldown:           5 * time.Minute,
		PositionTickPeriod: 50 * time.Millisecond,

		ExecutionMode: "paper",
		StorageMode:   "console",
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// End-to-end through real components: the registry discovers an entity, the
// market channel pins its baseline quote, a reference move opens a paper
// position, and a subsequent quote jump closes it at a profit.
func TestApp_MoveOpensAndQuoteClosesPosition(t *testing.T) {
	gamma := gammaServer(t)
	market := newMarketChannel(t)
	referenceURL := idleWSServer(t)

	cfg := testAppConfig(t, gamma.URL, market.url(), referenceURL)

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, a.startComponents())
	defer func() {
		require.NoError(t, a.Shutdown())
	}()

	// Discovery subscribes both outcome tokens.
	waitFor(t, 3*time.Second, func() bool {
		return a.wsManager.SubscribedCount() == 2
	})
	require.Len(t, a.registryService.Entities(), 1)
	entity := a.registryService.Entities()[0]
	assert.Equal(t, "BTCUSDT", entity.MatchedSymbol)
	assert.Equal(t, "tok-yes", entity.YesTokenID)

	// First book message pins the baseline at the 0.50 mid.
	market.pushBook(t, "tok-yes", "0.49", "0.51")
	waitFor(t, 3*time.Second, func() bool {
		q, ok := a.quoteManager.Quote("tok-yes")
		return ok && q.BaselinePrice == 0.50
	})

	// Quote must be older than the minimum lag before a move counts.
	time.Sleep(5 * time.Millisecond)

	move := &types.MoveEvent{
		Symbol:       "BTCUSDT",
		StartPrice:   100000,
		CurrentPrice: 100500,
		ChangePct:    0.5,
		Direction:    types.DirectionUp,
		DetectedAt:   time.Now(),
	}
	a.evaluateMove(move)

	positions := a.positionManager.ActivePositions()
	require.Len(t, positions, 1)
	pos := positions[0]
	assert.Equal(t, types.StateOpen, pos.State)
	assert.Equal(t, "tok-yes", pos.TokenID)
	assert.Equal(t, types.OutcomeYes, pos.Outcome)
	assert.InDelta(t, 0.50, pos.EntryPrice, 0.01)
	// min(100/0.50, 5000*0.10) tokens
	assert.InDelta(t, 200.0, pos.EntrySize, 0.001)

	// Same move again hits the occupied slot, not the venue.
	a.evaluateMove(move)
	assert.Len(t, a.positionManager.ActivePositions(), 1)

	// A quote jump past the early-exit threshold closes the position.
	market.pushBook(t, "tok-yes", "0.58", "0.60")
	waitFor(t, 3*time.Second, func() bool {
		return len(a.positionManager.ActivePositions()) == 0
	})
}

// A move on a symbol with no matching entities is a no-op.
func TestApp_MoveWithoutEntitiesIsIgnored(t *testing.T) {
	gamma := gammaServer(t)
	market := newMarketChannel(t)
	referenceURL := idleWSServer(t)

	cfg := testAppConfig(t, gamma.URL, market.url(), referenceURL)

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, a.startComponents())
	defer func() {
		require.NoError(t, a.Shutdown())
	}()

	waitFor(t, 3*time.Second, func() bool {
		return a.wsManager.SubscribedCount() == 2
	})

	a.evaluateMove(&types.MoveEvent{
		Symbol:    "ETHUSDT",
		ChangePct: 1.0,
		Direction: types.DirectionUp,
	})

	assert.Empty(t, a.positionManager.ActivePositions())
}

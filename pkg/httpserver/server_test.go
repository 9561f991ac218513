package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mselser95/polymarket-lag/internal/execution"
	"github.com/mselser95/polymarket-lag/internal/lag"
	"github.com/mselser95/polymarket-lag/internal/marketfeed"
	"github.com/mselser95/polymarket-lag/internal/position"
	"github.com/mselser95/polymarket-lag/internal/registry"
	"github.com/mselser95/polymarket-lag/pkg/healthprobe"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *position.Manager, *marketfeed.Manager) {
	t.Helper()
	logger := zap.NewNop()

	quotes := marketfeed.New(&marketfeed.Config{Logger: logger})
	positions := position.New(position.Config{
		MaxNotional:       100,
		LiquidityFraction: 0.1,
		MinTradeSize:      1,
		ExecutionPolicy:   "market",
		HoldDuration:      30 * time.Second,
		Logger:            logger,
	}, execution.NewPaperVenue(logger), quotes, nil, nil)

	reg := registry.New(&registry.Config{
		PollInterval: time.Minute,
		MaxEntities:  10,
		Logger:       logger,
	})

	health := healthprobe.New("feed")

	server := New(&Config{
		Port:            "0",
		Logger:          logger,
		HealthChecker:   health,
		PositionManager: positions,
		QuoteManager:    quotes,
		Registry:        reg,
	})

	return server, positions, quotes
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_HealthRoutes(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	// feed component is not ready yet
	rec = get(t, server.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_MetricsRoute(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_PositionsEmpty(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server.Handler(), "/api/positions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]PositionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body["positions"])
}

func TestServer_PositionsListsOpenPosition(t *testing.T) {
	server, positions, _ := newTestServer(t)

	entity := &types.Entity{
		ID:         "entity-1",
		Slug:       "bitcoin-above-100k",
		YesTokenID: "token-yes",
		NoTokenID:  "token-no",
		Liquidity:  5000,
	}
	verdict := lag.Verdict{
		Kind:       lag.LagDetected,
		EntityID:   entity.ID,
		Outcome:    types.OutcomeYes,
		TokenID:    entity.YesTokenID,
		QuotePrice: 0.50,
	}
	move := &types.MoveEvent{Symbol: "BTCUSDT", ChangePct: 0.25, Direction: types.DirectionUp}

	_, err := positions.TryEnter(context.Background(), entity, verdict, move)
	require.NoError(t, err)

	rec := get(t, server.Handler(), "/api/positions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]PositionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["positions"], 1)

	view := body["positions"][0]
	assert.Equal(t, "entity-1", view.EntityID)
	assert.Equal(t, "open", view.State)
	assert.Equal(t, 0.50, view.EntryPrice)
	assert.Equal(t, "BTCUSDT", view.MoveSymbol)
}

func TestServer_QuoteNotTracked(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server.Handler(), "/api/quotes?token_id=unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "quote not tracked", body.Error)
}

func TestServer_EntitiesEmpty(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server.Handler(), "/api/entities")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]EntityView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body["entities"])
}

func TestServer_BreakerRouteAbsentWhenNotConfigured(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server.Handler(), "/api/breaker")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

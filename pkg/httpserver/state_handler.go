package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mselser95/polymarket-lag/internal/circuitbreaker"
	"github.com/mselser95/polymarket-lag/internal/marketfeed"
	"github.com/mselser95/polymarket-lag/internal/position"
	"github.com/mselser95/polymarket-lag/internal/registry"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// stateHandler serves read-only views of the engine's live state.
type stateHandler struct {
	positions *position.Manager
	quotes    *marketfeed.Manager
	registry  *registry.Service
	breaker   *circuitbreaker.Breaker
	logger    *zap.Logger
}

func newStateHandler(cfg *Config) *stateHandler {
	return &stateHandler{
		positions: cfg.PositionManager,
		quotes:    cfg.QuoteManager,
		registry:  cfg.Registry,
		breaker:   cfg.Breaker,
		logger:    cfg.Logger,
	}
}

// PositionView is the JSON shape of a live position.
type PositionView struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	EntitySlug string    `json:"entity_slug"`
	TokenID    string    `json:"token_id"`
	Outcome    string    `json:"outcome"`
	State      string    `json:"state"`
	EntryPrice float64   `json:"entry_price"`
	EntrySize  float64   `json:"entry_size"`
	EntryTime  time.Time `json:"entry_time"`
	MoveSymbol string    `json:"move_symbol"`
	MovePct    float64   `json:"move_pct"`
}

// QuoteView is the JSON shape of tracked quote state.
type QuoteView struct {
	EntityID      string    `json:"entity_id"`
	TokenID       string    `json:"token_id"`
	Outcome       string    `json:"outcome"`
	LastPrice     float64   `json:"last_price"`
	BaselinePrice float64   `json:"baseline_price"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// EntityView is the JSON shape of a tracked entity.
type EntityView struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Symbol       string    `json:"symbol"`
	YesTokenID   string    `json:"yes_token_id"`
	NoTokenID    string    `json:"no_token_id"`
	Liquidity    float64   `json:"liquidity"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// BreakerView is the JSON shape of circuit breaker status.
type BreakerView struct {
	Enabled          bool    `json:"enabled"`
	LastBalance      float64 `json:"last_balance"`
	HaltBelow        float64 `json:"halt_below"`
	ResumeAbove      float64 `json:"resume_above"`
	AvgEntryNotional float64 `json:"avg_entry_notional"`
	RecentEntryCount int     `json:"recent_entry_count"`
}

// ErrorResponse is a JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePositions handles GET /api/positions.
func (h *stateHandler) handlePositions(w http.ResponseWriter, r *http.Request) {
	active := h.positions.ActivePositions()

	views := make([]PositionView, 0, len(active))
	for _, pos := range active {
		views = append(views, PositionView{
			ID:         pos.ID,
			EntityID:   pos.EntityID,
			EntitySlug: pos.EntitySlug,
			TokenID:    pos.TokenID,
			Outcome:    pos.Outcome,
			State:      string(pos.State),
			EntryPrice: pos.EntryPrice,
			EntrySize:  pos.EntrySize,
			EntryTime:  pos.EntryTime,
			MoveSymbol: pos.MoveSymbol,
			MovePct:    pos.MovePct,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"positions": views})
}

// handleQuotes handles GET /api/quotes and GET /api/quotes?token_id=<id>.
func (h *stateHandler) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if tokenID := r.URL.Query().Get("token_id"); tokenID != "" {
		quote, ok := h.quotes.Quote(tokenID)
		if !ok {
			h.writeError(w, "quote not tracked", http.StatusNotFound)
			return
		}
		h.writeJSON(w, http.StatusOK, quoteView(quote))
		return
	}

	all := h.quotes.AllQuotes()
	views := make([]QuoteView, 0, len(all))
	for _, quote := range all {
		views = append(views, quoteView(quote))
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"quotes": views})
}

// handleEntities handles GET /api/entities.
func (h *stateHandler) handleEntities(w http.ResponseWriter, r *http.Request) {
	entities := h.registry.Entities()

	views := make([]EntityView, 0, len(entities))
	for _, entity := range entities {
		views = append(views, EntityView{
			ID:           entity.ID,
			Slug:         entity.Slug,
			Title:        entity.Title,
			Symbol:       entity.MatchedSymbol,
			YesTokenID:   entity.YesTokenID,
			NoTokenID:    entity.NoTokenID,
			Liquidity:    entity.Liquidity,
			SubscribedAt: entity.SubscribedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"entities": views})
}

// handleBreaker handles GET /api/breaker.
func (h *stateHandler) handleBreaker(w http.ResponseWriter, r *http.Request) {
	status := h.breaker.GetStatus()

	h.writeJSON(w, http.StatusOK, BreakerView{
		Enabled:          status.Enabled,
		LastBalance:      status.LastBalance,
		HaltBelow:        status.HaltBelow,
		ResumeAbove:      status.ResumeAbove,
		AvgEntryNotional: status.AvgEntryNotional,
		RecentEntryCount: status.RecentEntryCount,
	})
}

func quoteView(quote types.QuoteState) QuoteView {
	return QuoteView{
		EntityID:      quote.EntityID,
		TokenID:       quote.TokenID,
		Outcome:       quote.Outcome,
		LastPrice:     quote.LastPrice,
		BaselinePrice: quote.BaselinePrice,
		LastUpdatedAt: quote.LastUpdatedAt,
	}
}

func (h *stateHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *stateHandler) writeError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}

package marketfeed

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// tokenMeta ties a tracked token back to its entity and outcome side.
type tokenMeta struct {
	entityID string
	outcome  string
}

// Manager maintains quote state for all tracked outcome tokens. The baseline
// price of each token is pinned at the first observed update and never
// overwritten; subsequent updates only move the last price.
type Manager struct {
	quotes     map[string]*types.QuoteState // key: token_id
	meta       map[string]tokenMeta         // key: token_id
	mu         sync.RWMutex
	logger     *zap.Logger
	msgChan    <-chan *types.MarketMessage
	updateChan chan *types.QuoteState
	ctx        context.Context
	wg         sync.WaitGroup
}

// Config holds market feed manager configuration.
type Config struct {
	Logger         *zap.Logger
	MessageChannel <-chan *types.MarketMessage
	UpdateBuffer   int
}

// New creates a new market feed manager.
func New(cfg *Config) *Manager {
	buffer := cfg.UpdateBuffer
	if buffer <= 0 {
		buffer = 10000
	}

	return &Manager{
		quotes:     make(map[string]*types.QuoteState),
		meta:       make(map[string]tokenMeta),
		logger:     cfg.Logger,
		msgChan:    cfg.MessageChannel,
		updateChan: make(chan *types.QuoteState, buffer),
	}
}

// Start starts the market feed manager.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("market-feed-starting")

	m.wg.Add(1)
	go m.processMessages()

	return nil
}

// Track registers both outcome tokens of an entity so their updates are
// turned into quote state. Messages for unregistered tokens are ignored.
func (m *Manager) Track(entity *types.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.meta[entity.YesTokenID] = tokenMeta{entityID: entity.ID, outcome: types.OutcomeYes}
	m.meta[entity.NoTokenID] = tokenMeta{entityID: entity.ID, outcome: types.OutcomeNo}

	m.logger.Debug("entity-tracked",
		zap.String("entity-id", entity.ID),
		zap.String("slug", entity.Slug))
}

// Untrack removes an entity's tokens and their quote state.
func (m *Manager) Untrack(entity *types.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tokenID := range []string{entity.YesTokenID, entity.NoTokenID} {
		delete(m.meta, tokenID)
		delete(m.quotes, tokenID)
	}
	QuotesTracked.Set(float64(len(m.quotes)))
}

// processMessages consumes market channel messages until shutdown.
func (m *Manager) processMessages() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("market-feed-stopping")
			return
		case msg, ok := <-m.msgChan:
			if !ok {
				m.logger.Info("message-channel-closed")
				return
			}

			err := m.handleMessage(msg)
			if err != nil {
				m.logger.Warn("handle-message-error",
					zap.Error(err),
					zap.String("event-type", msg.EventType),
					zap.String("asset-id", msg.AssetID))
			}
		}
	}
}

// handleMessage processes a single market channel message.
func (m *Manager) handleMessage(msg *types.MarketMessage) error {
	timer := prometheus.NewTimer(UpdateProcessingDuration)
	defer timer.ObserveDuration()

	switch msg.EventType {
	case "book", "price_change":
		UpdatesTotal.WithLabelValues(msg.EventType).Inc()
		return m.applyUpdate(msg)
	default:
		// Ignore other message types (last_trade_price, tick_size_change)
		return nil
	}
}

// applyUpdate derives a quote price from the message and updates the token's
// state. The first update for a token also sets its baseline.
func (m *Manager) applyUpdate(msg *types.MarketMessage) error {
	price, err := quotePrice(msg)
	if err != nil {
		// Empty books are common for illiquid markets
		m.logger.Debug("quote-price-unavailable",
			zap.String("asset-id", msg.AssetID),
			zap.Error(err))
		return nil
	}

	now := time.Now()

	m.mu.Lock()

	meta, tracked := m.meta[msg.AssetID]
	if !tracked {
		m.mu.Unlock()
		UpdatesDroppedTotal.WithLabelValues("untracked_token").Inc()
		return nil
	}

	quote, exists := m.quotes[msg.AssetID]
	if !exists {
		quote = &types.QuoteState{
			EntityID:      meta.entityID,
			TokenID:       msg.AssetID,
			Outcome:       meta.outcome,
			BaselinePrice: price,
			BaselineSetAt: now,
		}
		m.quotes[msg.AssetID] = quote
		QuotesTracked.Set(float64(len(m.quotes)))
		BaselinesSetTotal.Inc()
	}

	quote.LastPrice = price
	quote.LastUpdatedAt = now

	quoteCopy := *quote
	m.mu.Unlock()

	m.logger.Debug("quote-updated",
		zap.String("token-id", msg.AssetID),
		zap.String("entity-id", quoteCopy.EntityID),
		zap.Float64("price", price),
		zap.Float64("change-pct", quoteCopy.ChangePct()))

	// Notify subscribers (non-blocking)
	select {
	case m.updateChan <- &quoteCopy:
	default:
		m.logger.Warn("quote-update-channel-full",
			zap.String("token-id", msg.AssetID),
			zap.Int("buffer-size", cap(m.updateChan)))
		UpdatesDroppedTotal.WithLabelValues("channel_full").Inc()
	}

	return nil
}

// quotePrice derives a single quote price from a market message: the mid of
// the best bid and ask when both sides are present, otherwise whichever side
// exists.
func quotePrice(msg *types.MarketMessage) (float64, error) {
	bid, bidErr := bestLevelPrice(msg.Bids)
	ask, askErr := bestLevelPrice(msg.Asks)

	switch {
	case bidErr == nil && askErr == nil:
		return (bid + ask) / 2, nil
	case bidErr == nil:
		return bid, nil
	case askErr == nil:
		return ask, nil
	default:
		return 0, fmt.Errorf("no price levels")
	}
}

// bestLevelPrice parses the best (first) price level.
func bestLevelPrice(levels []types.PriceLevel) (float64, error) {
	if len(levels) == 0 {
		return 0, fmt.Errorf("no price levels")
	}

	price, err := strconv.ParseFloat(levels[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price")
	}

	return price, nil
}

// Quote returns a copy of the quote state for a token.
func (m *Manager) Quote(tokenID string) (types.QuoteState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	quote, exists := m.quotes[tokenID]
	if !exists {
		return types.QuoteState{}, false
	}

	return *quote, true
}

// AllQuotes returns a copy of all tracked quote states.
func (m *Manager) AllQuotes() map[string]types.QuoteState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	quotes := make(map[string]types.QuoteState, len(m.quotes))
	for tokenID, quote := range m.quotes {
		quotes[tokenID] = *quote
	}

	return quotes
}

// UpdateChan returns the channel of quote state updates.
func (m *Manager) UpdateChan() <-chan *types.QuoteState {
	return m.updateChan
}

// Close gracefully closes the market feed manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-market-feed")
	m.wg.Wait()
	close(m.updateChan)
	m.logger.Info("market-feed-closed")
	return nil
}

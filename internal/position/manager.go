package position

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/polymarket-lag/internal/execution"
	"github.com/mselser95/polymarket-lag/internal/lag"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// QuoteReader supplies current quote state for deadline-driven exit checks.
type QuoteReader interface {
	Quote(tokenID string) (types.QuoteState, bool)
}

// EntryGate can halt new entries; exits are never gated.
type EntryGate interface {
	IsEnabled() bool
}

// Recorder is the append-only sink for closed-position audit records.
// Fire-and-forget from the manager's perspective.
type Recorder interface {
	Record(ctx context.Context, event *types.PositionClosedEvent) error
}

// Config holds position lifecycle policy. Percent parameters use percent
// units (1.0 means 1%).
type Config struct {
	MaxNotional         float64
	LiquidityFraction   float64
	MinTradeSize        float64
	ExecutionPolicy     string // "limit" or "market"
	MinProfitPct        float64
	TransferCoefficient float64
	HoldDuration        time.Duration
	MinHold             time.Duration
	EarlyExitPct        float64
	MinExitProfitPct    float64
	Cooldown            time.Duration
	Logger              *zap.Logger
}

// Manager owns the position state machine: admission, entry, exit checks, and
// idempotent close. At most one non-closed position exists per entity; the
// admission check reserves the entity slot before the order goes out, so a
// concurrent duplicate entry loses before touching the venue.
type Manager struct {
	config   Config
	venue    execution.Venue
	quotes   QuoteReader
	gate     EntryGate // optional
	recorder Recorder  // optional
	logger   *zap.Logger

	mu         sync.Mutex
	active     map[string]*types.Position // key: entity ID
	byToken    map[string]string          // token ID -> entity ID
	lastClosed map[string]time.Time       // entity ID -> close time
}

// New creates a position manager.
func New(cfg Config, venue execution.Venue, quotes QuoteReader, gate EntryGate, recorder Recorder) *Manager {
	return &Manager{
		config:     cfg,
		venue:      venue,
		quotes:     quotes,
		gate:       gate,
		recorder:   recorder,
		logger:     cfg.Logger,
		active:     make(map[string]*types.Position),
		byToken:    make(map[string]string),
		lastClosed: make(map[string]time.Time),
	}
}

// TryEnter runs the admission check and, if it passes, places the entry order
// for a LagDetected verdict. A nil position with a nil error means the
// opportunity was skipped (size below minimum). Rejections and gate refusals
// come back as errors; none of them are retried.
func (m *Manager) TryEnter(ctx context.Context, entity *types.Entity, verdict lag.Verdict, move *types.MoveEvent) (*types.Position, error) {
	if m.gate != nil && !m.gate.IsEnabled() {
		EntriesTotal.WithLabelValues("halted").Inc()
		return nil, types.ErrEntriesHalted
	}

	size := m.entrySize(entity, verdict.QuotePrice)
	if size < m.config.MinTradeSize {
		EntriesTotal.WithLabelValues("below_min_size").Inc()
		m.logger.Debug("entry-skipped-below-min-size",
			zap.String("entity-id", entity.ID),
			zap.Float64("size", size),
			zap.Float64("min-size", m.config.MinTradeSize))
		return nil, nil
	}

	// Reserve the entity slot before placing the order. This is the
	// admission check: the map entry in Entering state is what makes a
	// concurrent duplicate entry lose.
	pos := &types.Position{
		ID:         uuid.New().String(),
		EntityID:   entity.ID,
		EntitySlug: entity.Slug,
		TokenID:    verdict.TokenID,
		Outcome:    verdict.Outcome,
		State:      types.StateEntering,
		MoveSymbol: move.Symbol,
		MovePct:    move.ChangePct,
	}

	m.mu.Lock()
	if _, exists := m.active[entity.ID]; exists {
		m.mu.Unlock()
		EntriesTotal.WithLabelValues("position_exists").Inc()
		return nil, types.ErrPositionExists
	}
	if closedAt, ok := m.lastClosed[entity.ID]; ok && time.Since(closedAt) < m.config.Cooldown {
		m.mu.Unlock()
		EntriesTotal.WithLabelValues("cooldown").Inc()
		return nil, types.ErrCooldownActive
	}
	m.active[entity.ID] = pos
	m.byToken[verdict.TokenID] = entity.ID
	PositionsOpen.Set(float64(len(m.active)))
	m.mu.Unlock()

	req := execution.OrderRequest{
		TokenID:    verdict.TokenID,
		Side:       execution.Buy,
		QuotePrice: verdict.QuotePrice,
		Size:       size,
	}
	if m.config.ExecutionPolicy == "limit" {
		maxBid := lag.MaxAcceptableEntry(verdict.QuotePrice, move.ChangePct, m.config.MinProfitPct, m.config.TransferCoefficient)
		req.LimitPrice = &maxBid
	}

	fill, err := m.venue.PlaceOrder(ctx, req)
	if err != nil {
		// Missed opportunity, not a fault; release the slot.
		m.release(pos)
		EntriesTotal.WithLabelValues("rejected").Inc()

		var rejected *types.OrderRejectedError
		if errors.As(err, &rejected) {
			m.logger.Warn("entry-rejected",
				zap.String("entity-id", entity.ID),
				zap.String("token-id", verdict.TokenID),
				zap.String("code", rejected.Code),
				zap.String("message", rejected.Message))
		} else {
			m.logger.Error("entry-failed",
				zap.String("entity-id", entity.ID),
				zap.Error(err))
		}
		return nil, err
	}

	m.mu.Lock()
	pos.State = types.StateOpen
	pos.EntryPrice = fill.Price
	pos.EntrySize = fill.Size
	pos.EntryTime = fill.Time
	m.mu.Unlock()

	EntriesTotal.WithLabelValues("filled").Inc()

	m.logger.Info("position-opened",
		zap.String("position-id", pos.ID),
		zap.String("entity-id", entity.ID),
		zap.String("slug", entity.Slug),
		zap.String("outcome", pos.Outcome),
		zap.Float64("entry-price", fill.Price),
		zap.Float64("size", fill.Size),
		zap.String("symbol", move.Symbol),
		zap.Float64("move-pct", move.ChangePct))

	return pos, nil
}

// entrySize is the smaller of the notional cap and the liquidity-bounded
// size. Opportunities below the minimum tradable unit are skipped, never
// rounded up.
func (m *Manager) entrySize(entity *types.Entity, price float64) float64 {
	if price <= 0 {
		return 0
	}

	size := m.config.MaxNotional / price
	if liquidityBound := entity.Liquidity * m.config.LiquidityFraction; liquidityBound < size {
		size = liquidityBound
	}

	return size
}

// OnQuote runs the early-exit check for the position holding this token, if
// any. Fires once profit reaches the early-exit threshold after the minimum
// hold floor, so a single noisy tick right after entry cannot trigger it.
func (m *Manager) OnQuote(ctx context.Context, quote *types.QuoteState) {
	m.mu.Lock()

	entityID, ok := m.byToken[quote.TokenID]
	if !ok {
		m.mu.Unlock()
		return
	}

	pos, ok := m.active[entityID]
	if !ok || pos.State != types.StateOpen {
		m.mu.Unlock()
		return
	}

	elapsed := time.Since(pos.EntryTime)
	profitPct := changePct(pos.EntryPrice, quote.LastPrice)

	if elapsed < m.config.MinHold || profitPct < m.config.EarlyExitPct {
		m.mu.Unlock()
		return
	}

	pos.State = types.StateExiting
	m.mu.Unlock()

	m.logger.Info("early-exit-triggered",
		zap.String("position-id", pos.ID),
		zap.String("entity-id", entityID),
		zap.Float64("profit-pct", profitPct),
		zap.Duration("elapsed", elapsed))

	m.exit(ctx, pos, quote.LastPrice, types.ExitProfit)
}

// Tick runs the deadline check across open positions. A position past its
// hold deadline exits only if profit clears the minimum exit threshold;
// otherwise it stays open and is re-checked next tick.
func (m *Manager) Tick(ctx context.Context, now time.Time) {
	type due struct {
		pos   *types.Position
		price float64
	}

	var exits []due

	m.mu.Lock()
	for _, pos := range m.active {
		if pos.State != types.StateOpen || now.Sub(pos.EntryTime) < m.config.HoldDuration {
			continue
		}

		quote, ok := m.quotes.Quote(pos.TokenID)
		if !ok {
			continue
		}

		profitPct := changePct(pos.EntryPrice, quote.LastPrice)
		if profitPct < m.config.MinExitProfitPct {
			m.logger.Debug("deadline-check-holding",
				zap.String("position-id", pos.ID),
				zap.Float64("profit-pct", profitPct),
				zap.Float64("min-exit-profit-pct", m.config.MinExitProfitPct))
			continue
		}

		pos.State = types.StateExiting
		exits = append(exits, due{pos: pos, price: quote.LastPrice})
	}
	m.mu.Unlock()

	for _, e := range exits {
		m.exit(ctx, e.pos, e.price, types.ExitTimeout)
	}
}

// CloseAll force-exits every open position at the current quote. Used on
// shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	type due struct {
		pos   *types.Position
		price float64
	}

	var exits []due

	m.mu.Lock()
	for _, pos := range m.active {
		if pos.State != types.StateOpen {
			continue
		}

		quote, ok := m.quotes.Quote(pos.TokenID)
		if !ok {
			m.logger.Warn("force-close-no-quote",
				zap.String("position-id", pos.ID),
				zap.String("token-id", pos.TokenID))
			continue
		}

		pos.State = types.StateExiting
		exits = append(exits, due{pos: pos, price: quote.LastPrice})
	}
	m.mu.Unlock()

	for _, e := range exits {
		m.exit(ctx, e.pos, e.price, types.ExitForced)
	}
}

// exit sells the position and finalizes the close. The caller must have moved
// the position to Exiting under the lock; a failed sell reverts it to Open so
// the next qualifying event retries.
func (m *Manager) exit(ctx context.Context, pos *types.Position, price float64, reason types.ExitReason) {
	fill, err := m.venue.PlaceOrder(ctx, execution.OrderRequest{
		TokenID:    pos.TokenID,
		Side:       execution.Sell,
		QuotePrice: price,
		Size:       pos.EntrySize,
	})
	if err != nil {
		m.logger.Error("exit-order-failed",
			zap.String("position-id", pos.ID),
			zap.String("reason", string(reason)),
			zap.Error(err))

		m.mu.Lock()
		if pos.State == types.StateExiting {
			pos.State = types.StateOpen
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	// Idempotent close: only the transition out of Exiting finalizes.
	if pos.State != types.StateExiting {
		m.mu.Unlock()
		return
	}
	pos.State = types.StateClosed
	pos.ExitPrice = fill.Price
	pos.ExitTime = fill.Time
	pos.ExitReason = reason

	delete(m.active, pos.EntityID)
	delete(m.byToken, pos.TokenID)
	m.lastClosed[pos.EntityID] = fill.Time
	PositionsOpen.Set(float64(len(m.active)))
	m.mu.Unlock()

	ExitsTotal.WithLabelValues(string(reason)).Inc()
	ProfitPctHist.Observe(pos.ProfitPct())
	HoldDurationSeconds.Observe(pos.ExitTime.Sub(pos.EntryTime).Seconds())

	m.logger.Info("position-closed",
		zap.String("position-id", pos.ID),
		zap.String("entity-id", pos.EntityID),
		zap.String("reason", string(reason)),
		zap.Float64("entry-price", pos.EntryPrice),
		zap.Float64("exit-price", pos.ExitPrice),
		zap.Float64("profit-pct", pos.ProfitPct()),
		zap.Float64("profit-abs", pos.ProfitAbs()))

	m.record(ctx, pos)
}

// record sends the audit event to the sink. Failures are logged, never
// propagated.
func (m *Manager) record(ctx context.Context, pos *types.Position) {
	if m.recorder == nil {
		return
	}

	event := &types.PositionClosedEvent{
		PositionID: pos.ID,
		EntityID:   pos.EntityID,
		EntitySlug: pos.EntitySlug,
		TokenID:    pos.TokenID,
		Outcome:    pos.Outcome,
		EntryPrice: pos.EntryPrice,
		EntrySize:  pos.EntrySize,
		EntryTime:  pos.EntryTime,
		ExitPrice:  pos.ExitPrice,
		ExitTime:   pos.ExitTime,
		ExitReason: pos.ExitReason,
		ProfitPct:  pos.ProfitPct(),
		ProfitAbs:  pos.ProfitAbs(),
		MoveSymbol: pos.MoveSymbol,
		MovePct:    pos.MovePct,
	}

	if err := m.recorder.Record(ctx, event); err != nil {
		m.logger.Error("record-position-closed-failed",
			zap.String("position-id", pos.ID),
			zap.Error(err))
	}
}

// release removes a reserved slot after a failed entry.
func (m *Manager) release(pos *types.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.active, pos.EntityID)
	delete(m.byToken, pos.TokenID)
	PositionsOpen.Set(float64(len(m.active)))
}

// ActivePositions returns a snapshot of live positions.
func (m *Manager) ActivePositions() []types.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	positions := make([]types.Position, 0, len(m.active))
	for _, pos := range m.active {
		positions = append(positions, *pos)
	}

	return positions
}

// changePct returns the percent change from entry to current.
func changePct(entry, current float64) float64 {
	if entry <= 0 {
		return 0
	}
	return (current - entry) / entry * 100
}

package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/polymarket-lag/internal/lag"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.Strings("symbols", a.cfg.ReferenceSymbols),
		zap.Float64("move-threshold-pct", a.cfg.MoveThresholdPct),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.PolymarketWSURL))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)
	a.healthChecker.SetReady(componentHTTP, true)

	// Start registry polling
	a.wg.Add(1)
	go a.runRegistry()
	a.healthChecker.SetReady(componentRegistry, true)

	// Start market-side WebSocket manager
	err := a.wsManager.Start()
	if err != nil {
		return fmt.Errorf("start websocket manager: %w", err)
	}
	a.healthChecker.SetReady(componentWS, true)

	// Start quote manager
	err = a.quoteManager.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start quote manager: %w", err)
	}
	a.healthChecker.SetReady(componentFeed, true)

	// Start reference stream
	err = a.referenceStream.Start()
	if err != nil {
		return fmt.Errorf("start reference stream: %w", err)
	}
	a.healthChecker.SetReady(componentReference, true)

	// Start circuit breaker monitoring
	if a.breaker != nil {
		a.breaker.Start(a.ctx)
	}

	// Event loops
	a.wg.Add(3)
	go a.handleEntityEvents()
	go a.handleMoves()
	go a.handleQuoteUpdates()

	a.wg.Add(1)
	go a.runTickLoop()

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runRegistry() {
	defer a.wg.Done()
	err := a.registryService.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("registry-service-error", zap.Error(err))
	}
}

// handleMoves evaluates every tracked entity of the moved symbol and opens a
// position on each lag verdict. Entries are sequential on purpose: the
// admission check serializes on the manager mutex anyway, and a single move
// rarely matches more than a handful of entities.
func (a *App) handleMoves() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case move, ok := <-a.referenceStream.MoveChan():
			if !ok {
				return
			}

			a.evaluateMove(move)
		}
	}
}

func (a *App) evaluateMove(move *types.MoveEvent) {
	for _, entity := range a.registryService.Entities() {
		if entity.MatchedSymbol != move.Symbol {
			continue
		}

		outcome := a.detector.ChooseOutcome(entity, move.Direction)
		tokenID := entity.TokenForOutcome(outcome)

		var quote *types.QuoteState
		if q, ok := a.quoteManager.Quote(tokenID); ok {
			quote = &q
		}

		verdict := a.detector.Evaluate(entity, move, quote, time.Now())
		if verdict.Kind != lag.LagDetected {
			continue
		}

		pos, err := a.positionManager.TryEnter(a.ctx, entity, verdict, move)
		if err != nil {
			if errors.Is(err, types.ErrPositionExists) || errors.Is(err, types.ErrEntriesHalted) {
				a.logger.Debug("entry-skipped",
					zap.String("entity-id", entity.ID),
					zap.Error(err))
				continue
			}
			a.logger.Error("entry-failed",
				zap.String("entity-id", entity.ID),
				zap.String("slug", entity.Slug),
				zap.Error(err))
			continue
		}
		if pos == nil {
			continue
		}

		if a.breaker != nil {
			a.breaker.RecordEntry(pos.EntryPrice * pos.EntrySize)
		}
	}
}

// handleQuoteUpdates drives the early-exit path: every quote update is
// offered to the position manager, which ignores tokens without an open
// position.
func (a *App) handleQuoteUpdates() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case quote, ok := <-a.quoteManager.UpdateChan():
			if !ok {
				return
			}

			a.positionManager.OnQuote(a.ctx, quote)
		}
	}
}

// runTickLoop drives the deadline-exit path at a fixed cadence.
func (a *App) runTickLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.PositionTickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case now := <-ticker.C:
			a.positionManager.Tick(a.ctx, now)
		}
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}

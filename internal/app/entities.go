package app

import (
	"github.com/mselser95/polymarket-lag/internal/registry"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// handleEntityEvents keeps the quote feed aligned with the registry: added
// entities get tracked and subscribed, removed ones get unsubscribed. An open
// position on a removed entity is left alone; the tick loop still closes it
// at the deadline using the last known quote.
func (a *App) handleEntityEvents() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case event, ok := <-a.registryService.Events():
			if !ok {
				return
			}

			switch event.Type {
			case registry.EntityAdded:
				a.subscribeEntity(event.Entity)
			case registry.EntityRemoved:
				a.unsubscribeEntity(event.Entity)
			}
		}
	}
}

func (a *App) subscribeEntity(entity *types.Entity) {
	if entity.YesTokenID == "" || entity.NoTokenID == "" {
		a.logger.Warn("entity-missing-tokens",
			zap.String("entity-id", entity.ID),
			zap.String("slug", entity.Slug))
		return
	}

	// Track before subscribing so the first message is not dropped as
	// unregistered.
	a.quoteManager.Track(entity)

	err := a.wsManager.Subscribe(a.ctx, []string{entity.YesTokenID, entity.NoTokenID})
	if err != nil {
		a.quoteManager.Untrack(entity)
		a.logger.Error("subscribe-failed",
			zap.String("entity-id", entity.ID),
			zap.String("slug", entity.Slug),
			zap.Error(err))
		return
	}

	a.logger.Info("subscribed-to-entity",
		zap.String("slug", entity.Slug),
		zap.String("symbol", entity.MatchedSymbol),
		zap.String("title", entity.Title))
}

func (a *App) unsubscribeEntity(entity *types.Entity) {
	err := a.wsManager.Unsubscribe(a.ctx, []string{entity.YesTokenID, entity.NoTokenID})
	if err != nil {
		a.logger.Warn("unsubscribe-failed",
			zap.String("entity-id", entity.ID),
			zap.Error(err))
	}

	a.quoteManager.Untrack(entity)

	a.logger.Info("unsubscribed-from-entity",
		zap.String("slug", entity.Slug),
		zap.String("symbol", entity.MatchedSymbol))
}

package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. Open positions are
// force-closed before anything they depend on goes away.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	for _, component := range []string{
		componentHTTP, componentRegistry, componentReference, componentFeed, componentWS,
	} {
		a.healthChecker.SetReady(component, false)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Close positions while the venue is still up. Uses a fresh context
	// because a.ctx is about to be cancelled.
	a.positionManager.CloseAll(shutdownCtx)

	// Cancel context to signal all event loops
	a.cancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	err = a.referenceStream.Close()
	if err != nil {
		a.logger.Error("reference-stream-close-error", zap.Error(err))
	}

	err = a.wsManager.Close()
	if err != nil {
		a.logger.Error("websocket-manager-close-error", zap.Error(err))
	}

	err = a.quoteManager.Close()
	if err != nil {
		a.logger.Error("quote-manager-close-error", zap.Error(err))
	}

	err = a.venue.Close()
	if err != nil {
		a.logger.Error("venue-close-error", zap.Error(err))
	}

	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	// Wait for all goroutines
	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}

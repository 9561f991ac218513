package app

import (
	"context"
	"sync"

	"github.com/mselser95/polymarket-lag/internal/circuitbreaker"
	"github.com/mselser95/polymarket-lag/internal/execution"
	"github.com/mselser95/polymarket-lag/internal/lag"
	"github.com/mselser95/polymarket-lag/internal/marketfeed"
	"github.com/mselser95/polymarket-lag/internal/position"
	"github.com/mselser95/polymarket-lag/internal/reference"
	"github.com/mselser95/polymarket-lag/internal/registry"
	"github.com/mselser95/polymarket-lag/internal/storage"
	"github.com/mselser95/polymarket-lag/pkg/config"
	"github.com/mselser95/polymarket-lag/pkg/healthprobe"
	"github.com/mselser95/polymarket-lag/pkg/httpserver"
	"github.com/mselser95/polymarket-lag/pkg/websocket"
	"go.uber.org/zap"
)

// Readiness component names reported through the health probe.
const (
	componentHTTP      = "http"
	componentRegistry  = "registry"
	componentReference = "reference-stream"
	componentFeed      = "market-feed"
	componentWS        = "websocket"
)

// App is the main application orchestrator. It owns every component and the
// event loops that connect them: reference moves feed the detector, detector
// verdicts feed the position manager, and quote updates drive exits.
type App struct {
	cfg             *config.Config
	logger          *zap.Logger
	healthChecker   *healthprobe.HealthChecker
	httpServer      *httpserver.Server
	registryService *registry.Service
	wsManager       *websocket.Manager
	quoteManager    *marketfeed.Manager
	referenceStream *reference.Stream
	detector        *lag.Detector
	positionManager *position.Manager
	venue           execution.Venue
	breaker         *circuitbreaker.Breaker
	storage         storage.Storage
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

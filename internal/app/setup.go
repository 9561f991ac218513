package app

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/polymarket-lag/internal/circuitbreaker"
	"github.com/mselser95/polymarket-lag/internal/execution"
	"github.com/mselser95/polymarket-lag/internal/lag"
	"github.com/mselser95/polymarket-lag/internal/marketfeed"
	"github.com/mselser95/polymarket-lag/internal/markets"
	"github.com/mselser95/polymarket-lag/internal/position"
	"github.com/mselser95/polymarket-lag/internal/reference"
	"github.com/mselser95/polymarket-lag/internal/registry"
	"github.com/mselser95/polymarket-lag/internal/storage"
	"github.com/mselser95/polymarket-lag/pkg/cache"
	"github.com/mselser95/polymarket-lag/pkg/config"
	"github.com/mselser95/polymarket-lag/pkg/healthprobe"
	"github.com/mselser95/polymarket-lag/pkg/httpserver"
	"github.com/mselser95/polymarket-lag/pkg/wallet"
	"github.com/mselser95/polymarket-lag/pkg/websocket"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New(
		componentHTTP,
		componentRegistry,
		componentReference,
		componentFeed,
		componentWS,
	)

	entityCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	registryService := setupRegistry(cfg, logger, entityCache)
	wsManager := setupWebSocketManager(cfg, logger)
	quoteManager := setupQuoteManager(cfg, logger, wsManager)
	referenceStream := setupReferenceStream(cfg, logger)
	detector := setupDetector(cfg, logger)

	eventStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	venue, err := setupVenue(cfg, logger, entityCache)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup venue: %w", err)
	}

	breaker, err := setupBreaker(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup circuit breaker: %w", err)
	}

	positionManager := setupPositionManager(cfg, logger, venue, quoteManager, breaker, eventStorage)

	httpServer := setupHTTPServer(cfg, logger, healthChecker, positionManager, quoteManager, registryService, breaker)

	return &App{
		cfg:             cfg,
		logger:          logger,
		healthChecker:   healthChecker,
		httpServer:      httpServer,
		registryService: registryService,
		wsManager:       wsManager,
		quoteManager:    quoteManager,
		referenceStream: referenceStream,
		detector:        detector,
		positionManager: positionManager,
		venue:           venue,
		breaker:         breaker,
		storage:         eventStorage,
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupRegistry(cfg *config.Config, logger *zap.Logger, entityCache cache.Cache) *registry.Service {
	registryClient := registry.NewClient(cfg.PolymarketGammaURL, logger)
	return registry.New(&registry.Config{
		Client:       registryClient,
		Matcher:      registry.NewMatcher(cfg.ReferenceSymbols),
		Cache:        entityCache,
		PollInterval: cfg.RegistryPollInterval,
		MaxEntities:  cfg.RegistryMaxEntities,
		MinLiquidity: cfg.RegistryMinLiquidity,
		Logger:       logger,
	})
}

func setupWebSocketManager(cfg *config.Config, logger *zap.Logger) *websocket.Manager {
	return websocket.New(websocket.Config{
		URL:                   cfg.PolymarketWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})
}

func setupQuoteManager(cfg *config.Config, logger *zap.Logger, wsManager *websocket.Manager) *marketfeed.Manager {
	return marketfeed.New(&marketfeed.Config{
		Logger:         logger,
		MessageChannel: wsManager.MessageChan(),
		UpdateBuffer:   cfg.WSMessageBufferSize,
	})
}

func setupReferenceStream(cfg *config.Config, logger *zap.Logger) *reference.Stream {
	return reference.NewStream(reference.StreamConfig{
		WSBaseURL:             cfg.BinanceWSURL,
		Symbols:               cfg.ReferenceSymbols,
		Window:                cfg.DetectionWindow,
		ThresholdPct:          cfg.MoveThresholdPct,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		Logger:                logger,
	})
}

func setupDetector(cfg *config.Config, logger *zap.Logger) *lag.Detector {
	return lag.New(lag.Config{
		MoveThresholdPct:    cfg.MoveThresholdPct,
		MinLag:              cfg.MinLag,
		TransferCoefficient: cfg.TransferCoefficient,
		QuoteStaleness:      cfg.QuoteStaleness,
		DefaultBias:         lag.Bias(cfg.DefaultBias),
		Logger:              logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupVenue(cfg *config.Config, logger *zap.Logger, entityCache cache.Cache) (execution.Venue, error) {
	if cfg.ExecutionMode != "live" {
		logger.Info("paper-venue-enabled",
			zap.String("mode", cfg.ExecutionMode),
			zap.String("note", "orders are simulated, nothing reaches the exchange"))
		return execution.NewPaperVenue(logger), nil
	}

	privateKey := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKey == "" {
		return nil, fmt.Errorf("EXECUTION_MODE=live requires POLYMARKET_PRIVATE_KEY")
	}

	address, err := addressFromPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}

	metadataClient := markets.NewMetadataClient(cfg.PolymarketCLOBURL)
	cachedMetadata := markets.NewCachedMetadataClient(metadataClient, entityCache)

	venue, err := execution.NewClobVenue(&execution.ClobConfig{
		BaseURL:    cfg.PolymarketCLOBURL,
		APIKey:     cfg.PolymarketAPIKey,
		Secret:     cfg.PolymarketSecret,
		Passphrase: cfg.PolymarketPassphrase,
		PrivateKey: privateKey,
		Address:    address.Hex(),
		Metadata:   cachedMetadata,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create clob venue: %w", err)
	}

	logger.Info("live-venue-enabled", zap.String("address", address.Hex()))

	return venue, nil
}

func setupBreaker(cfg *config.Config, logger *zap.Logger) (*circuitbreaker.Breaker, error) {
	if !cfg.CircuitBreakerEnabled {
		return nil, nil
	}

	privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKeyHex == "" {
		logger.Warn("circuit-breaker-disabled-no-private-key",
			zap.String("note", "POLYMARKET_PRIVATE_KEY not set, entries will not be gated"))
		return nil, nil
	}

	address, err := addressFromPrivateKey(privateKeyHex)
	if err != nil {
		logger.Warn("circuit-breaker-disabled-invalid-key", zap.Error(err))
		return nil, nil
	}

	rpcURL := os.Getenv("POLYGON_RPC_URL")
	if rpcURL == "" {
		rpcURL = "https://polygon-rpc.com"
	}

	walletClient, err := wallet.NewClient(rpcURL, logger)
	if err != nil {
		logger.Warn("circuit-breaker-disabled-wallet-client-failed", zap.Error(err))
		return nil, nil
	}

	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		CheckInterval:   cfg.CircuitBreakerCheckInterval,
		EntryMultiplier: cfg.CircuitBreakerTradeMultiplier,
		MinCollateral:   cfg.CircuitBreakerMinAbsolute,
		HysteresisRatio: cfg.CircuitBreakerHysteresisRatio,
		Fetcher:         walletClient,
		Address:         address,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create circuit breaker: %w", err)
	}

	logger.Info("circuit-breaker-enabled",
		zap.Duration("check-interval", cfg.CircuitBreakerCheckInterval),
		zap.Float64("entry-multiplier", cfg.CircuitBreakerTradeMultiplier),
		zap.Float64("min-collateral", cfg.CircuitBreakerMinAbsolute),
		zap.Float64("hysteresis-ratio", cfg.CircuitBreakerHysteresisRatio))

	return breaker, nil
}

func setupPositionManager(
	cfg *config.Config,
	logger *zap.Logger,
	venue execution.Venue,
	quoteManager *marketfeed.Manager,
	breaker *circuitbreaker.Breaker,
	eventStorage storage.Storage,
) *position.Manager {
	// A nil *Breaker must stay a nil interface or the gate check would
	// dereference it.
	var gate position.EntryGate
	if breaker != nil {
		gate = breaker
	}

	return position.New(position.Config{
		MaxNotional:         cfg.MaxNotional,
		LiquidityFraction:   cfg.LiquidityFraction,
		MinTradeSize:        cfg.MinTradeSize,
		ExecutionPolicy:     cfg.ExecutionPolicy,
		MinProfitPct:        cfg.MinProfitPct,
		TransferCoefficient: cfg.TransferCoefficient,
		HoldDuration:        cfg.HoldDuration,
		MinHold:             cfg.MinHold,
		EarlyExitPct:        cfg.EarlyExitPct,
		MinExitProfitPct:    cfg.MinExitProfitPct,
		Cooldown:            cfg.Cooldown,
		Logger:              logger,
	}, venue, quoteManager, gate, eventStorage)
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	positionManager *position.Manager,
	quoteManager *marketfeed.Manager,
	registryService *registry.Service,
	breaker *circuitbreaker.Breaker,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:            cfg.HTTPPort,
		Logger:          logger,
		HealthChecker:   healthChecker,
		PositionManager: positionManager,
		QuoteManager:    quoteManager,
		Registry:        registryService,
		Breaker:         breaker,
	})
}

func addressFromPrivateKey(privateKeyHex string) (common.Address, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected public key type")
	}

	return crypto.PubkeyToAddress(*publicKey), nil
}

// Package httpserver exposes metrics, health probes, and a small read-only
// API over the engine's live state.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mselser95/polymarket-lag/internal/circuitbreaker"
	"github.com/mselser95/polymarket-lag/internal/marketfeed"
	"github.com/mselser95/polymarket-lag/internal/position"
	"github.com/mselser95/polymarket-lag/internal/registry"
	"github.com/mselser95/polymarket-lag/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for metrics, health checks, and state.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration. The state components are optional;
// their routes are only mounted when provided.
type Config struct {
	Port            string
	Logger          *zap.Logger
	HealthChecker   *healthprobe.HealthChecker
	PositionManager *position.Manager
	QuoteManager    *marketfeed.Manager
	Registry        *registry.Service
	Breaker         *circuitbreaker.Breaker
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	handler := newStateHandler(cfg)
	if cfg.PositionManager != nil {
		r.Get("/api/positions", handler.handlePositions)
	}
	if cfg.QuoteManager != nil {
		r.Get("/api/quotes", handler.handleQuotes)
	}
	if cfg.Registry != nil {
		r.Get("/api/entities", handler.handleEntities)
	}
	if cfg.Breaker != nil {
		r.Get("/api/breaker", handler.handleBreaker)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}

// Package server exposes the journal over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
	"github.com/marcwinn/traderhub/internal/server/handler"
	"github.com/marcwinn/traderhub/internal/server/middleware"
)

// Per-client API rate limit, applied only when a limiter is configured.
const (
	apiRateLimit  = 120
	apiRateWindow = time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIToken    string             // if empty, authentication is disabled
	Limiter     domain.RateLimiter // if nil, per-client limiting is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Exports may be nil when blob storage is disabled.
type Handlers struct {
	Health    *handler.HealthHandler
	Trades    *handler.TradeHandler
	Imports   *handler.ImportHandler
	Analytics *handler.AnalyticsHandler
	Exports   *handler.ExportHandler
}

// Server is the headless HTTP API server for the trade journal.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth).
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Trade endpoints.
	mux.HandleFunc("GET /api/trades", handlers.Trades.ListTrades)
	mux.HandleFunc("POST /api/trades", handlers.Trades.CreateTrade)
	mux.HandleFunc("GET /api/trades/{id}", handlers.Trades.GetTrade)
	mux.HandleFunc("PATCH /api/trades/{id}", handlers.Trades.UpdateTrade)
	mux.HandleFunc("DELETE /api/trades/{id}", handlers.Trades.DeleteTrade)

	// Ingestion endpoints.
	mux.HandleFunc("POST /api/imports", handlers.Imports.ImportCSV)
	mux.HandleFunc("GET /api/imports", handlers.Imports.ListImports)
	mux.HandleFunc("GET /api/imports/{id}/file", handlers.Imports.DownloadImport)
	mux.HandleFunc("POST /api/sync", handlers.Imports.SyncAll)
	mux.HandleFunc("POST /api/sync/{broker}", handlers.Imports.SyncBroker)

	// Analytics endpoints.
	mux.HandleFunc("GET /api/analytics/performance", handlers.Analytics.Performance)
	mux.HandleFunc("GET /api/analytics/strategies", handlers.Analytics.Strategies)
	mux.HandleFunc("GET /api/analytics/strategies/{name}", handlers.Analytics.Strategy)
	mux.HandleFunc("GET /api/analytics/pnl", handlers.Analytics.RunningPnl)
	mux.HandleFunc("GET /api/analytics/daily", handlers.Analytics.DailyPnl)
	mux.HandleFunc("GET /api/analytics/weekly", handlers.Analytics.WeeklyPnl)

	// Snapshot exports, available only when blob storage is configured.
	if handlers.Exports != nil {
		mux.HandleFunc("POST /api/exports", handlers.Exports.Export)
		mux.HandleFunc("GET /api/exports", handlers.Exports.ListExports)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIToken is empty).
	h = middleware.Auth(cfg.APIToken)(h)

	// Apply per-client rate limiting when a limiter is configured.
	if cfg.Limiter != nil {
		h = middleware.RateLimit(cfg.Limiter, apiRateLimit, apiRateWindow)(h)
	}

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

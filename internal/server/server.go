// Package server provides the HTTP server of the integrations API. It
// serves the template repository and the instance store of a
// manager.Manager under a configurable path prefix, with a response cache
// that is flushed on writes and on changes to a watched filesystem catalog.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/integrations/internal/server/cache"
	"github.com/agentstation/integrations/internal/server/handlers"
	"github.com/agentstation/integrations/internal/server/metrics"
	"github.com/agentstation/integrations/internal/server/middleware"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/manager"
)

// Server is the integrations HTTP server.
type Server struct {
	config   Config
	manager  *manager.Manager
	cache    *cache.Cache
	metrics  *metrics.Metrics
	limiter  *middleware.RateLimiter
	handlers *handlers.Handlers
	logger   *zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	httpSrv *http.Server
}

// New creates a server over m. It does not listen until ListenAndServe.
func New(m *manager.Manager, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if m == nil {
		return nil, errors.NewConfigError("server", "manager is required", nil)
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultConfig().PathPrefix
	}
	if cfg.AuthEnabled && cfg.APIKey == "" {
		return nil, errors.NewConfigError("server", "auth is enabled but no API key is configured", nil)
	}

	s := &Server{
		config:  cfg,
		manager: m,
		cache:   cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		metrics: metrics.New(),
		logger:  logger,
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}
	s.handlers = handlers.New(m, s.cache, s.metrics, logger)
	return s, nil
}

// Start starts background services: the catalog watcher when WatchPath is
// set. They stop on Shutdown or when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if s.config.WatchPath == "" {
		return nil
	}
	w, err := newCatalogWatcher(s.config.WatchPath, s.onCatalogChange, s.logger)
	if err != nil {
		cancel()
		return err
	}
	go w.run(ctx)
	s.logger.Info().Str("path", s.config.WatchPath).Msg("Watching catalog for changes")
	return nil
}

func (s *Server) onCatalogChange() {
	s.cache.Invalidate()
	s.metrics.CacheInvalidations.WithLabelValues("catalog_change").Inc()
	s.logger.Info().Str("path", s.config.WatchPath).Msg("Catalog changed, response cache flushed")
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// ListenAndServe starts background services and serves HTTP until ctx is
// done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("prefix", s.config.PathPrefix).Msg("Starting integrations API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.NewIOError("listen", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the HTTP listener and background services.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down integrations API server")

	s.mu.Lock()
	srv, cancel := s.httpSrv, s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return errors.NewIOError("shutdown", srv.Addr, err)
	}
	return nil
}

// Cache returns the response cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Package server exposes the ordering pipeline over HTTP and enforces
// single-instance execution via a lock file.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ordervox/internal/config"
	"ordervox/internal/logging"
	"ordervox/internal/metrics"
	"ordervox/internal/pipeline"
	"ordervox/internal/transcache"
	"ordervox/internal/usage"
)

// maxAudioBytes bounds the request body for order uploads.
const maxAudioBytes = 25 << 20

// Server hosts the voice-order API.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	tracker  *usage.Tracker
	cache    *transcache.Cache
	metrics  *metrics.Metrics

	lockPath string
	lock     *flock.Flock

	listener net.Listener
	server   *http.Server
}

// New constructs a server with initialized dependencies.
func New(cfg *config.Config, p *pipeline.Pipeline, tracker *usage.Tracker, cache *transcache.Cache, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	if cfg == nil || p == nil || tracker == nil || cache == nil || m == nil {
		return nil, errors.New("server requires config, pipeline, tracker, cache, and metrics")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "ordervox.lock")
	srv := &Server{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "server"),
		pipeline: p,
		tracker:  tracker,
		cache:    cache,
		metrics:  m,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/orders", srv.handleOrders)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start acquires the instance lock and begins serving on the
// configured bind address.
func (s *Server) Start(ctx context.Context) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ordervox instance is already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("ordervox api started",
		logging.String("bind", listener.Addr().String()),
		logging.String("lock", s.lockPath))
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully and releases the lock.
func (s *Server) Stop(ctx context.Context) {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("api shutdown incomplete", logging.Error(err))
		}
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	s.logger.Info("ordervox api stopped")
}

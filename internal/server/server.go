// Package server provides the read-only HTTP API over a discovered engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/featrans/internal/config"
	"github.com/hyperjump/featrans/internal/engine"
	"github.com/hyperjump/featrans/internal/storage"
)

// Server is the HTTP server for the featrans API.
type Server struct {
	// mu serialises engine access; transform mutates the memo caches.
	mu       sync.Mutex
	engine   *engine.Engine
	snapshot *storage.SnapshotInfo // optional; reported by status
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server over eng, which must already be configured and discovered.
// snapshot may be nil when the engine was not loaded from the catalogue.
func NewServer(
	eng *engine.Engine,
	snapshot *storage.SnapshotInfo,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   eng,
		snapshot: snapshot,
		config:   cfg,
		logger:   logger,
	}
}

// SetEngine replaces the served engine, e.g. after its snapshot file changed.
// In-flight requests finish on the previous engine.
func (s *Server) SetEngine(eng *engine.Engine, snapshot *storage.SnapshotInfo) {
	s.mu.Lock()
	s.engine = eng
	s.snapshot = snapshot
	s.mu.Unlock()
	s.logger.Info("engine reloaded")
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/transform", s.handleTransform)
	r.Get("/api/v1/features/{index}", s.handleFeatureName)
	r.Get("/api/v1/summary", s.handleSummary)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

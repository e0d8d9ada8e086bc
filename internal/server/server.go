// Package server provides the HTTP API for Kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/ingest"
	"github.com/hyperjump/kotae/internal/manifest"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/hyperjump/kotae/internal/vespa"
)

// Server is the HTTP server for the Kotae API.
type Server struct {
	engine   *chat.Engine
	pipeline *ingest.Pipeline
	store    vespa.Store
	sessions *session.Store
	manifest *manifest.Manifest
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. manifest may be nil
// when file tracking is disabled.
func NewServer(
	engine *chat.Engine,
	pipeline *ingest.Pipeline,
	store vespa.Store,
	sessions *session.Store,
	m *manifest.Manifest,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   engine,
		pipeline: pipeline,
		store:    store,
		sessions: sessions,
		manifest: m,
		config:   cfg,
		logger:   logger,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/chat", s.handleChat)
	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Post("/api/v1/files", s.handleIngestFile)
	r.Delete("/api/v1/sessions/{id}", s.handleRemoveSession)
	r.Post("/api/v1/admin/purge", s.handlePurge)
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

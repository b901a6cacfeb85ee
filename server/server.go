// Package server exposes the analytics core over HTTP: session lifecycle,
// filter management, metric views, and the chat surface in both
// request/response and WebSocket streaming forms.
//
// Handlers hold no state of their own. Dataset and engine are process-wide
// and immutable; everything mutable lives in the session manager, so two
// requests for different sessions never contend.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feriadolabs/feriado/classify"
	"github.com/feriadolabs/feriado/dataset"
	"github.com/feriadolabs/feriado/filter"
	"github.com/feriadolabs/feriado/observability"
	"github.com/feriadolabs/feriado/session"
	"github.com/feriadolabs/feriado/workflow"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ShutdownGrace time.Duration
}

// DefaultConfig returns the default listener settings.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  60 * time.Second,
		ShutdownGrace: 10 * time.Second,
	}
}

// Deps carries the wired collaborators. Recorder is optional; the rest are
// required.
type Deps struct {
	Store      *dataset.Store
	Engine     *filter.Engine
	Classifier *classify.Classifier
	Responders map[workflow.Stage]workflow.Responder
	Sessions   *session.Manager
	Logger     *slog.Logger
	Recorder   *observability.Recorder
}

// Server is the HTTP front of the service.
type Server struct {
	config     Config
	store      *dataset.Store
	engine     *filter.Engine
	classifier *classify.Classifier
	responders map[workflow.Stage]workflow.Responder
	sessions   *session.Manager
	logger     *slog.Logger
	recorder   *observability.Recorder

	mux        *http.ServeMux
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New builds a Server and registers its routes.
func New(config Config, deps Deps) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Engine == nil:
		return nil, errors.New("filter engine is required")
	case deps.Classifier == nil:
		return nil, errors.New("classifier is required")
	case len(deps.Responders) == 0:
		return nil, errors.New("at least one responder is required")
	case deps.Sessions == nil:
		return nil, errors.New("session manager is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultConfig().Addr
	}
	if config.ShutdownGrace <= 0 {
		config.ShutdownGrace = DefaultConfig().ShutdownGrace
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:     config,
		store:      deps.Store,
		engine:     deps.Engine,
		classifier: deps.Classifier,
		responders: deps.Responders,
		sessions:   deps.Sessions,
		logger:     logger,
		recorder:   deps.Recorder,
		mux:        http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The API serves programmatic clients, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.routes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("PUT /api/sessions/{id}/filters", s.handlePutFilters)
	s.mux.HandleFunc("GET /api/sessions/{id}/view", s.handleView)
	s.mux.HandleFunc("GET /api/sessions/{id}/metrics/extended", s.handleExtendedMetrics)
	s.mux.HandleFunc("GET /api/sessions/{id}/history", s.handleHistory)
	s.mux.HandleFunc("POST /api/sessions/{id}/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/sessions/{id}/chat/ws", s.handleChatWS)
}

// Handler returns the route multiplexer, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured grace period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "grace", s.config.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

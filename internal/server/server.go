// Package server provides the HTTP/SSE transport for the codeassist API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/codeassist-ai/codeassist/internal/chat"
	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/fileio"
	"github.com/codeassist-ai/codeassist/internal/generate"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/prompt"
	"github.com/codeassist-ai/codeassist/internal/session"
	"github.com/codeassist-ai/codeassist/pkg/types"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no write timeout: SSE connections stay open
	}
}

// Server is the HTTP server.
type Server struct {
	config       *Config
	router       *chi.Mux
	httpSrv      *http.Server
	appConfig    *types.Config
	store        *session.Store
	models       *model.Manager
	orchestrator *chat.Orchestrator
	bus          *event.Bus
	uploads      *fileio.UploadStore
}

// New creates a server wired to the given store, model manager, and bus.
func New(cfg *Config, appConfig *types.Config, store *session.Store, models *model.Manager, bus *event.Bus) (*Server, error) {
	uploads, err := fileio.NewUploadStore(appConfig.UploadDir)
	if err != nil {
		return nil, err
	}

	orchestrator := chat.New(
		store,
		models,
		prompt.NewTranscript(),
		generate.NewCoordinator(bus),
		bus,
		chat.Config{
			MaxHistory:           appConfig.MaxHistory,
			ContextFiles:         appConfig.ContextFiles,
			ContextCharBudget:    appConfig.ContextCharBudget,
			ContextRefreshWindow: appConfig.ContextRefreshWindow,
		},
	)

	s := &Server{
		config:       cfg,
		router:       chi.NewRouter(),
		appConfig:    appConfig,
		store:        store,
		models:       models,
		orchestrator: orchestrator,
		bus:          bus,
		uploads:      uploads,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Orchestrator exposes the orchestrator, mainly for tests.
func (s *Server) Orchestrator() *chat.Orchestrator {
	return s.orchestrator
}

// Handler returns the router, usable with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

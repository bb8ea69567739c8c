// Package server provides the HTTP boundary: routing, request validation,
// and status-code mapping for the core services.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/yieldscope/yieldscope/internal/events"
	"github.com/yieldscope/yieldscope/internal/matching"
	"github.com/yieldscope/yieldscope/internal/query"
)

// Config holds server configuration.
type Config struct {
	Log         zerolog.Logger
	Port        int
	CORSOrigins []string
	Query       *query.Service
	Matcher     *matching.Engine
	Events      *events.Bus
}

// Server is the HTTP server.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	query     *query.Service
	matcher   *matching.Engine
	events    *events.Bus
	startedAt time.Time
}

// New creates the HTTP server and wires its routes.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		query:     cfg.Query,
		matcher:   cfg.Matcher,
		events:    cfg.Events,
		startedAt: time.Now(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/earn/opportunities", s.handleOpportunities)
		r.Post("/earn/opportunities/match", s.handleMatch)
		r.Get("/earn/opportunities/stats", s.handleStats)
		r.Get("/system/health", s.handleSystemHealth)
		r.Get("/events/stream", s.handleEventsStream)
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router. Test hook.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

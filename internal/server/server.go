// Package server exposes sessions over a JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mhpenta/stylegen"
	"github.com/mhpenta/stylegen/internal/metrics"
)

// DefaultMaxSessions caps concurrently held sessions.
const DefaultMaxSessions = 1000

// Server holds the session table and serves the API.
type Server struct {
	orch    *stylegen.Orchestrator
	logger  *slog.Logger
	metrics *metrics.Metrics

	defaultAPIKey string
	maxSessions   int

	mu       sync.RWMutex
	sessions map[string]*stylegen.Session
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records HTTP metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithDefaultAPIKey pre-fills the credential of every new session.
func WithDefaultAPIKey(key string) Option {
	return func(s *Server) {
		s.defaultAPIKey = key
	}
}

func WithMaxSessions(n int) Option {
	return func(s *Server) {
		s.maxSessions = n
	}
}

func New(orch *stylegen.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orch:        orch,
		logger:      slog.Default(),
		maxSessions: DefaultMaxSessions,
		sessions:    make(map[string]*stylegen.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.logRequests, middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/modes", s.listModes)
		r.Post("/sessions", s.createSession)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.sessionCtx)
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Put("/mode", s.selectMode)
			r.Put("/credentials", s.setCredentials)
			r.Put("/image", s.uploadImage)
			r.Post("/generate", s.generate)
			r.Delete("/error", s.clearError)
		})
	})

	return r
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

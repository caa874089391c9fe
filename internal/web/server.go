// Package web serves the import API: preview and commit of roster CSV
// files, the audit log, and health and metrics endpoints.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/lanes/internal/config"
	"github.com/JonMunkholm/lanes/internal/core"
	"github.com/JonMunkholm/lanes/internal/metrics"
	"github.com/JonMunkholm/lanes/internal/web/middleware"
)

// Backend is the storage the handlers need. *database.Store satisfies it.
type Backend interface {
	Roster() core.RosterReader
	Audit() core.AuditRepository
	InTx(ctx context.Context, fn func(core.Store) error) error
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the import API.
type Server struct {
	cfg     *config.Config
	engine  *core.Engine
	backend Backend
	audit   *core.AuditService
	limiter *core.ImportLimiter
	metrics *metrics.Manager
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires the router. m may be nil to disable /metrics.
func NewServer(cfg *config.Config, engine *core.Engine, backend Backend, m *metrics.Manager) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		backend: backend,
		audit:   core.NewAuditService(backend.Audit()),
		limiter: core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		metrics: m,
		router:  chi.NewRouter(),
	}
	if m != nil {
		m.TrackActiveImports(func() int { return s.limiter.Status().Active })
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
	s.router.Use(middleware.Actor(s.cfg.Security.ActorHeader, s.cfg.Import.DefaultActor))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Get("/profiles", s.handleListProfiles)

		r.Post("/import/{profile}/preview", s.handlePreview)
		r.Post("/import/{profile}/commit", s.handleCommit)

		r.Get("/audit-log", s.handleAuditLog)
		r.Get("/audit-log/export", s.handleAuditLogExport)
		r.Post("/audit-log/clear", s.handleAuditLogClear)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for running commits.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if status := s.limiter.Status(); status.Active > 0 {
		slog.Info("waiting for commits to finish", "active", status.Active)
		if werr := s.limiter.WaitForDrain(ctx); werr != nil {
			slog.Warn("commits did not finish in time", "error", werr)
		}
	}
	return err
}

// Router returns the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with status. Encoding errors are only logged since
// the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

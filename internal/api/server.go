// Package api serves the published opportunity set and health endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/scanner"
)

// AuditLog provides read access to persisted opportunity history. Satisfied
// by repository.AuditRepository; the audit routes mount only when a log is
// configured.
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]repository.AuditRecord, error)
	History(ctx context.Context, fingerprint string) ([]repository.AuditRecord, error)
}

// Server exposes read-only HTTP access to the engine's output. The engine
// replaces its published set atomically, so every response reflects exactly
// one completed cycle.
type Server struct {
	engine  *scanner.Engine
	audit   AuditLog
	log     *logrus.Logger
	router  chi.Router
	server  *http.Server
	version string
}

// Config holds the API server configuration.
type Config struct {
	Port    int
	Version string
	Engine  *scanner.Engine
	Audit   AuditLog // optional
	Logger  *logrus.Logger
}

// NewServer creates an API server bound to the given port.
func NewServer(cfg Config) *Server {
	s := &Server{
		engine:  cfg.Engine,
		audit:   cfg.Audit,
		log:     cfg.Logger,
		version: cfg.Version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/opportunities", s.handleOpportunities)
		r.Get("/opportunities/arbitrages", s.handleArbitrages)
		r.Get("/opportunities/middles", s.handleMiddles)
		r.Get("/markets", s.handleMarkets)
		r.Get("/status", s.handleStatus)

		if s.audit != nil {
			r.Get("/audit/recent", s.handleAuditRecent)
			r.Get("/audit/history/{fingerprint}", s.handleAuditHistory)
		}
	})

	s.router = r
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the route tree, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background until the context is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.log.WithField("addr", s.server.Addr).Info("api server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("api server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("api server shutdown error")
		}
	}()

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sharpline",
		"version": s.version,
	})
}

// handleReady reports ready once the engine has published at least one
// cycle. Before that, responses to /api/v1/opportunities would be empty in
// a misleading way.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	set := s.engine.Published()
	if set.PublishedAt.IsZero() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "no scan cycle published yet",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Published())
}

func (s *Server) handleArbitrages(w http.ResponseWriter, r *http.Request) {
	set := s.engine.Published()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"arbitrages":   set.Arbitrages,
		"published_at": set.PublishedAt,
		"cycle":        set.Cycle,
	})
}

func (s *Server) handleMiddles(w http.ResponseWriter, r *http.Request) {
	set := s.engine.Published()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"middles":      set.Middles,
		"published_at": set.PublishedAt,
		"cycle":        set.Cycle,
	})
}

// handleMarkets serves the best-price consensus from the last cycle: one
// entry per market group that passed the freshness and source filters.
func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	set := s.engine.Published()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"markets":      set.Markets,
		"published_at": set.PublishedAt,
		"cycle":        set.Cycle,
	})
}

func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Warn("audit recent query failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "audit log unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

func (s *Server) handleAuditHistory(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")

	records, err := s.audit.History(r.Context(), fingerprint)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown fingerprint"})
			return
		}
		s.log.WithError(err).Warn("audit history query failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "audit log unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"fingerprint": fingerprint,
		"records":     records,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	set := s.engine.Published()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"phase":        s.engine.Phase(),
		"cycle":        set.Cycle,
		"published_at": set.PublishedAt,
		"arbitrages":   len(set.Arbitrages),
		"middles":      len(set.Middles),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("failed to encode response")
	}
}

// Package api exposes the ops HTTP surface: health, Prometheus metrics,
// trace statistics, and prompt registry inspection.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mirelabs/solace/internal/config"
	"github.com/mirelabs/solace/internal/prompt"
	"github.com/mirelabs/solace/internal/trace"
)

// Server is the ops HTTP server.
type Server struct {
	cfg        *config.Config
	store      *trace.Store
	prompts    *prompt.Registry
	router     *chi.Mux
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the ops server over the trace store and prompt registry.
func NewServer(cfg *config.Config, store *trace.Store, prompts *prompt.Registry) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		prompts: prompts,
		logger:  slog.With("component", "ops_server"),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(Logger)
	r.Use(Recovery)
	r.Use(Metrics)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/traces/stats", s.handleTraceStats)
		r.Get("/prompts", s.handleListPrompts)
		r.Get("/abtest", s.handleGetABTest)
		r.Post("/abtest", s.handleStartABTest)
		r.Delete("/abtest", s.handleStopABTest)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]any{
		"status":        "ok",
		"active_traces": s.store.ActiveCount(),
	}, http.StatusOK)
}

func (s *Server) handleTraceStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.store.GetTraceStats()
	if err != nil {
		respondError(w, "stats_failed", err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}

func (s *Server) handleListPrompts(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]any{
		"variants":       s.prompts.List(),
		"active_variant": s.prompts.ActiveVariant(),
	}, http.StatusOK)
}

func (s *Server) handleGetABTest(w http.ResponseWriter, _ *http.Request) {
	test := s.prompts.ActiveABTest()
	if test == nil {
		respondError(w, "not_found", "no active A/B test", http.StatusNotFound)
		return
	}
	respondJSON(w, test, http.StatusOK)
}

type startABTestRequest struct {
	Component    string  `json:"component"`
	VariantA     string  `json:"variant_a"`
	VariantB     string  `json:"variant_b"`
	TrafficSplit float64 `json:"traffic_split"`
}

func (s *Server) handleStartABTest(w http.ResponseWriter, r *http.Request) {
	var req startABTestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.prompts.StartABTest(req.Component, req.VariantA, req.VariantB, req.TrafficSplit); err != nil {
		respondError(w, "abtest_failed", err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, s.prompts.ActiveABTest(), http.StatusCreated)
}

func (s *Server) handleStopABTest(w http.ResponseWriter, r *http.Request) {
	winner := r.URL.Query().Get("winner")
	stopped, err := s.prompts.StopABTest(winner)
	if err != nil {
		respondError(w, "abtest_failed", err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, stopped, http.StatusOK)
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting ops server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down ops server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, errorType, message string, status int) {
	respondJSON(w, map[string]any{
		"error":   errorType,
		"message": message,
		"status":  status,
	}, status)
}

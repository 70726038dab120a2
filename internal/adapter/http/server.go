package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/risk-zone-service/internal/analysis"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the zone API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	catalog    ZoneCatalog
	analyzer   ZoneAnalyzer
	tracker    *analysis.Tracker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, catalog ZoneCatalog, analyzer ZoneAnalyzer, tracker *analysis.Tracker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			// Analyses wait on the imagery export and the analysis backend.
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		catalog:  catalog,
		analyzer: analyzer,
		tracker:  tracker,
		metrics:  metrics,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(catalog))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/cities", s.handleListCities)
	mux.HandleFunc("GET /api/zones", s.handleListZones)
	mux.HandleFunc("GET /api/zones/{id}", s.handleGetZone)
	mux.HandleFunc("GET /api/zones/{id}/estimate", s.handleEstimate)
	mux.HandleFunc("POST /api/zones/{id}/analysis/satellite", s.handleSatelliteAnalysis)
	mux.HandleFunc("POST /api/zones/{id}/analysis/photos", s.handlePhotoAnalysis)
	mux.HandleFunc("DELETE /api/zones/{id}/analysis", s.handleDiscardAnalysis)
	mux.HandleFunc("POST /api/extract", s.handleExtract)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package server exposes a continuously refreshed timing report over HTTP:
// JSON and TSV snapshots, prometheus metrics, and a websocket stream of
// live updates.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MeKo-Tech/lapse/internal/workload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	Iterations      int
	Workloads       []string
	RefreshInterval time.Duration
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	feed       *Feed
	corsOrigin string
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type ReportResponse struct {
	Updated string            `json:"updated"`
	Results []workload.Result `json:"results"`
}

// New creates a report server instance. The feed is not started; callers
// run it via Run.
func New(cfg Config) (*Server, error) {
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("server: iterations must be non-negative, got %d", cfg.Iterations)
	}
	ws, err := workload.ByNames(cfg.Workloads)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 10 * time.Second
	}

	return &Server{
		feed:       NewFeed(cfg.Iterations, ws, cfg.RefreshInterval),
		corsOrigin: cfg.CORSOrigin,
	}, nil
}

// Feed returns the server's benchmark feed.
func (s *Server) Feed() *Feed { return s.feed }

// Close releases server resources.
func (s *Server) Close() error {
	return s.feed.Close()
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/report", s.corsMiddleware(s.reportHandler))
	mux.HandleFunc("/report/tsv", s.corsMiddleware(s.reportTSVHandler))
	mux.HandleFunc("/ws", s.reportWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mendhq/mend/pkg/history"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/metrics"
	"github.com/mendhq/mend/pkg/poller"
	"github.com/mendhq/mend/pkg/types"
)

const defaultRecentLimit = 50

// Server exposes the read-only query API over HTTP
type Server struct {
	history   *history.Store
	pollers   []*poller.Poller
	healthReg *metrics.HealthRegistry
	version   string

	mux  *http.ServeMux
	http *http.Server
}

// NewServer creates the query API server
func NewServer(store *history.Store, pollers []*poller.Poller, reg *metrics.HealthRegistry, version string) *Server {
	s := &Server{
		history:   store,
		pollers:   pollers,
		healthReg: reg,
		version:   version,
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("/v1/errors/recent", s.errorsRecentHandler)
	s.mux.HandleFunc("/v1/errors/stats", s.errorsStatsHandler)
	s.mux.HandleFunc("/v1/recovery/recent", s.recoveryRecentHandler)
	s.mux.HandleFunc("/v1/recovery/stats", s.recoveryStatsHandler)
	s.mux.HandleFunc("/v1/health/summary", s.healthSummaryHandler)
	s.mux.HandleFunc("/v1/health/services", s.healthServicesHandler)
	s.mux.HandleFunc("/healthz", s.healthzHandler)
	s.mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start begins serving; it blocks until the listener fails or Stop is
// called
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger := log.WithComponent("api")
	logger.Info().Str("addr", addr).Msg("query API listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully
func (s *Server) Stop() {
	if s.http == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.http.Shutdown(ctx)
}

// Handler returns the route mux, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// HealthzResponse is the liveness payload
type HealthzResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ServiceHealth is one service's entry in the fleet listing
type ServiceHealth struct {
	Service             string                  `json:"service"`
	ConsecutiveFailures int                     `json:"consecutive_failures"`
	Last                *types.HealthSnapshot   `json:"last,omitempty"`
	Recent              []*types.HealthSnapshot `json:"recent,omitempty"`
}

func (s *Server) errorsRecentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.history.Recent(limitParam(r)))
}

func (s *Server) errorsStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.history.Stats())
}

func (s *Server) recoveryRecentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.history.RecentActions(limitParam(r)))
}

func (s *Server) recoveryStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.history.ActionStats())
}

func (s *Server) healthSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.healthReg.Summary())
}

func (s *Server) healthServicesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := limitParam(r)
	out := make([]ServiceHealth, 0, len(s.pollers))
	for _, p := range s.pollers {
		entry := ServiceHealth{
			Service:             p.Service().Name,
			ConsecutiveFailures: p.ConsecutiveFailures(),
			Last:                p.Last(),
		}
		if r.URL.Query().Get("history") == "true" {
			entry.Recent = p.Recent(limit)
		}
		out = append(out, entry)
	}
	writeJSON(w, out)
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, HealthzResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
	})
}

func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultRecentLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultRecentLimit
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

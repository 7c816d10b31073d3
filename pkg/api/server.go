// Package api exposes the read-only HTTP API over stored import runs.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/logtools/ingressparse/pkg/logging"
	"github.com/logtools/ingressparse/pkg/metrics"
	"github.com/logtools/ingressparse/pkg/store"
)

// Handler serves run and entry queries. All endpoints are read-only;
// mutation happens through the import command, never over HTTP.
type Handler struct {
	store     store.Store
	log       *logging.Logger
	metrics   *metrics.Metrics
	startTime time.Time
}

// NewHandler creates an API handler over the given store.
func NewHandler(s store.Store, log *logging.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		store:     s,
		log:       log,
		metrics:   m,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/api/runs", h.ListRuns).Methods("GET")
	r.HandleFunc("/api/runs/{id}", h.GetRun).Methods("GET")
	r.HandleFunc("/api/runs/{id}/entries", h.GetEntries).Methods("GET")
	r.HandleFunc("/api/runs/{id}/stats", h.GetStats).Methods("GET")
	r.Handle("/metrics", h.metrics.Handler()).Methods("GET")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

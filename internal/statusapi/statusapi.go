// ============================================================================
// Subpool Status API
// ============================================================================
//
// Package: internal/statusapi
// File: statusapi.go
// Purpose: A small read-only JSON HTTP surface over the pool's
// observability accessors, wired to gorilla/mux the way the pack's
// announce-webui-simple wires a JSON status API (same mux.Router +
// envelope-struct shape).
//
// ============================================================================

package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/corvidlabs/subpool/internal/pool"
)

// Response is the envelope every endpoint returns, mirroring the
// {success, data, error} shape the pack's webui API uses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server exposes /stats, /health and /workers over p.
type Server struct {
	pool *pool.Pool
}

// New builds a Server bound to p.
func New(p *pool.Pool) *Server {
	return &Server{pool: p}
}

// Router builds the mux.Router for this server. Callers embed it into
// their own http.Server (cmd/subd's "run" command does).
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/workers", s.handleWorkers).Methods(http.MethodGet)
	return r
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.pool.Stats()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.pool.Stats().Health})
}

func (s *Server) handleWorkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.pool.WorkerDetails()})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

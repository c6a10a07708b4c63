// Package api declares the read API over the warehouse and its route
// registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/scout/internal/adapters/warehouse"
	"github.com/okian/scout/internal/domain/model"
)

// DefaultLimit applies when GET /universe has no limit.
const DefaultLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Ping(ctx context.Context) error

	Universe(ctx context.Context, season string, limit int) ([]model.UniverseRow, error)
	Player(ctx context.Context, id int64) (model.Player, error)
	Availability(ctx context.Context, playerID int64) ([]model.SeasonAvailability, error)
	Valuations(ctx context.Context, playerID int64) ([]model.MarketValuation, error)
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler   *HealthHandler
	universeHandler *UniverseHandler
	playerHandler   *PlayerHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// GET /universe?limit.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(deps),
		universeHandler: NewUniverseHandler(deps, maxLimit),
		playerHandler:   NewPlayerHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /universe", MetricsMiddleware(s.universeHandler.HandleGetUniverse, "universe"))
	mux.HandleFunc("GET /players/{id}", MetricsMiddleware(s.playerHandler.HandleGetPlayer, "player"))
	mux.HandleFunc("GET /players/{id}/availability",
		MetricsMiddleware(s.playerHandler.HandleGetAvailability, "availability"))
	mux.HandleFunc("GET /players/{id}/valuations",
		MetricsMiddleware(s.playerHandler.HandleGetValuations, "valuations"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeLookupError maps warehouse lookup failures onto status codes.
func writeLookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, warehouse.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

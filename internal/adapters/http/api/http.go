// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/questpace/internal/adapters/chart"
	"github.com/okian/questpace/internal/adapters/http/ws"
	"github.com/okian/questpace/internal/adapters/repository"
	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PaceDependencies
	RunDependencies
}

// PaceDependencies builds cohort reports.
type PaceDependencies interface {
	Analyze(ctx context.Context, f model.Filter, mode string) (types.Report, error)
}

// RunDependencies builds single-run breakdowns.
type RunDependencies interface {
	Run(ctx context.Context, id model.RunID, mode string) (types.RunReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	paceHandler   *PaceHandler
	runHandler    *RunHandler
	hub           *ws.Hub
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithHub enables GET /pace/ws backed by hub.
func WithHub(hub *ws.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithChartOptions sets the options used by GET /pace/chart.png.
func WithChartOptions(opts ...chart.Option) Option {
	return func(s *Server) {
		s.paceHandler.chartOpts = append(s.paceHandler.chartOpts, opts...)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		paceHandler:   NewPaceHandler(deps),
		runHandler:    NewRunHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/pace", MetricsMiddleware(s.paceHandler.HandlePace, "pace"))
	mux.HandleFunc("/pace/chart.png", MetricsMiddleware(s.paceHandler.HandleChart, "pace_chart"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runHandler.HandleGetRun, "runs"))
	if s.hub != nil {
		// Not wrapped: the upgrade needs the original ResponseWriter.
		mux.HandleFunc("/pace/ws", s.handleWS)
	}
}

// handleWS handles GET /pace/ws with the same query as /pace.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, mode, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	s.hub.Serve(w, r, f, mode)
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

// writeUpstreamError translates service errors to status codes.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkpoint.ErrUnknownMode):
		writeError(w, http.StatusBadRequest, "invalid_mode", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, chart.ErrNoData):
		writeError(w, http.StatusNotFound, "no_data", err)
	case errors.Is(err, context.Canceled), errors.Is(err, repository.ErrStoreCanceled):
		writeError(w, http.StatusServiceUnavailable, "canceled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/okian/questpace/internal/adapters/chart"
)

// PaceHandler handles cohort report requests.
type PaceHandler struct {
	deps      PaceDependencies
	chartOpts []chart.Option
}

// NewPaceHandler creates a new pace handler.
func NewPaceHandler(deps PaceDependencies) *PaceHandler {
	return &PaceHandler{deps: deps}
}

// HandlePace handles GET /pace requests.
func (h *PaceHandler) HandlePace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, mode, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.Analyze(r.Context(), f, mode)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleChart handles GET /pace/chart.png requests.
func (h *PaceHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, mode, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.Analyze(r.Context(), f, mode)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, report, h.chartOpts...); err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

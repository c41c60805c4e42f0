// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/model"
)

// RunHandler handles single-run breakdown requests.
type RunHandler struct {
	deps RunDependencies
}

// NewRunHandler creates a new run handler.
func NewRunHandler(deps RunDependencies) *RunHandler {
	return &RunHandler{deps: deps}
}

// HandleGetRun handles GET /runs/{id}?mode= requests. A run the engine
// excludes still answers 200 with the reason and the stages that completed.
func (h *RunHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/runs/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid run id %q", ErrBadRequest, path))
		return
	}
	mode := strings.TrimSpace(r.URL.Query().Get(paramMode))
	if _, err := checkpoint.ParseMode(mode); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_mode", err)
		return
	}

	rep, err := h.deps.Run(r.Context(), model.RunID(id), mode)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

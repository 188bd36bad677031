// internal/api/handler/runs.go
package handler

import (
	"net/http"
	"strings"

	"github.com/nniranjan/mnqsim/internal/api/response"
	"github.com/nniranjan/mnqsim/internal/core"
	"github.com/nniranjan/mnqsim/internal/storage/archive"
)

// artifacts which may be served. Anything else is rejected so runID
// path segments cannot be abused to walk the store.
var allowedArtifacts = map[string]bool{
	"equity":  true,
	"returns": true,
	"trades":  true,
	"stats":   true,
	"paths":   true,
}

// RunsHandler serves stored run artifacts as CSV.
type RunsHandler struct {
	store archive.Storage
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store archive.Storage) *RunsHandler {
	return &RunsHandler{store: store}
}

// GetArtifact streams one CSV artifact of a completed run.
func (h *RunsHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")
	artifact := strings.TrimSuffix(r.PathValue("artifact"), ".csv")

	// run IDs are uuids; anything path-like is hostile
	if runID == "" || strings.Contains(runID, "..") || strings.ContainsAny(runID, `/\`) {
		response.Error(w, core.ErrRunNotFound)
		return
	}
	if !allowedArtifacts[artifact] {
		response.Error(w, core.ErrRunNotFound)
		return
	}

	data, err := h.store.Read(r.Context(), runID+"/"+artifact+".csv")
	if err != nil {
		response.Error(w, core.WrapError(core.ErrRunNotFound, err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

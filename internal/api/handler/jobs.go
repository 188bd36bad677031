// internal/api/handler/jobs.go
package handler

import (
	"net/http"

	"github.com/nniranjan/mnqsim/internal/api/job"
	"github.com/nniranjan/mnqsim/internal/api/response"
)

// JobsHandler exposes async job status.
type JobsHandler struct {
	jobs *job.Store
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(jobs *job.Store) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// Get returns the status of a single job.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"type":   j.Type,
		"status": j.Status,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// List returns all known jobs, newest last.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.jobs.List())
}

// internal/api/handler/montecarlo.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nniranjan/mnqsim/internal/api/job"
	"github.com/nniranjan/mnqsim/internal/api/response"
	"github.com/nniranjan/mnqsim/internal/core"
	"github.com/nniranjan/mnqsim/internal/genmarket"
	"github.com/nniranjan/mnqsim/internal/metrics"
	"github.com/nniranjan/mnqsim/internal/report"
	"github.com/nniranjan/mnqsim/internal/sim"
)

const maxPaths = 1000

// MonteCarloRequest is the request body for a multi-path sweep.
type MonteCarloRequest struct {
	SimulateRequest
	Paths int `json:"paths"`
}

// MonteCarloHandler sweeps the strategy over many synthetic markets.
type MonteCarloHandler struct {
	jobs    *job.Store
	writer  *report.Writer
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewMonteCarloHandler creates a new monte carlo handler.
func NewMonteCarloHandler(
	jobs *job.Store,
	writer *report.Writer,
	reg *metrics.Registry,
	logger *zap.Logger,
) *MonteCarloHandler {
	return &MonteCarloHandler{
		jobs:    jobs,
		writer:  writer,
		metrics: reg,
		logger:  logger,
	}
}

// Create starts a new multi-path job.
func (h *MonteCarloHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MonteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Paths <= 0 || req.Paths > maxPaths {
		response.Error(w, core.WrapError(core.ErrConfigInvalid, nil))
		return
	}

	gen := genConfig(req.SimulateRequest)
	if err := gen.Validate(); err != nil {
		response.Error(w, err)
		return
	}

	j := h.jobs.Create("montecarlo")
	jobID := j.ID
	status := j.Status
	h.metrics.SetJobsActive("montecarlo", h.jobs.ActiveCount("montecarlo"))

	go h.run(jobID, gen, req.Paths, req.Seed)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

func (h *MonteCarloHandler) run(jobID string, gen genmarket.Config, paths int, seed int64) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	t0 := time.Now()
	if seed == 0 {
		seed = gen.Seed
	}
	results, summary, err := sim.RunPaths(gen, sim.RandomPreset(), paths, seed)
	if err != nil {
		h.fail(jobID, t0, err)
		return
	}

	if err := h.writer.WritePaths(ctx, jobID, results); err != nil {
		h.fail(jobID, t0, err)
		return
	}

	h.metrics.RecordRun("montecarlo", metrics.RunStatusComplete, time.Since(t0).Seconds(), 0)
	h.logger.Info("monte carlo complete",
		zap.String("job_id", jobID),
		zap.Int("paths", paths))

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = map[string]any{
			"run_id":  jobID,
			"summary": summary,
		}
	})
	h.metrics.SetJobsActive("montecarlo", h.jobs.ActiveCount("montecarlo"))
}

func (h *MonteCarloHandler) fail(jobID string, t0 time.Time, err error) {
	h.metrics.RecordRun("montecarlo", metrics.RunStatusFailed, time.Since(t0).Seconds(), 0)
	h.logger.Warn("run failed", zap.String("job_id", jobID), zap.Error(err))
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = asCoded(err)
	})
	h.metrics.SetJobsActive("montecarlo", h.jobs.ActiveCount("montecarlo"))
}

// internal/api/handler/simulate.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nniranjan/mnqsim/internal/api/job"
	"github.com/nniranjan/mnqsim/internal/api/response"
	"github.com/nniranjan/mnqsim/internal/genmarket"
	"github.com/nniranjan/mnqsim/internal/metrics"
	"github.com/nniranjan/mnqsim/internal/report"
	"github.com/nniranjan/mnqsim/internal/sim"
)

// SimulateRequest is the request body for a synthetic-market run.
// Zero-valued fields fall back to the generator defaults.
type SimulateRequest struct {
	Years      int     `json:"years,omitempty"`
	Drift      float64 `json:"drift,omitempty"`
	Volatility float64 `json:"volatility,omitempty"`
	JumpProb   float64 `json:"jump_prob,omitempty"`
	Seed       int64   `json:"seed"`
}

// SimulateHandler runs the overlay strategy on a generated market.
type SimulateHandler struct {
	jobs    *job.Store
	writer  *report.Writer
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(
	jobs *job.Store,
	writer *report.Writer,
	reg *metrics.Registry,
	logger *zap.Logger,
) *SimulateHandler {
	return &SimulateHandler{
		jobs:    jobs,
		writer:  writer,
		metrics: reg,
		logger:  logger,
	}
}

// Create starts a new synthetic run job.
func (h *SimulateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		return
	}

	gen := genConfig(req)
	if err := gen.Validate(); err != nil {
		response.Error(w, err)
		return
	}

	j := h.jobs.Create("simulate")
	jobID := j.ID
	status := j.Status
	h.metrics.SetJobsActive("simulate", h.jobs.ActiveCount("simulate"))

	go h.run(jobID, gen, req.Seed)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

func (h *SimulateHandler) run(jobID string, gen genmarket.Config, seed int64) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	t0 := time.Now()
	bars, err := genmarket.Generate(gen)
	if err != nil {
		h.fail(jobID, t0, err)
		return
	}

	res, err := sim.Run(bars, sim.RandomPreset(), seed)
	if err != nil {
		h.fail(jobID, t0, err)
		return
	}

	if err := h.writer.WriteRun(ctx, jobID, res); err != nil {
		h.fail(jobID, t0, err)
		return
	}

	h.metrics.RecordRun("random", metrics.RunStatusComplete, time.Since(t0).Seconds(), res.Stats.TotalTrades)
	h.logger.Info("simulation complete",
		zap.String("job_id", jobID),
		zap.Int("bars", len(bars)),
		zap.Int("trades", res.Stats.TotalTrades))

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = map[string]any{
			"run_id": jobID,
			"bars":   len(bars),
			"stats":  res.Stats,
		}
	})
	h.metrics.SetJobsActive("simulate", h.jobs.ActiveCount("simulate"))
}

func (h *SimulateHandler) fail(jobID string, t0 time.Time, err error) {
	h.metrics.RecordRun("random", metrics.RunStatusFailed, time.Since(t0).Seconds(), 0)
	h.logger.Warn("run failed", zap.String("job_id", jobID), zap.Error(err))
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = asCoded(err)
	})
	h.metrics.SetJobsActive("simulate", h.jobs.ActiveCount("simulate"))
}

func genConfig(req SimulateRequest) genmarket.Config {
	gen := genmarket.Defaults()
	if req.Years != 0 {
		gen.Years = req.Years
	}
	if req.Drift != 0 {
		gen.Drift = req.Drift
	}
	if req.Volatility > 0 {
		gen.Volatility = req.Volatility
	}
	if req.JumpProb > 0 {
		gen.JumpProb = req.JumpProb
	}
	if req.Seed != 0 {
		gen.Seed = req.Seed
	}
	return gen
}

// internal/api/handler/backtest.go
// Package handler implements the simulation API endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nniranjan/mnqsim/internal/api/job"
	"github.com/nniranjan/mnqsim/internal/api/response"
	"github.com/nniranjan/mnqsim/internal/core"
	"github.com/nniranjan/mnqsim/internal/metrics"
	"github.com/nniranjan/mnqsim/internal/report"
	"github.com/nniranjan/mnqsim/internal/sim"
)

const runTimeout = 5 * time.Minute

// HistoryProvider fetches daily bars for a symbol.
type HistoryProvider interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
}

// BacktestRequest is the request body for starting a historical run.
type BacktestRequest struct {
	Symbol string `json:"symbol"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Years  int    `json:"years,omitempty"`
	Seed   int64  `json:"seed"`
}

// BacktestHandler runs the overlay strategy on fetched history.
type BacktestHandler struct {
	jobs     *job.Store
	provider HistoryProvider
	writer   *report.Writer
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(
	jobs *job.Store,
	provider HistoryProvider,
	writer *report.Writer,
	reg *metrics.Registry,
	logger *zap.Logger,
) *BacktestHandler {
	return &BacktestHandler{
		jobs:     jobs,
		provider: provider,
		writer:   writer,
		metrics:  reg,
		logger:   logger,
	}
}

// Create starts a new historical backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Symbol == "" {
		response.Error(w, core.WrapError(core.ErrConfigMissing, nil))
		return
	}

	start, end, err := resolveRange(req.Start, req.End, req.Years)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	j := h.jobs.Create("backtest")
	jobID := j.ID
	status := j.Status
	h.metrics.SetJobsActive("backtest", h.jobs.ActiveCount("backtest"))

	go h.run(jobID, req.Symbol, start, end, req.Seed)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

func (h *BacktestHandler) run(jobID, symbol string, start, end time.Time, seed int64) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	t0 := time.Now()
	bars, err := h.provider.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		h.fail(jobID, "historical", t0, err)
		return
	}

	res, err := sim.Run(bars, sim.HistoricalPreset(), seed)
	if err != nil {
		h.fail(jobID, "historical", t0, err)
		return
	}

	if err := h.writer.WriteRun(ctx, jobID, res); err != nil {
		h.fail(jobID, "historical", t0, err)
		return
	}

	h.metrics.RecordRun("historical", metrics.RunStatusComplete, time.Since(t0).Seconds(), res.Stats.TotalTrades)
	h.logger.Info("backtest complete",
		zap.String("job_id", jobID),
		zap.String("symbol", symbol),
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
	h.metrics.SetJobsActive("backtest", h.jobs.ActiveCount("backtest"))
}

func (h *BacktestHandler) fail(jobID, mode string, t0 time.Time, err error) {
	h.metrics.RecordRun(mode, metrics.RunStatusFailed, time.Since(t0).Seconds(), 0)
	h.logger.Warn("run failed", zap.String("job_id", jobID), zap.Error(err))
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = asCoded(err)
	})
	h.metrics.SetJobsActive("backtest", h.jobs.ActiveCount("backtest"))
}

func asCoded(err error) *core.Error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	return core.WrapError(core.ErrInternal, err)
}

// resolveRange turns the optional start/end/years fields into a concrete
// date window. Explicit dates win; otherwise years back from today
// (default 20).
func resolveRange(startStr, endStr string, years int) (time.Time, time.Time, error) {
	end := time.Now()
	if endStr != "" {
		var err error
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	if years <= 0 {
		years = 20
	}
	return end.AddDate(-years, 0, 0), end, nil
}

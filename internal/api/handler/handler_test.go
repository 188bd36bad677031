// internal/api/handler/handler_test.go
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nniranjan/mnqsim/internal/api/job"
	"github.com/nniranjan/mnqsim/internal/api/response"
	"github.com/nniranjan/mnqsim/internal/core"
	"github.com/nniranjan/mnqsim/internal/metrics"
	"github.com/nniranjan/mnqsim/internal/report"
	"github.com/nniranjan/mnqsim/internal/sim"
	"github.com/nniranjan/mnqsim/internal/storage/archive"
)

// mockProvider returns a short flat price history.
type mockProvider struct {
	err error
}

func (m *mockProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	if m.err != nil {
		return nil, m.err
	}
	bars := make([]core.Bar, 60)
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		px := 15000.0 + float64(i)*5
		bars[i] = core.Bar{Date: d, Open: px, High: px + 10, Low: px - 10, Close: px, Volume: 1000}
		d = d.AddDate(0, 0, 1)
	}
	return bars, nil
}

func newTestDeps(t *testing.T) (*job.Store, *report.Writer, archive.Storage, *metrics.Registry, *zap.Logger) {
	t.Helper()
	store, err := archive.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	return job.NewStore(100, time.Hour), report.NewWriter(store), store, metrics.NewRegistry(), zap.NewNop()
}

// waitForJob polls until the job leaves pending/running or the deadline
// expires.
func waitForJob(t *testing.T, jobs *job.Store, id string) *job.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := jobs.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if j.Status == job.StatusComplete || j.Status == job.StatusFailed {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func decodeJobID(t *testing.T, body []byte) string {
	t.Helper()
	var resp response.SuccessResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data := resp.Data.(map[string]any)
	id, _ := data["job_id"].(string)
	if id == "" {
		t.Fatal("expected job_id in response")
	}
	return id
}

func TestBacktestHandler_Create(t *testing.T) {
	jobs, writer, _, reg, logger := newTestDeps(t)
	h := NewBacktestHandler(jobs, &mockProvider{}, writer, reg, logger)

	body := bytes.NewBufferString(`{
		"symbol": "MNQ=F",
		"start": "2024-01-01",
		"end": "2024-04-01",
		"seed": 42
	}`)
	req := httptest.NewRequest("POST", "/api/v1/backtest", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	id := decodeJobID(t, w.Body.Bytes())
	j := waitForJob(t, jobs, id)
	if j.Status != job.StatusComplete {
		t.Fatalf("job status = %s, error = %v", j.Status, j.Error)
	}

	result := j.Result.(map[string]any)
	if result["run_id"] != id {
		t.Errorf("run_id = %v, want %s", result["run_id"], id)
	}
}

// blockingProvider holds the fetch open until released, pinning the job
// in the running state.
type blockingProvider struct {
	release chan struct{}
}

func (p *blockingProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	<-p.release
	return nil, core.ErrNoData
}

func gaugeValue(t *testing.T, reg *metrics.Registry, name, jobType string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetValue() == jobType {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	return 0
}

func TestBacktestHandler_JobsActiveGauge(t *testing.T) {
	jobs, writer, _, reg, logger := newTestDeps(t)
	provider := &blockingProvider{release: make(chan struct{})}
	h := NewBacktestHandler(jobs, provider, writer, reg, logger)

	body := bytes.NewBufferString(`{"symbol": "MNQ=F", "years": 1, "seed": 1}`)
	req := httptest.NewRequest("POST", "/api/v1/backtest", body)
	w := httptest.NewRecorder()

	h.Create(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	if got := gaugeValue(t, reg, "mnqsim_jobs_active", "backtest"); got != 1 {
		t.Errorf("gauge during run = %f, want 1", got)
	}

	close(provider.release)
	id := decodeJobID(t, w.Body.Bytes())
	waitForJob(t, jobs, id)

	// The gauge update follows the final job update; give it a moment.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if gaugeValue(t, reg, "mnqsim_jobs_active", "backtest") == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("gauge after run = %f, want 0",
		gaugeValue(t, reg, "mnqsim_jobs_active", "backtest"))
}

func TestBacktestHandler_Create_MissingSymbol(t *testing.T) {
	jobs, writer, _, reg, logger := newTestDeps(t)
	h := NewBacktestHandler(jobs, &mockProvider{}, writer, reg, logger)

	body := bytes.NewBufferString(`{"seed": 1}`)
	req := httptest.NewRequest("POST", "/api/v1/backtest", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBacktestHandler_Create_InvalidDates(t *testing.T) {
	jobs, writer, _, reg, logger := newTestDeps(t)
	h := NewBacktestHandler(jobs, &mockProvider{}, writer, reg, logger)

	body := bytes.NewBufferString(`{"symbol": "MNQ=F", "start": "not-a-date"}`)
	req := httptest.NewRequest("POST", "/api/v1/backtest", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBacktestHandler_FetchFailure(t *testing.T) {
	jobs, writer, _, reg, logger := newTestDeps(t)
	h := NewBacktestHandler(jobs, &mockProvider{err: core.ErrFetchFailed}, writer, reg, logger)

	body := bytes.NewBufferString(`{"symbol": "MNQ=F", "years": 1, "seed": 7}`)
	req := httptest.NewRequest("POST", "/api/v1/backtest", body)
	w := httptest.NewRecorder()

	h.Create(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	id := decodeJobID(t, w.Body.Bytes())
	j := waitForJob(t, jobs, id)
	if j.Status != job.StatusFailed {
		t.Fatalf("job status = %s, want failed", j.Status)
	}
	if j.Error == nil || j.Error.Code != "FETCH_FAILED" {
		t.Errorf("error = %v, want FETCH_FAILED", j.Error)
	}
}

func TestSimulateHandler_Create(t *testing.T) {
	jobs, writer, store, reg, logger := newTestDeps(t)
	h := NewSimulateHandler(jobs, writer, reg, logger)

	body := bytes.NewBufferString(`{"years": 1, "seed": 42}`)
	req := httptest.NewRequest("POST", "/api/v1/simulate", body)
	w := httptest.NewRecorder()

	h.Create(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	id := decodeJobID(t, w.Body.Bytes())
	j := waitForJob(t, jobs, id)
	if j.Status != job.StatusComplete {
		t.Fatalf("job status = %s, error = %v", j.Status, j.Error)
	}

	// Artifacts must be written under the job ID
	ok, err := store.Exists(context.Background(), id+"/equity.csv")
	if err != nil || !ok {
		t.Errorf("equity.csv missing: ok=%v err=%v", ok, err)
	}
}

func TestSimulateHandler_InvalidConfig(t *testing.T) {
	jobs, writer, _, reg, logger := newTestDeps(t)
	h := NewSimulateHandler(jobs, writer, reg, logger)

	body := bytes.NewBufferString(`{"years": -3}`)
	req := httptest.NewRequest("POST", "/api/v1/simulate", body)
	w := httptest.NewRecorder()

	h.Create(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMonteCarloHandler_Create(t *testing.T) {
	jobs, writer, store, reg, logger := newTestDeps(t)
	h := NewMonteCarloHandler(jobs, writer, reg, logger)

	body := bytes.NewBufferString(`{"paths": 3, "years": 1, "seed": 42}`)
	req := httptest.NewRequest("POST", "/api/v1/montecarlo", body)
	w := httptest.NewRecorder()

	h.Create(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	id := decodeJobID(t, w.Body.Bytes())
	j := waitForJob(t, jobs, id)
	if j.Status != job.StatusComplete {
		t.Fatalf("job status = %s, error = %v", j.Status, j.Error)
	}

	result := j.Result.(map[string]any)
	if result["summary"] == nil {
		t.Error("expected summary in result")
	}
	ok, _ := store.Exists(context.Background(), id+"/paths.csv")
	if !ok {
		t.Error("paths.csv missing")
	}
}

func TestMonteCarloHandler_BadPathCount(t *testing.T) {
	jobs, writer, _, reg, logger := newTestDeps(t)
	h := NewMonteCarloHandler(jobs, writer, reg, logger)

	for _, body := range []string{`{"paths": 0}`, `{"paths": 100000}`} {
		req := httptest.NewRequest("POST", "/api/v1/montecarlo", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		h.Create(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestJobsHandler_Get(t *testing.T) {
	jobs, _, _, _, _ := newTestDeps(t)
	h := NewJobsHandler(jobs)

	j := jobs.Create("simulate")

	req := httptest.NewRequest("GET", "/api/v1/jobs/"+j.ID, nil)
	req.SetPathValue("id", j.ID)
	w := httptest.NewRecorder()

	h.Get(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	if data["job_id"] != j.ID {
		t.Errorf("job_id = %v, want %s", data["job_id"], j.ID)
	}
}

func TestJobsHandler_Get_UndefinedStats(t *testing.T) {
	jobs, _, _, _, _ := newTestDeps(t)
	h := NewJobsHandler(jobs)

	// A flat series leaves Sharpe and friends NaN; the job body must
	// still serialize.
	j := jobs.Create("backtest")
	jobs.Update(j.ID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = map[string]any{
			"run_id": j.ID,
			"stats": sim.Stats{
				FinalEquity: 1_000_000,
				CAGR:        math.NaN(),
				Sharpe:      math.NaN(),
				MaxDrawdown: math.NaN(),
			},
		}
	})

	req := httptest.NewRequest("GET", "/api/v1/jobs/"+j.ID, nil)
	req.SetPathValue("id", j.ID)
	w := httptest.NewRecorder()

	h.Get(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("response body is empty")
	}

	var resp response.SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	stats := resp.Data.(map[string]any)["result"].(map[string]any)["stats"].(map[string]any)
	if stats["sharpe"] != nil {
		t.Errorf("sharpe = %v, want null", stats["sharpe"])
	}
	if stats["final_equity"] != 1_000_000.0 {
		t.Errorf("final_equity = %v, want 1000000", stats["final_equity"])
	}
}

func TestJobsHandler_Get_NotFound(t *testing.T) {
	jobs, _, _, _, _ := newTestDeps(t)
	h := NewJobsHandler(jobs)

	req := httptest.NewRequest("GET", "/api/v1/jobs/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")
	w := httptest.NewRecorder()

	h.Get(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRunsHandler_GetArtifact(t *testing.T) {
	_, _, store, _, _ := newTestDeps(t)
	h := NewRunsHandler(store)

	ctx := context.Background()
	if err := store.Write(ctx, "run1/equity.csv", []byte("date,equity\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Both bare and .csv-suffixed artifact names are accepted
	for _, artifact := range []string{"equity", "equity.csv"} {
		req := httptest.NewRequest("GET", "/api/v1/runs/run1/"+artifact, nil)
		req.SetPathValue("runID", "run1")
		req.SetPathValue("artifact", artifact)
		w := httptest.NewRecorder()

		h.GetArtifact(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", artifact, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("%s: Content-Type = %s", artifact, ct)
		}
		if w.Body.String() != "date,equity\n" {
			t.Errorf("%s: body = %q", artifact, w.Body.String())
		}
	}
}

func TestRunsHandler_RejectsTraversalRunID(t *testing.T) {
	_, _, store, _, _ := newTestDeps(t)
	h := NewRunsHandler(store)

	for _, runID := range []string{"..", "../run1", `..\run1`, ""} {
		req := httptest.NewRequest("GET", "/api/v1/runs/x/equity", nil)
		req.SetPathValue("runID", runID)
		req.SetPathValue("artifact", "equity")
		w := httptest.NewRecorder()

		h.GetArtifact(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("runID %q: expected 404, got %d", runID, w.Code)
		}
	}
}

func TestRunsHandler_RejectsUnknownArtifact(t *testing.T) {
	_, _, store, _, _ := newTestDeps(t)
	h := NewRunsHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/runs/run1/secrets", nil)
	req.SetPathValue("runID", "run1")
	req.SetPathValue("artifact", "secrets")
	w := httptest.NewRecorder()

	h.GetArtifact(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

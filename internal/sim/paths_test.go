package sim

import (
	"testing"

	"github.com/nniranjan/mnqsim/internal/genmarket"
)

func TestRunPaths(t *testing.T) {
	gen := genmarket.Defaults()
	gen.Years = 1

	results, summary, err := RunPaths(gen, RandomPreset(), 5, 42)
	if err != nil {
		t.Fatalf("RunPaths() error = %v", err)
	}

	if len(results) != 5 {
		t.Fatalf("expected 5 path results, got %d", len(results))
	}
	for i, r := range results {
		if r.Path != i {
			t.Errorf("results[%d].Path = %d", i, r.Path)
		}
		if r.Seed != 42+int64(i) {
			t.Errorf("results[%d].Seed = %d, want %d", i, r.Seed, 42+int64(i))
		}
	}
	if summary.Paths != 5 {
		t.Errorf("summary.Paths = %d, want 5", summary.Paths)
	}
	if summary.P10Final > summary.P50Final || summary.P50Final > summary.P90Final {
		t.Errorf("percentiles out of order: %+v", summary)
	}
	if summary.WorstDrawdown > 0 {
		t.Errorf("WorstDrawdown = %f, must be <= 0", summary.WorstDrawdown)
	}
}

func TestRunPaths_Deterministic(t *testing.T) {
	gen := genmarket.Defaults()
	gen.Years = 1

	a, sa, err := RunPaths(gen, RandomPreset(), 3, 42)
	if err != nil {
		t.Fatalf("RunPaths() error = %v", err)
	}
	b, sb, err := RunPaths(gen, RandomPreset(), 3, 42)
	if err != nil {
		t.Fatalf("RunPaths() error = %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("path counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Stats.FinalEquity != b[i].Stats.FinalEquity ||
			a[i].Stats.TotalTrades != b[i].Stats.TotalTrades {
			t.Errorf("path %d diverged between identical sweeps", i)
		}
	}
	if sa.MeanFinal != sb.MeanFinal || sa.P50Final != sb.P50Final {
		t.Error("summaries diverged between identical sweeps")
	}
}

func TestRunPaths_InvalidCount(t *testing.T) {
	if _, _, err := RunPaths(genmarket.Defaults(), RandomPreset(), 0, 42); err == nil {
		t.Error("expected error for zero paths")
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	if got := percentile(sorted, 0.5); got != 3 {
		t.Errorf("p50 = %f, want 3", got)
	}
	if got := percentile(sorted, 0); got != 1 {
		t.Errorf("p0 = %f, want 1", got)
	}
	if got := percentile(sorted, 1); got != 5 {
		t.Errorf("p100 = %f, want 5", got)
	}
	if got := percentile(sorted, 0.25); got != 2 {
		t.Errorf("p25 = %f, want 2", got)
	}
}

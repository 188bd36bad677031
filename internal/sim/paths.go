package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/nniranjan/mnqsim/internal/core"
	"github.com/nniranjan/mnqsim/internal/genmarket"
)

// PathResult is the summary of one Monte Carlo path.
type PathResult struct {
	Path  int   `json:"path"`
	Seed  int64 `json:"seed"`
	Stats Stats `json:"stats"`
}

// PathsSummary aggregates final-equity percentiles across paths.
type PathsSummary struct {
	Paths          int     `json:"paths"`
	MeanFinal      float64 `json:"mean_final_equity"`
	P10Final       float64 `json:"p10_final_equity"`
	P50Final       float64 `json:"p50_final_equity"`
	P90Final       float64 `json:"p90_final_equity"`
	MeanCAGR       float64 `json:"mean_cagr"`
	MeanSharpe     float64 `json:"mean_sharpe"`
	WorstDrawdown  float64 `json:"worst_drawdown"`
	MedianDrawdown float64 `json:"median_drawdown"`
}

// RunPaths generates paths independent synthetic markets (seeds
// baseSeed, baseSeed+1, ...) and runs the strategy on each, reusing the
// path seed for the strategy draws. Sequential on purpose: each run owns
// its generator, and a fixed seed ladder keeps the whole sweep
// reproducible.
func RunPaths(gen genmarket.Config, cfg Config, paths int, baseSeed int64) ([]PathResult, PathsSummary, error) {
	if paths <= 0 {
		return nil, PathsSummary{}, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("paths must be positive, got %d", paths))
	}

	results := make([]PathResult, 0, paths)
	for p := 0; p < paths; p++ {
		seed := baseSeed + int64(p)
		gen.Seed = seed
		bars, err := genmarket.Generate(gen)
		if err != nil {
			return nil, PathsSummary{}, err
		}
		res, err := Run(bars, cfg, seed)
		if err != nil {
			return nil, PathsSummary{}, err
		}
		results = append(results, PathResult{Path: p, Seed: seed, Stats: res.Stats})
	}

	return results, summarizePaths(results), nil
}

func summarizePaths(results []PathResult) PathsSummary {
	finals := make([]float64, len(results))
	dds := make([]float64, len(results))
	var sumFinal, sumCAGR, sumSharpe float64
	worstDD := 0.0
	for i, r := range results {
		finals[i] = r.Stats.FinalEquity
		dds[i] = r.Stats.MaxDrawdown
		sumFinal += r.Stats.FinalEquity
		sumCAGR += r.Stats.CAGR
		sumSharpe += r.Stats.Sharpe
		if r.Stats.MaxDrawdown < worstDD {
			worstDD = r.Stats.MaxDrawdown
		}
	}
	sort.Float64s(finals)
	sort.Float64s(dds)

	n := float64(len(results))
	return PathsSummary{
		Paths:          len(results),
		MeanFinal:      sumFinal / n,
		P10Final:       percentile(finals, 0.10),
		P50Final:       percentile(finals, 0.50),
		P90Final:       percentile(finals, 0.90),
		MeanCAGR:       sumCAGR / n,
		MeanSharpe:     sumSharpe / n,
		WorstDrawdown:  worstDD,
		MedianDrawdown: percentile(dds, 0.50),
	}
}

// percentile interpolates linearly over a sorted sample.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

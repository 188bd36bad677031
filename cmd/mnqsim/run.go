package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nniranjan/mnqsim/internal/report"
	"github.com/nniranjan/mnqsim/internal/sim"
	"github.com/nniranjan/mnqsim/internal/storage/archive"
)

// printSummary renders run statistics for the terminal.
func printSummary(s sim.Stats) {
	fmt.Println("=== Summary ===")
	fmt.Printf("Final equity:       $%.2f\n", s.FinalEquity)
	fmt.Printf("CAGR:               %.2f%%\n", s.CAGR*100)
	fmt.Printf("Sharpe:             %.2f\n", s.Sharpe)
	fmt.Printf("Max drawdown:       %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("Max open puts:      %d\n", s.MaxOpenPuts)
	fmt.Printf("Max held contracts: %d\n", s.MaxHeldContracts)
	fmt.Printf("Total trades:       %d\n", s.TotalTrades)
}

// saveRun writes CSV artifacts under outDir/<run id>/ and returns the
// run id.
func saveRun(outDir string, res *sim.Result) (string, error) {
	store, err := archive.NewLocalFS(outDir)
	if err != nil {
		return "", fmt.Errorf("opening output dir: %w", err)
	}

	runID := uuid.NewString()
	if err := report.NewWriter(store).WriteRun(context.Background(), runID, res); err != nil {
		return "", fmt.Errorf("writing artifacts: %w", err)
	}
	return runID, nil
}

// savePaths writes the per-path CSV under outDir/<run id>/.
func savePaths(outDir string, results []sim.PathResult) (string, error) {
	store, err := archive.NewLocalFS(outDir)
	if err != nil {
		return "", fmt.Errorf("opening output dir: %w", err)
	}

	runID := uuid.NewString()
	if err := report.NewWriter(store).WritePaths(context.Background(), runID, results); err != nil {
		return "", fmt.Errorf("writing artifacts: %w", err)
	}
	return runID, nil
}

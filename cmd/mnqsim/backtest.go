package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nniranjan/mnqsim/internal/collector/yahoo"
	"github.com/nniranjan/mnqsim/internal/logger"
	"github.com/nniranjan/mnqsim/internal/sim"
)

var (
	backtestSymbol string
	backtestFrom   string
	backtestTo     string
	backtestYears  int
	backtestSeed   int64
	backtestOut    string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the overlay against fetched MNQ history",
	Long: `Fetch daily bars from Yahoo Finance and run the put-writing and
covered-call overlay with the historical preset.`,
	RunE: runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "MNQ=F", "Symbol to fetch")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (default today)")
	backtestCmd.Flags().IntVar(&backtestYears, "years", 20, "Years of history when --from is not set")
	backtestCmd.Flags().Int64Var(&backtestSeed, "seed", 42, "Random seed for premiums and assignment")
	backtestCmd.Flags().StringVar(&backtestOut, "out", "out", "Directory for CSV artifacts")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	end := time.Now()
	if backtestTo != "" {
		var err error
		end, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
	}

	var start time.Time
	if backtestFrom != "" {
		var err error
		start, err = time.Parse("2006-01-02", backtestFrom)
		if err != nil {
			return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
		}
	} else {
		start = end.AddDate(-backtestYears, 0, 0)
	}
	if end.Before(start) {
		return fmt.Errorf("end date must be after start date")
	}

	log.Info("fetching history",
		zap.String("symbol", backtestSymbol),
		zap.String("from", start.Format("2006-01-02")),
		zap.String("to", end.Format("2006-01-02")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	bars, err := yahoo.New().FetchDaily(ctx, backtestSymbol, start, end)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", backtestSymbol, err)
	}
	log.Info("history fetched", zap.Int("bars", len(bars)))

	res, err := sim.Run(bars, sim.HistoricalPreset(), backtestSeed)
	if err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	runID, err := saveRun(backtestOut, res)
	if err != nil {
		return err
	}

	fmt.Printf("=== mnqsim backtest ===\n")
	fmt.Printf("Symbol: %s\n", backtestSymbol)
	fmt.Printf("Period: %s to %s (%d bars)\n",
		bars[0].Date.Format("2006-01-02"),
		bars[len(bars)-1].Date.Format("2006-01-02"),
		len(bars))
	fmt.Printf("Seed:   %d\n", backtestSeed)
	fmt.Println()
	printSummary(res.Stats)
	fmt.Println()
	fmt.Printf("Artifacts: %s/%s/\n", backtestOut, runID)

	return nil
}

// Package report renders run output as CSV artifacts and persists them
// through archive storage.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/nniranjan/mnqsim/internal/core"
	"github.com/nniranjan/mnqsim/internal/sim"
	"github.com/nniranjan/mnqsim/internal/storage/archive"
)

const dateLayout = "2006-01-02"

// Writer persists the CSV artifacts of a run.
type Writer struct {
	store archive.Storage
}

// NewWriter creates a Writer on top of the given storage backend.
func NewWriter(store archive.Storage) *Writer {
	return &Writer{store: store}
}

// WriteRun stores equity.csv, returns.csv, trades.csv, and stats.csv
// under the run's directory.
func (w *Writer) WriteRun(ctx context.Context, runID string, res *sim.Result) error {
	artifacts := map[string][]byte{
		"equity.csv":  EquityCSV(res.Equity),
		"returns.csv": ReturnsCSV(res.Equity),
		"trades.csv":  TradesCSV(res.Trades),
		"stats.csv":   StatsCSV(res.Stats),
	}
	for name, data := range artifacts {
		if err := w.store.Write(ctx, runID+"/"+name, data); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// WritePaths stores paths.csv for a Monte Carlo sweep.
func (w *Writer) WritePaths(ctx context.Context, runID string, results []sim.PathResult) error {
	if err := w.store.Write(ctx, runID+"/paths.csv", PathsCSV(results)); err != nil {
		return fmt.Errorf("writing paths.csv: %w", err)
	}
	return nil
}

// EquityCSV renders the daily equity table.
func EquityCSV(points []core.EquityPoint) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	_ = cw.Write([]string{"date", "equity", "cash", "unrealized", "held_contracts", "open_puts", "open_calls", "z"})
	for _, p := range points {
		_ = cw.Write([]string{
			p.Date.Format(dateLayout),
			formatF(p.Equity), formatF(p.Cash), formatF(p.Unrealized),
			strconv.Itoa(p.HeldContracts),
			strconv.Itoa(p.OpenPutContracts),
			strconv.Itoa(p.OpenCallContracts),
			formatF(p.Z),
		})
	}
	cw.Flush()
	return buf.Bytes()
}

// ReturnsCSV renders daily simple returns of the equity curve.
func ReturnsCSV(points []core.EquityPoint) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	rets := sim.Returns(points)
	_ = cw.Write([]string{"date", "ret"})
	for i, p := range points {
		_ = cw.Write([]string{p.Date.Format(dateLayout), formatF(rets[i])})
	}
	cw.Flush()
	return buf.Bytes()
}

// TradesCSV renders the trade ledger.
func TradesCSV(trades []core.TradeRecord) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	_ = cw.Write([]string{
		"date", "type", "contracts", "premium_per_contract",
		"entry_price", "exit_price", "points", "pnl_usd", "cash_change", "note",
	})
	for _, t := range trades {
		_ = cw.Write([]string{
			t.Date.Format(dateLayout),
			string(t.Type),
			strconv.Itoa(t.Contracts),
			formatF(t.Premium),
			formatF(t.EntryPrice), formatF(t.ExitPrice),
			formatF(t.Points), formatF(t.PnL), formatF(t.CashChange),
			t.Note,
		})
	}
	cw.Flush()
	return buf.Bytes()
}

// StatsCSV renders the stats table as name,value rows. Undefined
// statistics render as NaN.
func StatsCSV(s sim.Stats) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	_ = cw.Write([]string{"name", "value"})
	rows := [][2]string{
		{"Final Equity", formatF(s.FinalEquity)},
		{"CAGR", formatF(s.CAGR)},
		{"Sharpe", formatF(s.Sharpe)},
		{"Max Drawdown", formatF(s.MaxDrawdown)},
		{"Max Open Puts", strconv.Itoa(s.MaxOpenPuts)},
		{"Max Held Contracts", strconv.Itoa(s.MaxHeldContracts)},
		{"Total Trades", strconv.Itoa(s.TotalTrades)},
	}
	for _, r := range rows {
		_ = cw.Write([]string{r[0], r[1]})
	}
	cw.Flush()
	return buf.Bytes()
}

// PathsCSV renders per-path stats of a Monte Carlo sweep.
func PathsCSV(results []sim.PathResult) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	_ = cw.Write([]string{"path", "seed", "final_equity", "cagr", "sharpe", "max_drawdown", "total_trades"})
	for _, r := range results {
		_ = cw.Write([]string{
			strconv.Itoa(r.Path),
			strconv.FormatInt(r.Seed, 10),
			formatF(r.Stats.FinalEquity),
			formatF(r.Stats.CAGR),
			formatF(r.Stats.Sharpe),
			formatF(r.Stats.MaxDrawdown),
			strconv.Itoa(r.Stats.TotalTrades),
		})
	}
	cw.Flush()
	return buf.Bytes()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

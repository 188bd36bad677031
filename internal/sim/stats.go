package sim

import (
	"encoding/json"
	"math"

	"github.com/nniranjan/mnqsim/internal/core"
)

const periodsPerYear = 252

// Stats holds the summary of one completed run. Degenerate values
// (too few samples, zero-variance returns) are NaN, not errors.
type Stats struct {
	FinalEquity      float64 `json:"final_equity"`
	CAGR             float64 `json:"cagr"`
	Sharpe           float64 `json:"sharpe"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxOpenPuts      int     `json:"max_open_puts"`
	MaxHeldContracts int     `json:"max_held_contracts"`
	TotalTrades      int     `json:"total_trades"`
}

// MarshalJSON renders undefined statistics as null. encoding/json
// rejects IEEE NaN and Inf outright, which would otherwise turn a
// degenerate run into an unserializable result.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FinalEquity      any `json:"final_equity"`
		CAGR             any `json:"cagr"`
		Sharpe           any `json:"sharpe"`
		MaxDrawdown      any `json:"max_drawdown"`
		MaxOpenPuts      int `json:"max_open_puts"`
		MaxHeldContracts int `json:"max_held_contracts"`
		TotalTrades      int `json:"total_trades"`
	}{
		FinalEquity:      floatOrNull(s.FinalEquity),
		CAGR:             floatOrNull(s.CAGR),
		Sharpe:           floatOrNull(s.Sharpe),
		MaxDrawdown:      floatOrNull(s.MaxDrawdown),
		MaxOpenPuts:      s.MaxOpenPuts,
		MaxHeldContracts: s.MaxHeldContracts,
		TotalTrades:      s.TotalTrades,
	})
}

func floatOrNull(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// Summarize computes run statistics from the completed equity curve and
// trade ledger. Pure function of its inputs.
func Summarize(equity []core.EquityPoint, trades []core.TradeRecord) Stats {
	s := Stats{
		FinalEquity: math.NaN(),
		CAGR:        math.NaN(),
		Sharpe:      math.NaN(),
		MaxDrawdown: math.NaN(),
		TotalTrades: len(trades),
	}
	if len(equity) == 0 {
		return s
	}

	s.FinalEquity = equity[len(equity)-1].Equity
	for _, p := range equity {
		if p.OpenPutContracts > s.MaxOpenPuts {
			s.MaxOpenPuts = p.OpenPutContracts
		}
		if p.HeldContracts > s.MaxHeldContracts {
			s.MaxHeldContracts = p.HeldContracts
		}
	}

	s.CAGR = cagr(equity)
	s.Sharpe = sharpe(Returns(equity))
	s.MaxDrawdown = maxDrawdown(equity)
	return s
}

// Returns computes daily simple returns of the equity curve. The first
// return is defined as 0. Returns slice of length: len(equity).
func Returns(equity []core.EquityPoint) []float64 {
	if len(equity) == 0 {
		return nil
	}
	rets := make([]float64, len(equity))
	for i := 1; i < len(equity); i++ {
		rets[i] = equity[i].Equity/equity[i-1].Equity - 1
	}
	return rets
}

// cagr annualizes the total growth over the sample, assuming 252
// trading days per year. NaN for fewer than 2 samples.
func cagr(equity []core.EquityPoint) float64 {
	if len(equity) < 2 {
		return math.NaN()
	}
	years := float64(len(equity)) / periodsPerYear
	return math.Pow(equity[len(equity)-1].Equity/equity[0].Equity, 1/years) - 1
}

// sharpe is the annualized mean/std of daily returns, risk-free rate 0.
// Sample std (n-1 divisor). NaN for an all-flat equity curve or fewer
// than two samples.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return math.NaN()
	}
	return math.Sqrt(periodsPerYear) * mean / std
}

// maxDrawdown is the worst equity decline from a running peak,
// expressed as a negative fraction. 0 iff equity never declines.
func maxDrawdown(equity []core.EquityPoint) float64 {
	if len(equity) == 0 {
		return math.NaN()
	}
	peak := equity[0].Equity
	worst := 0.0
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak != 0 {
			dd := p.Equity/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

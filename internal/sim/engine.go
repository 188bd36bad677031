// Package sim runs a daily price series through the options-overlay
// strategy: 1-day put writing on z-score dips, 2-day covered calls on
// z-score spikes, and +TargetPoints profit-taking on assigned longs.
package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/nniranjan/mnqsim/internal/core"
	"github.com/nniranjan/mnqsim/internal/signal"
)

// PutTicket is a batch of sold puts expiring the next trading day.
// Assignment is decided at sale time by per-contract Bernoulli draws,
// not at expiry against a strike.
type PutTicket struct {
	OpenedOn  time.Time
	Contracts int
	Premium   float64 // per contract
	ExpiresOn time.Time
	Assigned  int // 0..Contracts
}

// CallTicket is a batch of covered calls expiring two trading days out.
// Premium-only: collected at sale, no payoff at expiry.
type CallTicket struct {
	OpenedOn  time.Time
	Contracts int
	Premium   float64 // per contract
	ExpiresOn time.Time
}

// LongPosition is an index long opened by put assignment. It closes
// fully, never partially, once price has risen TargetPoints from entry.
type LongPosition struct {
	EntryDate  time.Time
	EntryPrice float64
	Contracts  int
}

// Result is the complete output of one run.
type Result struct {
	Equity []core.EquityPoint
	Trades []core.TradeRecord
	Stats  Stats
}

// state is the engine's mutable book. Only step touches it.
type state struct {
	cash      float64
	openPuts  []PutTicket
	openCalls []CallTicket
	positions []LongPosition
}

func (s *state) openPutContracts() int {
	n := 0
	for _, t := range s.openPuts {
		n += t.Contracts
	}
	return n
}

func (s *state) heldContracts() int {
	n := 0
	for _, p := range s.positions {
		n += p.Contracts
	}
	return n
}

func (s *state) usedNotional(perContract float64) float64 {
	return float64(s.openPutContracts()+s.heldContracts()) * perContract
}

// Run replays bars through the strategy and returns the equity curve,
// trade ledger, and summary statistics. All randomness comes from one
// generator seeded here, consumed in a fixed phase order, so a given
// (bars, cfg, seed) triple always reproduces the same output.
func Run(bars []core.Bar, cfg Config, seed int64) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("bars out of order at %s", bars[i].Date.Format("2006-01-02")))
		}
	}

	rows := signal.Compute(bars, cfg.Window)
	rng := rand.New(rand.NewSource(seed))

	st := &state{cash: cfg.StartEquity}
	res := &Result{
		Equity: make([]core.EquityPoint, 0, len(bars)),
		Trades: []core.TradeRecord{},
	}

	for i := range rows {
		step(st, res, rows, i, cfg, rng)
	}

	res.Stats = Summarize(res.Equity, res.Trades)
	return res, nil
}

// step processes one trading day. Phase order is load-bearing: expiries
// release notional before the day's signals are evaluated, and closures
// realize cash before the covered-call count is taken.
func step(st *state, res *Result, rows []signal.Row, i int, cfg Config, rng *rand.Rand) {
	day := rows[i].Date
	price := rows[i].Close

	// 1) Put expiry: assigned contracts convert to one aggregated long
	// at today's close. Premium was booked at sale; zero cash effect.
	if len(st.openPuts) > 0 {
		still := st.openPuts[:0]
		for _, t := range st.openPuts {
			if day.Before(t.ExpiresOn) {
				still = append(still, t)
				continue
			}
			if t.Assigned > 0 {
				st.positions = append(st.positions, LongPosition{
					EntryDate:  day,
					EntryPrice: price,
					Contracts:  t.Assigned,
				})
				res.Trades = append(res.Trades, core.TradeRecord{
					Date:       day,
					Type:       core.TradeAssignPut,
					Contracts:  t.Assigned,
					EntryPrice: price,
					CashChange: 0,
					Note:       fmt.Sprintf("assigned out of %d", t.Contracts),
				})
			}
		}
		st.openPuts = still
	}

	// 2) Call expiry: premium-only, no record.
	if len(st.openCalls) > 0 {
		still := st.openCalls[:0]
		for _, t := range st.openCalls {
			if day.Before(t.ExpiresOn) {
				still = append(still, t)
			}
		}
		st.openCalls = still
	}

	// 3) Close longs that reached the point target.
	if len(st.positions) > 0 {
		still := st.positions[:0]
		for _, p := range st.positions {
			points := price - p.EntryPrice
			if points < cfg.TargetPoints {
				still = append(still, p)
				continue
			}
			realized := points * cfg.PointValue * float64(p.Contracts)
			st.cash += realized
			res.Trades = append(res.Trades, core.TradeRecord{
				Date:       day,
				Type:       core.TradeCloseLong,
				Contracts:  p.Contracts,
				EntryPrice: p.EntryPrice,
				ExitPrice:  price,
				Points:     points,
				PnL:        realized,
				CashChange: realized,
			})
		}
		st.positions = still
	}

	z := rows[i].Z

	// 4) Put-sell signal. The cap clip happens before any ticket exists;
	// a clipped-to-zero signal still leaves a trace in the ledger.
	if !math.IsNaN(z) && z <= cfg.PutZ {
		used := st.usedNotional(cfg.ContractNotional)
		available := int(math.Max(0, math.Floor((cfg.RiskCap-used)/cfg.ContractNotional)))
		n := cfg.ContractChoices[rng.Intn(len(cfg.ContractChoices))]
		if n > available {
			n = available
		}
		if n > 0 {
			prem := clippedNormal(rng, cfg.PutPremium)
			assigned := 0
			for k := 0; k < n; k++ {
				if rng.Float64() < cfg.AssignProb {
					assigned++
				}
			}
			cashChange := prem * float64(n)
			st.cash += cashChange
			expires := day // last bar: expires same day, never converts
			if i+1 < len(rows) {
				expires = rows[i+1].Date
			}
			st.openPuts = append(st.openPuts, PutTicket{
				OpenedOn:  day,
				Contracts: n,
				Premium:   prem,
				ExpiresOn: expires,
				Assigned:  assigned,
			})
			res.Trades = append(res.Trades, core.TradeRecord{
				Date:       day,
				Type:       core.TradeSellPut,
				Contracts:  n,
				Premium:    prem,
				CashChange: cashChange,
				Note:       fmt.Sprintf("assign_prob=%.2f, assigned=%d", cfg.AssignProb, assigned),
			})
		} else {
			res.Trades = append(res.Trades, core.TradeRecord{
				Date: day,
				Type: core.TradeSkipPutCap,
				Note: fmt.Sprintf("cap hit; notional=%.0f", used),
			})
		}
	}

	// 5) Covered-call signal: one call per held contract, fully covered.
	if !math.IsNaN(z) && z >= cfg.CallZ && len(st.positions) > 0 {
		n := st.heldContracts()
		prem := clippedNormal(rng, cfg.CallPremium)
		cashChange := prem * float64(n)
		st.cash += cashChange
		expIdx := i + 2
		if expIdx > len(rows)-1 {
			expIdx = len(rows) - 1
		}
		st.openCalls = append(st.openCalls, CallTicket{
			OpenedOn:  day,
			Contracts: n,
			Premium:   prem,
			ExpiresOn: rows[expIdx].Date,
		})
		res.Trades = append(res.Trades, core.TradeRecord{
			Date:       day,
			Type:       core.TradeSellCoveredCall,
			Contracts:  n,
			Premium:    prem,
			CashChange: cashChange,
		})
	}

	// End-of-day mark.
	unreal := 0.0
	for _, p := range st.positions {
		unreal += (price - p.EntryPrice) * cfg.PointValue * float64(p.Contracts)
	}
	res.Equity = append(res.Equity, core.EquityPoint{
		Date:              day,
		Equity:            st.cash + unreal,
		Cash:              st.cash,
		Unrealized:        unreal,
		HeldContracts:     st.heldContracts(),
		OpenPutContracts:  st.openPutContracts(),
		OpenCallContracts: openCallContracts(st.openCalls),
		Z:                 z,
	})
}

func openCallContracts(calls []CallTicket) int {
	n := 0
	for _, t := range calls {
		n += t.Contracts
	}
	return n
}

// clippedNormal samples Normal(mean, sigma) clipped to [min, max].
func clippedNormal(rng *rand.Rand, pm PremiumModel) float64 {
	x := rng.NormFloat64()*pm.Sigma + pm.Mean
	if x < pm.Min {
		return pm.Min
	}
	if x > pm.Max {
		return pm.Max
	}
	return x
}

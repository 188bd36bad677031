package sim

import (
	"fmt"

	"github.com/nniranjan/mnqsim/internal/core"
)

// PremiumModel describes the clipped-normal distribution a per-contract
// option premium is sampled from, in USD.
type PremiumModel struct {
	Mean  float64
	Sigma float64
	Min   float64
	Max   float64
}

// Config parameterizes one simulation run. The historical and random
// presets share the engine; they differ only in thresholds, contract
// choices, and the risk cap.
type Config struct {
	Window int // rolling window for mean/std

	PutZ  float64 // sell puts when z <= PutZ
	CallZ float64 // sell covered calls when z >= CallZ and holding longs

	StartEquity      float64
	ContractNotional float64 // approximate notional per contract
	RiskCap          float64 // cap on (open puts + held contracts) notional
	PointValue       float64 // USD per index point
	TargetPoints     float64 // close a long after this many points of gain

	PutPremium  PremiumModel
	CallPremium PremiumModel
	AssignProb  float64 // per-contract probability a sold put is assigned

	// ContractChoices is the discrete set a put-sell contract count is
	// drawn from before the notional cap clips it.
	ContractChoices []int
}

// HistoricalPreset returns the strategy configuration used against
// fetched MNQ=F history.
func HistoricalPreset() Config {
	return Config{
		Window:           20,
		PutZ:             -1.5,
		CallZ:            +2.0,
		StartEquity:      1_000_000,
		ContractNotional: 60_000,
		RiskCap:          1_200_000,
		PointValue:       2.0,
		TargetPoints:     250,
		PutPremium:       PremiumModel{Mean: 105, Sigma: 10, Min: 80, Max: 130},
		CallPremium:      PremiumModel{Mean: 135, Sigma: 12, Min: 100, Max: 170},
		AssignProb:       0.35,
		ContractChoices:  []int{1, 2},
	}
}

// RandomPreset returns the strategy configuration used against
// synthetically generated markets. Looser triggers, bigger clips,
// slightly higher cap.
func RandomPreset() Config {
	cfg := HistoricalPreset()
	cfg.PutZ = -0.5
	cfg.CallZ = +0.75
	cfg.RiskCap = 1_350_000
	cfg.ContractChoices = []int{5, 6, 7}
	return cfg
}

// Validate checks the configuration for errors. Invalid configs fail
// up front, never mid-run.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("window must be positive, got %d", c.Window))
	}
	if len(c.ContractChoices) == 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("contract choice set cannot be empty"))
	}
	for _, n := range c.ContractChoices {
		if n <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("contract choices must be positive, got %d", n))
		}
	}
	if c.ContractNotional <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("contract notional must be positive, got %f", c.ContractNotional))
	}
	if c.PointValue <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("point value must be positive, got %f", c.PointValue))
	}
	if c.TargetPoints <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("target points must be positive, got %f", c.TargetPoints))
	}
	if c.PutZ >= c.CallZ {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("put trigger %f must be below call trigger %f", c.PutZ, c.CallZ))
	}
	if c.AssignProb < 0 || c.AssignProb > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("assignment probability must be in [0,1], got %f", c.AssignProb))
	}
	for _, pm := range []PremiumModel{c.PutPremium, c.CallPremium} {
		if pm.Min > pm.Max {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("premium clip range inverted: [%f, %f]", pm.Min, pm.Max))
		}
	}
	return nil
}

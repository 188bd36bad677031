// Package genmarket produces synthetic MNQ-like daily price series from
// a geometric Brownian motion with optional downward jumps.
package genmarket

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/nniranjan/mnqsim/internal/core"
)

const tradingDaysPerYear = 252

// Config parameterizes one generated path. Drift and Volatility are
// annualized; the jump component is Bernoulli-gated per day and added to
// that day's log return before compounding.
type Config struct {
	Years        int
	InitialLevel float64
	Drift        float64
	Volatility   float64
	JumpProb     float64
	JumpMean     float64
	JumpStd      float64
	Seed         int64
}

// Defaults returns the standard 5-year path configuration.
func Defaults() Config {
	return Config{
		Years:        5,
		InitialLevel: 15000,
		Drift:        0.07,
		Volatility:   0.25,
		JumpProb:     0.02,
		JumpMean:     -0.03,
		JumpStd:      0.03,
		Seed:         42,
	}
}

// Validate checks the generator configuration.
func (c Config) Validate() error {
	if c.Years <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("years must be positive, got %d", c.Years))
	}
	if c.InitialLevel <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial level must be positive, got %f", c.InitialLevel))
	}
	if c.Volatility < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("volatility cannot be negative, got %f", c.Volatility))
	}
	if c.JumpProb < 0 || c.JumpProb > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("jump probability must be in [0,1], got %f", c.JumpProb))
	}
	return nil
}

// Generate returns 252*Years daily bars on consecutive business days
// starting 2000-01-03. Deterministic for a fixed Seed: one generator,
// one fixed draw order (returns, jump gates, jump sizes, OHLC noise).
func Generate(cfg Config) ([]core.Bar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	n := tradingDaysPerYear * cfg.Years
	dt := 1.0 / tradingDaysPerYear

	rets := make([]float64, n)
	for i := range rets {
		rets[i] = (cfg.Drift-0.5*cfg.Volatility*cfg.Volatility)*dt +
			cfg.Volatility*math.Sqrt(dt)*rng.NormFloat64()
	}
	for i := range rets {
		if rng.Float64() < cfg.JumpProb {
			rets[i] += rng.NormFloat64()*cfg.JumpStd + cfg.JumpMean
		}
	}

	bars := make([]core.Bar, n)
	date := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	level := cfg.InitialLevel
	for i := 0; i < n; i++ {
		date = nextBusinessDay(date)

		open := level
		level *= math.Exp(rets[i])
		close := level

		hi := math.Max(open, close) * (1 + math.Abs(rng.NormFloat64())*0.002)
		lo := math.Min(open, close) * (1 - math.Abs(rng.NormFloat64())*0.002)
		vol := int64(math.Abs(rng.NormFloat64()) * 1e3)

		bars[i] = core.Bar{
			Date:   date,
			Open:   open,
			High:   hi,
			Low:    lo,
			Close:  close,
			Volume: vol,
		}
	}

	return bars, nil
}

// nextBusinessDay returns the first weekday strictly after d.
func nextBusinessDay(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return d
		}
	}
}

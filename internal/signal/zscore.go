// Package signal derives rolling z-scores from daily closes.
package signal

import (
	"math"

	"github.com/nniranjan/mnqsim/internal/core"
)

// Row is one bar augmented with its trailing rolling statistics.
// Z is NaN for the first window-1 days and for flat (zero variance) windows.
type Row struct {
	core.Bar
	Mean float64
	Std  float64
	Z    float64
}

// Compute returns one Row per input bar with the trailing population
// mean and standard deviation (divisor = window) of the close over the
// last window bars. Returns slice of length: len(bars). A window <= 0
// yields all-NaN rows. Pure function, no internal state.
func Compute(bars []core.Bar, window int) []Row {
	rows := make([]Row, len(bars))

	for i, b := range bars {
		rows[i] = Row{Bar: b, Mean: math.NaN(), Std: math.NaN(), Z: math.NaN()}
		if window <= 0 || i < window-1 {
			continue
		}

		n := float64(window)
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += bars[j].Close
		}
		mean := sum / n

		var sumSq float64
		for j := i - window + 1; j <= i; j++ {
			d := bars[j].Close - mean
			sumSq += d * d
		}
		std := math.Sqrt(sumSq / n)

		rows[i].Mean = mean
		rows[i].Std = std
		if std > 0 {
			rows[i].Z = (b.Close - mean) / std
		}
	}

	return rows
}

// Package indicator implements technical indicators as pure functions over price columns.
//
// Every function returns a new slice aligned 1:1 with its input. Positions without
// enough history hold math.NaN().
package indicator

import (
	"math"

	"github.com/rxtech-lab/barsim/pkg/errors"
)

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

func validatePeriod(name string, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
	}

	return nil
}

func validateLengths(lengths ...int) error {
	for _, l := range lengths[1:] {
		if l != lengths[0] {
			return errors.Newf(errors.ErrCodeInvalidParameter, "input columns have different lengths: %v", lengths)
		}
	}

	return nil
}

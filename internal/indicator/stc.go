package indicator

import "math"

// Smooth applies s[i] = s[i-1] + factor * (x[i] - s[i-1]), restarting from x[i] whenever s[i-1] is NaN.
func Smooth(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))

	for i, v := range values {
		if i == 0 || math.IsNaN(out[i-1]) {
			out[i] = v

			continue
		}

		out[i] = out[i-1] + factor*(v-out[i-1])
	}

	return out
}

// NormalizeSmooth rescales values to 0..100 within a trailing window, forward fills flat windows
// and smooths the result. Values stay NaN until the first complete window with a non-zero range.
func NormalizeSmooth(values []float64, window int, factor float64) ([]float64, error) {
	lowest, err := RollingMin(values, window)
	if err != nil {
		return nil, err
	}

	highest, err := RollingMax(values, window)
	if err != nil {
		return nil, err
	}

	normalized := nanSlice(len(values))

	for i, v := range values {
		rng := highest[i] - lowest[i]
		if rng > 0 {
			normalized[i] = (v - lowest[i]) / rng * 100
		}
	}

	return Smooth(ForwardFill(normalized), factor), nil
}

// STC is the Schaff Trend Cycle: the MACD difference normalized and smoothed twice.
func STC(close []float64, stcLength, fastLength, slowLength int, factor float64) ([]float64, error) {
	macd, err := MACDDiff(close, fastLength, slowLength)
	if err != nil {
		return nil, err
	}

	first, err := NormalizeSmooth(macd, stcLength, factor)
	if err != nil {
		return nil, err
	}

	return NormalizeSmooth(first, stcLength, factor)
}

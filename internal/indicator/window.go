package indicator

import "math"

// RollingMean is the mean over a trailing window of non-NaN values.
// At least minPeriods observations are required, otherwise the value is NaN.
func RollingMean(values []float64, window, minPeriods int) ([]float64, error) {
	if err := validatePeriod("window", window); err != nil {
		return nil, err
	}

	if err := validatePeriod("min periods", minPeriods); err != nil {
		return nil, err
	}

	out := nanSlice(len(values))

	for i := range values {
		sum := 0.0
		count := 0

		for j := max(0, i-window+1); j <= i; j++ {
			if math.IsNaN(values[j]) {
				continue
			}

			sum += values[j]
			count++
		}

		if count >= minPeriods {
			out[i] = sum / float64(count)
		}
	}

	return out, nil
}

// RollingMin is the minimum over a full trailing window. Windows that are incomplete or contain NaN yield NaN.
func RollingMin(values []float64, window int) ([]float64, error) {
	return rollingExtreme(values, window, math.Min)
}

// RollingMax is the maximum over a full trailing window. Windows that are incomplete or contain NaN yield NaN.
func RollingMax(values []float64, window int) ([]float64, error) {
	return rollingExtreme(values, window, math.Max)
}

func rollingExtreme(values []float64, window int, pick func(a, b float64) float64) ([]float64, error) {
	if err := validatePeriod("window", window); err != nil {
		return nil, err
	}

	out := nanSlice(len(values))

	for i := window - 1; i < len(values); i++ {
		v := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			v = pick(v, values[j])
		}

		// math.Min and math.Max propagate NaN
		out[i] = v
	}

	return out, nil
}

// ForwardFill replaces NaN values with the last non-NaN value seen.
func ForwardFill(values []float64) []float64 {
	out := make([]float64, len(values))
	last := math.NaN()

	for i, v := range values {
		if !math.IsNaN(v) {
			last = v
		}

		out[i] = last
	}

	return out
}

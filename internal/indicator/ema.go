package indicator

import "math"

// EMA is the exponential moving average with alpha = 2 / (span + 1), seeded with the first value
// and updated recursively (no bias adjustment). The first minPeriods-1 values are NaN.
// A NaN input leaves the average unchanged.
func EMA(values []float64, span, minPeriods int) ([]float64, error) {
	if err := validatePeriod("span", span); err != nil {
		return nil, err
	}

	if minPeriods < 0 {
		minPeriods = 0
	}

	alpha := 2.0 / float64(span+1)
	out := nanSlice(len(values))
	avg := math.NaN()
	observed := 0

	for i, v := range values {
		if !math.IsNaN(v) {
			observed++

			if math.IsNaN(avg) {
				avg = v
			} else {
				avg = alpha*v + (1-alpha)*avg
			}
		}

		if observed >= minPeriods {
			out[i] = avg
		}
	}

	return out, nil
}

// MACDDiff is the fast EMA minus the slow EMA of values, each requiring its full span of history.
func MACDDiff(values []float64, fastLength, slowLength int) ([]float64, error) {
	fast, err := EMA(values, fastLength, fastLength)
	if err != nil {
		return nil, err
	}

	slow, err := EMA(values, slowLength, slowLength)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i := range values {
		out[i] = fast[i] - slow[i]
	}

	return out, nil
}

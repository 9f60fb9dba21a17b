package indicator

import "math"

// TrueRange is max(high, prev close) - min(low, prev close). The first bar uses high - low.
func TrueRange(high, low, close []float64) ([]float64, error) {
	if err := validateLengths(len(high), len(low), len(close)); err != nil {
		return nil, err
	}

	out := make([]float64, len(high))

	for i := range high {
		if i == 0 {
			out[i] = high[i] - low[i]

			continue
		}

		prevClose := close[i-1]
		out[i] = math.Max(high[i], prevClose) - math.Min(low[i], prevClose)
	}

	return out, nil
}

// ATR is the simple rolling mean of the true range over length bars.
// Early bars average whatever history exists, so only an empty input produces no values.
func ATR(high, low, close []float64, length int) ([]float64, error) {
	if err := validatePeriod("atr length", length); err != nil {
		return nil, err
	}

	tr, err := TrueRange(high, low, close)
	if err != nil {
		return nil, err
	}

	return RollingMean(tr, length, 1)
}

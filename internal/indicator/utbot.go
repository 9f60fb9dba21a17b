package indicator

import "math"

// UTBotTrailingStop computes the UT Bot trailing stop from closes and ATR values.
//
// With loss = keyValue * atr, on a rising close the stop ratchets up to
// max(previous stop, close - loss). Otherwise it resets to close + loss.
// The first bar has no stop.
func UTBotTrailingStop(close, atr []float64, keyValue float64) ([]float64, error) {
	if err := validateLengths(len(close), len(atr)); err != nil {
		return nil, err
	}

	out := nanSlice(len(close))

	for i := 1; i < len(close); i++ {
		loss := keyValue * atr[i]

		if close[i] > close[i-1] {
			candidate := close[i] - loss
			if math.IsNaN(out[i-1]) {
				out[i] = candidate
			} else {
				out[i] = math.Max(out[i-1], candidate)
			}

			continue
		}

		out[i] = close[i] + loss
	}

	return out, nil
}

// UTBot returns the trailing stop and the crossings of close over it.
func UTBot(high, low, close []float64, keyValue float64, atrLength int) ([]float64, []Cross, error) {
	atr, err := ATR(high, low, close, atrLength)
	if err != nil {
		return nil, nil, err
	}

	stop, err := UTBotTrailingStop(close, atr, keyValue)
	if err != nil {
		return nil, nil, err
	}

	crosses, err := CrossOver(close, stop)
	if err != nil {
		return nil, nil, err
	}

	return stop, crosses, nil
}

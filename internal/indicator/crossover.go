package indicator

// Cross is the direction in which one series crossed another.
type Cross int

const (
	CrossNone Cross = iota
	CrossAbove
	CrossBelow
)

// CrossOver marks where a crosses above b (a > b now, a < b on the previous bar)
// and where it crosses below (a < b now, a > b on the previous bar).
// Comparisons with NaN are false, so bars next to missing values never cross.
func CrossOver(a, b []float64) ([]Cross, error) {
	if err := validateLengths(len(a), len(b)); err != nil {
		return nil, err
	}

	out := make([]Cross, len(a))

	for i := 1; i < len(a); i++ {
		switch {
		case a[i] > b[i] && a[i-1] < b[i-1]:
			out[i] = CrossAbove
		case a[i] < b[i] && a[i-1] > b[i-1]:
			out[i] = CrossBelow
		}
	}

	return out, nil
}

package engine

import (
	"math"

	"github.com/rxtech-lab/barsim/internal/types"
)

// CalcRealisticPrice returns the fill price of action at bar.
//
// A fraction 1/slippageFactor of the bar's open-to-close move is applied to the open, and the
// result is clamped so buys never fill below the open and sells never fill above it.
// math.Inf(1) fills exactly at the open. The open must be non-zero.
func CalcRealisticPrice(bar types.Bar, action types.ActionType, slippageFactor float64) float64 {
	slippageRate := (bar.Close - bar.Open) / bar.Open / slippageFactor
	slippagePrice := bar.Open + bar.Open*slippageRate

	if action == types.ActionTypeBuy {
		return math.Max(slippagePrice, bar.Open)
	}

	return math.Min(slippagePrice, bar.Open)
}

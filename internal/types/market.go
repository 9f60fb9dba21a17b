package types

import (
	"time"

	"github.com/rxtech-lab/barsim/pkg/errors"
)

// Bar is one OHLCV record of a fixed time interval.
type Bar struct {
	Symbol string    `yaml:"symbol" json:"symbol"`
	Time   time.Time `yaml:"time" json:"time"`
	Open   float64   `yaml:"open" json:"open"`
	High   float64   `yaml:"high" json:"high"`
	Low    float64   `yaml:"low" json:"low"`
	Close  float64   `yaml:"close" json:"close"`
	Volume float64   `yaml:"volume" json:"volume"`
}

// Kline is a bar as returned by a klines endpoint, with the remaining positional columns.
type Kline struct {
	Bar
	// CloseTime is the close time of the kline.
	CloseTime time.Time
	// QuoteAssetVolume is the traded volume in the quote asset.
	QuoteAssetVolume float64
	// NumberOfTrades is the number of trades within the kline.
	NumberOfTrades int64
	// TakerBuyBaseAssetVolume is the taker buy volume in the base asset.
	TakerBuyBaseAssetVolume float64
	// TakerBuyQuoteAssetVolume is the taker buy volume in the quote asset.
	TakerBuyQuoteAssetVolume float64
}

// Closes returns the close prices of the bars in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}

	return out
}

// Highs returns the high prices of the bars in order.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}

	return out
}

// Lows returns the low prices of the bars in order.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}

	return out
}

// ValidateBars checks that timestamps are strictly increasing and every open price is positive.
// The simulator itself never calls this; malformed bars only produce undefined numbers there.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.Open <= 0 {
			return errors.Newf(errors.ErrCodeInvalidBars, "bar %d at %s has non-positive open price %v", i, b.Time.Format(time.RFC3339), b.Open)
		}

		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidBars, "bar %d at %s is not after bar %d at %s",
				i, b.Time.Format(time.RFC3339), i-1, bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

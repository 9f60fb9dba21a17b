package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/barsim/internal/types"
)

// DataGenerator generates synthetic bars for tests, benchmarks and dry runs.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	Symbol    string
	StartTime time.Time
	// Interval is the duration between each bar
	Interval     time.Duration
	Count        int
	InitialPrice float64
	// Volatility is the standard deviation of the per bar return (0.02 = 2%)
	Volatility float64
	// Trend is the total drift spread over the series (-0.5 to 0.5 for bearish to bullish)
	Trend          float64
	VolumeBase     float64
	VolumeVariance float64
}

// DefaultConfig returns one trading year of daily bars.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "BTCUSDT",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          252,
		InitialPrice:   40000.0,
		Volatility:     0.02,
		Trend:          0.0,
		VolumeBase:     1000,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars following a geometric Brownian motion. Every bar opens at the previous close.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	barTime := config.StartTime
	drift := 0.0

	if config.Count > 0 {
		drift = config.Trend / float64(config.Count)
	}

	for i := range bars {
		open := price

		// Box-Muller
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		high := max(open, close) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := min(open, close) * (1 - g.rng.Float64()*config.Volatility*0.5)

		volume := config.VolumeBase * (1 + (g.rng.Float64()*2-1)*config.VolumeVariance)

		bars[i] = types.Bar{
			Symbol: config.Symbol,
			Time:   barTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(max(volume, 0), 2),
		}

		price = close
		barTime = barTime.Add(config.Interval)
	}

	return bars
}

// GenerateMultiSymbol generates a series per symbol with slightly varied price and volatility.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.Bar {
	var bars []types.Bar

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		bars = append(bars, g.Generate(config)...)
	}

	return bars
}

// LinearBars returns n bars where bar i opens at start + step*i, closes one above the open
// and ranges two either side of it.
func LinearBars(symbol string, n int, start, step float64) []types.Bar {
	bars := make([]types.Bar, n)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		open := start + step*float64(i)
		bars[i] = types.Bar{
			Symbol: symbol,
			Time:   t0.Add(time.Duration(i) * 24 * time.Hour),
			Open:   open,
			High:   open + 2,
			Low:    open - 2,
			Close:  open + 1,
			Volume: 100000,
		}
	}

	return bars
}

// GenerateYear generates one year of daily bars with a fixed seed.
func GenerateYear(symbol string) []types.Bar {
	config := DefaultConfig()
	config.Symbol = symbol

	return NewDataGenerator(42).Generate(config)
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}

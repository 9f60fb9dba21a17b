// Package evaluation derives summary statistics from a portfolio value series.
//
// All functions are pure. Returns are simple period returns and annualization assumes
// 252 periods per year, so bars finer than daily need to be rescaled by the caller.
package evaluation

import (
	"math"

	"github.com/rxtech-lab/barsim/internal/types"
)

// PeriodsPerYear is the number of bars assumed in one year.
const PeriodsPerYear = 252

// TotalReturn is final / first - 1.
func TotalReturn(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	return values[len(values)-1]/values[0] - 1
}

// AnnualizedReturn is (final / first) ^ (252 / n) - 1 with n the number of values.
func AnnualizedReturn(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	years := float64(len(values)) / PeriodsPerYear

	return math.Pow(values[len(values)-1]/values[0], 1/years) - 1
}

// Returns is the simple return between consecutive values. It has one element fewer than values.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i]/values[i-1] - 1
	}

	return out
}

// sampleStd is the standard deviation with one degree of freedom, skipping NaN values.
// It is NaN with fewer than two observations.
func sampleStd(values []float64) float64 {
	n := 0
	sum := 0.0

	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}

		n++
		sum += v
	}

	if n < 2 {
		return math.NaN()
	}

	mean := sum / float64(n)
	squares := 0.0

	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}

		squares += (v - mean) * (v - mean)
	}

	return math.Sqrt(squares / float64(n-1))
}

// AnnualizedSharpe is (annualized return - rf) / (std of returns * sqrt(252)).
// It is 0 when the denominator is zero or undefined.
func AnnualizedSharpe(values []float64, riskFree float64) float64 {
	std := sampleStd(Returns(values)) * math.Sqrt(PeriodsPerYear)
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return (AnnualizedReturn(values) - riskFree) / std
}

// DownsideDeviation is the sample standard deviation of the negative returns.
func DownsideDeviation(values []float64) float64 {
	var negative []float64

	for _, r := range Returns(values) {
		if r < 0 {
			negative = append(negative, r)
		}
	}

	return sampleStd(negative)
}

// Sortino is (annualized return - rf) / (downside deviation * sqrt(252)).
// It is 0 when the denominator is zero or undefined.
func Sortino(values []float64, riskFree float64) float64 {
	deviation := DownsideDeviation(values) * math.Sqrt(PeriodsPerYear)
	if deviation == 0 || math.IsNaN(deviation) {
		return 0
	}

	return (AnnualizedReturn(values) - riskFree) / deviation
}

// MaxDrawdown is the largest (running peak - value) / running peak.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	peak := math.Inf(-1)
	worst := 0.0

	for _, v := range values {
		peak = math.Max(peak, v)

		drawdown := (peak - v) / peak
		if drawdown > worst {
			worst = drawdown
		}
	}

	return worst
}

// Calmar is annualized return / max drawdown. It is not guarded: a series that never draws
// down gives ±Inf, or NaN when the annualized return is also 0.
func Calmar(values []float64) float64 {
	return AnnualizedReturn(values) / MaxDrawdown(values)
}

// Evaluate computes every metric with a zero risk-free rate. An empty series gives a zero Evaluation.
func Evaluate(values []float64) types.Evaluation {
	if len(values) == 0 {
		return types.Evaluation{}
	}

	return types.Evaluation{
		TotalReturn:      TotalReturn(values),
		AnnualizedReturn: AnnualizedReturn(values),
		SharpeRatio:      AnnualizedSharpe(values, 0),
		SortinoRatio:     Sortino(values, 0),
		MaxDrawdown:      MaxDrawdown(values),
		CalmarRatio:      Calmar(values),
		InitialValue:     values[0],
		FinalValue:       values[len(values)-1],
		Periods:          len(values),
	}
}

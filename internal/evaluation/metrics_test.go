package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) TestReturns() {
	suite.Nil(Returns([]float64{100}))

	r := Returns([]float64{100, 110, 99})
	suite.Require().Len(r, 2)
	suite.InDelta(0.1, r[0], 1e-12)
	suite.InDelta(-0.1, r[1], 1e-12)
}

func (suite *MetricsTestSuite) TestTotalAndAnnualizedReturn() {
	values := []float64{100, 110, 99, 121}

	suite.InDelta(0.21, TotalReturn(values), 1e-12)
	suite.InEpsilon(164238.77066398354, AnnualizedReturn(values), 1e-9)
}

func (suite *MetricsTestSuite) TestAnnualizedSharpe() {
	values := []float64{100, 110, 99, 121}

	suite.InEpsilon(63602.33582467939, AnnualizedSharpe(values, 0), 1e-9)
}

func (suite *MetricsTestSuite) TestSharpeZeroDenominator() {
	// constant growth has zero return volatility
	suite.Equal(0.0, AnnualizedSharpe([]float64{100, 110, 121}, 0))
	// a single return has an undefined sample std
	suite.Equal(0.0, AnnualizedSharpe([]float64{100, 110}, 0))
}

func (suite *MetricsTestSuite) TestSortino() {
	values := []float64{100, 90, 99, 81, 110}

	suite.InDelta(0.057854191187990234, DownsideDeviation(values), 1e-12)
	suite.InEpsilon(131.69836457768994, Sortino(values, 0), 1e-9)
}

func (suite *MetricsTestSuite) TestSortinoUndefinedDeviation() {
	// one negative return leaves the downside deviation undefined
	suite.Equal(0.0, Sortino([]float64{100, 110, 99, 121}, 0))
	// no negative returns at all
	suite.Equal(0.0, Sortino([]float64{100, 110, 121}, 0))
}

func (suite *MetricsTestSuite) TestMaxDrawdownAndCalmar() {
	values := []float64{100, 90, 99, 81, 110}

	suite.InDelta(0.19, MaxDrawdown(values), 1e-12)
	suite.InEpsilon(636.5930279186769, Calmar(values), 1e-9)
}

func (suite *MetricsTestSuite) TestCalmarWithoutDrawdownIsUnguarded() {
	suite.True(math.IsInf(Calmar([]float64{100, 110, 121}), 1))
}

// An all-equal series has no return and no drawdown. Calmar divides 0 by 0 here and is
// left as NaN rather than asserted to any particular value.
func (suite *MetricsTestSuite) TestConstantSeries() {
	e := Evaluate([]float64{100, 100, 100, 100})

	suite.Equal(0.0, e.TotalReturn)
	suite.Equal(0.0, e.AnnualizedReturn)
	suite.Equal(0.0, e.MaxDrawdown)
	suite.Equal(0.0, e.SharpeRatio)
	suite.Equal(0.0, e.SortinoRatio)
	suite.True(math.IsNaN(e.CalmarRatio))
	suite.Equal(4, e.Periods)
	suite.Equal(100.0, e.InitialValue)
	suite.Equal(100.0, e.FinalValue)
}

func (suite *MetricsTestSuite) TestEvaluateEmpty() {
	e := Evaluate(nil)
	suite.Equal(0, e.Periods)
	suite.Equal(0.0, e.TotalReturn)
}

func (suite *MetricsTestSuite) TestEvaluateIsPure() {
	values := []float64{100, 90, 99, 81, 110}
	snapshot := append([]float64(nil), values...)

	first := Evaluate(values)
	second := Evaluate(values)

	suite.Equal(first, second)
	suite.Equal(snapshot, values)
}

package types

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) TestWriteAndReadRunStats() {
	sl := 0.05
	stats := RunStats{
		ID:            "run-1",
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EngineVersion: "v1.0.0",
		Symbol:        "BTCUSDT",
		Strategy: StrategyInfo{
			Name:         "buy_and_hold",
			StopLossRate: &sl,
		},
		NumberOfBars: 6,
		Evaluation: Evaluation{
			TotalReturn:  0.5,
			SharpeRatio:  1.2,
			MaxDrawdown:  0.1,
			CalmarRatio:  3,
			InitialValue: 100,
			FinalValue:   150,
			Periods:      6,
		},
		Trades: TradeSummary{
			NumberOfTrades: 2,
			NetCashFlow:    50,
		},
		BuyAndHoldReturn: 0.4,
	}

	filePath := filepath.Join(suite.tempDir, "stats.yaml")
	suite.Require().NoError(WriteRunStats(filePath, stats))

	read, err := ReadRunStats(filePath)
	suite.Require().NoError(err)
	suite.Equal(stats, read)
}

func (suite *StatisticsTestSuite) TestWriteNonFiniteCalmar() {
	stats := RunStats{Evaluation: Evaluation{CalmarRatio: math.NaN(), SortinoRatio: math.Inf(1)}}

	filePath := filepath.Join(suite.tempDir, "stats.yaml")
	suite.Require().NoError(WriteRunStats(filePath, stats))

	data, err := os.ReadFile(filePath)
	suite.Require().NoError(err)

	var raw map[string]any
	suite.Require().NoError(yaml.Unmarshal(data, &raw))

	evaluation, ok := raw["evaluation"].(map[string]any)
	suite.Require().True(ok)
	suite.True(math.IsNaN(evaluation["calmar_ratio"].(float64)))
	suite.True(math.IsInf(evaluation["sortino_ratio"].(float64), 1))
}

func (suite *StatisticsTestSuite) TestWriteRunStatsInvalidPath() {
	err := WriteRunStats(filepath.Join(suite.tempDir, "missing", "stats.yaml"), RunStats{})
	suite.Error(err)
}

func (suite *StatisticsTestSuite) TestReadRunStatsMissingFile() {
	_, err := ReadRunStats(filepath.Join(suite.tempDir, "nope.yaml"))
	suite.Error(err)
}

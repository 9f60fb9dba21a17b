package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	enginev1 "github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/mocks"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

type BacktestCmdTestSuite struct {
	suite.Suite
	tempDir string
	out     *bytes.Buffer
}

func TestBacktestCmdSuite(t *testing.T) {
	suite.Run(t, new(BacktestCmdTestSuite))
}

func (suite *BacktestCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.out = &bytes.Buffer{}
}

func (suite *BacktestCmdTestSuite) run(args ...string) error {
	cmd := newCommand()
	cmd.Writer = suite.out

	return cmd.Run(context.Background(), append([]string{"backtest"}, args...))
}

func (suite *BacktestCmdTestSuite) writeData(name string, bars []types.Bar) string {
	dataWriter := writer.NewDuckDBWriter(filepath.Join(suite.tempDir, name))
	defer dataWriter.Close()

	suite.Require().NoError(dataWriter.Initialize())

	for _, bar := range bars {
		suite.Require().NoError(dataWriter.Write(bar))
	}

	path, err := dataWriter.Finalize()
	suite.Require().NoError(err)

	return path
}

func (suite *BacktestCmdTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.tempDir, "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *BacktestCmdTestSuite) TestRun() {
	dataPath := suite.writeData("BTCUSDT.csv", mocks.GenerateYear("BTCUSDT"))
	configPath := suite.writeConfig(`
initial_capital: 10000
commission: 1
strategy:
  name: ut_bot
  stop_loss_rate: 0.1
`)
	resultsDir := filepath.Join(suite.tempDir, "results")

	err := suite.run("run", "-c", configPath, "-d", dataPath, "-r", resultsDir, "--quiet")
	suite.Require().NoError(err)

	output := suite.out.String()
	suite.Contains(output, "Results for ut_bot on BTCUSDT:")
	suite.Contains(output, "Max Drawdown:")
	suite.Contains(output, "Buy and Hold Return:")

	statsPath := filepath.Join(resultsDir, "ut_bot", "BTCUSDT", "BTCUSDT", enginev1.StatsFileName)
	suite.FileExists(statsPath)

	stats, err := types.ReadRunStats(statsPath)
	suite.Require().NoError(err)
	suite.Equal(252, stats.NumberOfBars)
	suite.Equal(dataPath, stats.DataPath)
}

func (suite *BacktestCmdTestSuite) TestRunMissingConfig() {
	err := suite.run("run", "-c", filepath.Join(suite.tempDir, "missing.yaml"), "-d", "data.csv")
	suite.Error(err)
	suite.Contains(err.Error(), "failed to read config")
}

func (suite *BacktestCmdTestSuite) TestRunRequiresFlags() {
	suite.Error(suite.run("run"))
}

func (suite *BacktestCmdTestSuite) TestSchema() {
	suite.Require().NoError(suite.run("schema"))
	suite.Contains(suite.out.String(), "initial_capital")

	output := filepath.Join(suite.tempDir, "schema.json")
	suite.Require().NoError(suite.run("schema", "-o", output))

	content, err := os.ReadFile(output)
	suite.Require().NoError(err)
	suite.Contains(string(content), "backtest-engine-v1-config")
}

func (suite *BacktestCmdTestSuite) TestStrategies() {
	suite.Require().NoError(suite.run("strategies"))
	suite.Equal([]string{"buy_and_hold", "sell_and_hold", "ut_bot"}, strings.Fields(suite.out.String()))
}

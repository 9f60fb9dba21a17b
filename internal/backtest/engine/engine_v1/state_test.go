package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/backtest/engine"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/stretchr/testify/suite"
)

// BacktestStateTestSuite is a test suite for BacktestState
type BacktestStateTestSuite struct {
	suite.Suite
	state  *BacktestState
	logger *logger.Logger
}

// SetupSuite runs once before all tests in the suite
func (suite *BacktestStateTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()

	var err error
	suite.state, err = NewBacktestState(suite.logger)
	suite.Require().NoError(err)
	suite.Require().NotNil(suite.state)
}

// TearDownSuite runs once after all tests in the suite
func (suite *BacktestStateTestSuite) TearDownSuite() {
	if suite.state != nil {
		suite.state.Close()
	}
}

// SetupTest runs before each test
func (suite *BacktestStateTestSuite) SetupTest() {
	suite.Require().NoError(suite.state.Initialize())
}

// TearDownTest runs after each test
func (suite *BacktestStateTestSuite) TearDownTest() {
	suite.Require().NoError(suite.state.Cleanup())
}

// TestBacktestStateSuite runs the test suite
func TestBacktestStateSuite(t *testing.T) {
	suite.Run(t, new(BacktestStateTestSuite))
}

func stateFixture() engine.SimulationResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bar := func(i int, close float64) types.Bar {
		return types.Bar{
			Symbol: "BTCUSDT",
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   close - 1,
			High:   close + 1,
			Low:    close - 2,
			Close:  close,
			Volume: 10,
		}
	}

	return engine.SimulationResult{
		Rows: []types.AccountRow{
			{Bar: bar(0, 101), Signal: types.SignalEnterLong, Quantity: 1.0 / 3.0, Balance: 0, PortfolioValue: 101.0 / 3.0},
			{Bar: bar(1, 111), Signal: types.SignalDoNothing, Quantity: 1.0 / 3.0, Balance: 0, PortfolioValue: 37},
			{Bar: bar(2, 121), Signal: types.SignalCloseLong, Quantity: 0, Balance: 40, PortfolioValue: 40},
		},
		Trades: []types.Trade{
			{Index: 0, Time: start, Action: types.ActionTypeBuy, Quantity: 1.0 / 3.0, Price: 100, Commission: 0, Reason: types.ReasonSignal},
			{Index: 2, Time: start.Add(2 * time.Hour), Action: types.ActionTypeSell, Quantity: 1.0 / 3.0, Price: 120, Commission: 0, Reason: types.ReasonSignal},
		},
	}
}

func (suite *BacktestStateTestSuite) TestRecordAndGetAllTrades() {
	result := stateFixture()
	suite.Require().NoError(suite.state.Record(result, optional.None[int]()))

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Equal(result.Trades, trades)
}

func (suite *BacktestStateTestSuite) TestRecordRoundsToPrecision() {
	suite.Require().NoError(suite.state.Record(stateFixture(), optional.Some(2)))

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.Equal(0.33, trades[0].Quantity)
}

func (suite *BacktestStateTestSuite) TestCleanupClearsRecords() {
	suite.Require().NoError(suite.state.Record(stateFixture(), optional.None[int]()))
	suite.Require().NoError(suite.state.Cleanup())

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Empty(trades)
}

func (suite *BacktestStateTestSuite) TestWrite() {
	suite.Require().NoError(suite.state.Record(stateFixture(), optional.Some(4)))

	dir := suite.T().TempDir()
	backtestPath, tradesPath, err := suite.state.Write(filepath.Join(dir, "run"))
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(dir, "run", BacktestFileName), backtestPath)
	suite.Equal(filepath.Join(dir, "run", TradesFileName), tradesPath)

	content, err := os.ReadFile(backtestPath)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	suite.Len(lines, 4)
	suite.Equal("time,symbol,open,high,low,close,volume,strategy_signal,qty,balance,portfolio_value", lines[0])
	suite.Equal("-2", strings.Split(lines[3], ",")[7])

	content, err = os.ReadFile(tradesPath)
	suite.Require().NoError(err)

	lines = strings.Split(strings.TrimSpace(string(content)), "\n")
	suite.Len(lines, 3)
	suite.Equal("bar_index,time,action,quantity,price,commission,reason", lines[0])
	suite.Contains(lines[1], "buy")
	suite.Contains(lines[2], "sell")
}

func (suite *BacktestStateTestSuite) TestWriteEmptyRun() {
	dir := suite.T().TempDir()
	_, tradesPath, err := suite.state.Write(dir)
	suite.Require().NoError(err)

	content, err := os.ReadFile(tradesPath)
	suite.Require().NoError(err)
	suite.Equal("bar_index,time,action,quantity,price,commission,reason", strings.TrimSpace(string(content)))
}

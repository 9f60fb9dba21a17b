package engine

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/backtest/engine"
	"github.com/rxtech-lab/barsim/internal/backtest/engine/commission_fee"
	"github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/barsim/internal/strategy"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(0.0, config.InitialCapital)
	suite.Equal(engine.DefaultSlippageFactor, config.SlippageFactor)
	suite.Equal(commission_fee.BrokerFlat, config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.True(config.Interval.IsNone())
	suite.True(config.DecimalPrecision.IsNone())
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	config := TestConfig(startTime, endTime, commission_fee.BrokerZero)

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(commission_fee.BrokerZero, config.Broker)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
	suite.Equal(strategy.NameBuyAndHold, config.Strategy.Name)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAML() {
	content := `
initial_capital: 5000
slippage_factor: .inf
commission: 1.5
broker: flat
start_time: 2024-01-01T00:00:00Z
end_time: 2024-02-01T00:00:00Z
interval: 1h
symbols: [BTCUSDT]
decimal_precision: 4
engine_version: v1.0.0
strategy:
  name: ut_bot
  stop_loss_rate: 0.05
  params:
    key_value: 2
    atr_length: 14
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(content), &config))

	suite.Equal(5000.0, config.InitialCapital)
	suite.True(math.IsInf(config.SlippageFactor, 1))
	suite.Equal(1.5, config.Commission)
	suite.Equal(commission_fee.BrokerFlat, config.Broker)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())
	suite.Equal(datasource.Interval1h, config.Interval.Unwrap())
	suite.Equal([]string{"BTCUSDT"}, config.Symbols)
	suite.Equal(4, config.DecimalPrecision.Unwrap())
	suite.Equal("v1.0.0", config.EngineVersion)

	suite.Equal("ut_bot", config.Strategy.Name)
	suite.Equal(0.05, config.Strategy.StopLossRate.Unwrap())
	suite.True(config.Strategy.TakeProfitRate.IsNone())
	suite.Equal(2, config.Strategy.Params["key_value"])

	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLDefaults() {
	content := `
initial_capital: 100
strategy:
  name: buy_and_hold
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(content), &config))

	suite.Equal(engine.DefaultSlippageFactor, config.SlippageFactor)
	suite.Equal(commission_fee.BrokerFlat, config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.Interval.IsNone())
	suite.True(config.Strategy.StopLossRate.IsNone())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestValidate() {
	startTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		modify func(c *BacktestEngineV1Config)
		code   errors.ErrorCode
	}{
		{
			name:   "zero capital",
			modify: func(c *BacktestEngineV1Config) { c.InitialCapital = 0 },
			code:   errors.ErrCodeBacktestConfigError,
		},
		{
			name:   "negative slippage",
			modify: func(c *BacktestEngineV1Config) { c.SlippageFactor = -1 },
			code:   errors.ErrCodeBacktestConfigError,
		},
		{
			name:   "unknown broker",
			modify: func(c *BacktestEngineV1Config) { c.Broker = "robinhood" },
			code:   errors.ErrCodeBacktestConfigError,
		},
		{
			name: "end before start",
			modify: func(c *BacktestEngineV1Config) {
				c.StartTime, c.EndTime = c.EndTime, c.StartTime
			},
			code: errors.ErrCodeBacktestConfigError,
		},
		{
			name: "interval without bounds",
			modify: func(c *BacktestEngineV1Config) {
				c.EndTime = optional.None[time.Time]()
				c.Interval = optional.Some(datasource.Interval1d)
			},
			code: errors.ErrCodeBacktestConfigError,
		},
		{
			name:   "newer engine required",
			modify: func(c *BacktestEngineV1Config) { c.EngineVersion = "v9.0.0" },
			code:   errors.ErrCodeVersionMismatch,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := TestConfig(startTime, endTime, commission_fee.BrokerFlat)
			tc.modify(&config)

			err := config.Validate()
			suite.Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
		})
	}
}

func (suite *ConfigTestSuite) TestSimulationParams() {
	config := TestConfig(time.Now(), time.Now(), commission_fee.BrokerInteractiveBroker)

	params, err := config.SimulationParams()
	suite.Require().NoError(err)
	suite.Equal(10000.0, params.StartingBalance)
	suite.Equal(engine.DefaultSlippageFactor, params.SlippageFactor)
	suite.Equal(1.0, params.Commission.Calculate(10))

	config.Broker = "unknown"
	_, err = config.SimulationParams()
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestToStrategyConfig() {
	config := TestConfig(time.Now(), time.Now(), commission_fee.BrokerFlat)
	config.Strategy.Params = map[string]any{"key_value": 3}

	strategyConfig := config.Strategy.ToStrategyConfig()
	suite.Equal(strategy.NameBuyAndHold, strategyConfig.Name)
	suite.True(strategyConfig.StopLossRate.IsNone())
	suite.Equal(3, strategyConfig.Params["key_value"])
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &parsed))

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "initial_capital")
	suite.Contains(properties, "slippage_factor")
	suite.Contains(properties, "strategy")

	broker, ok := properties["broker"].(map[string]any)
	suite.Require().True(ok)
	suite.ElementsMatch([]any{"flat", "zero_commission", "interactive_broker"}, broker["enum"])

	startTime, ok := properties["start_time"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])
}

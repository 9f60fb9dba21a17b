package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/backtest/engine"
	"github.com/rxtech-lab/barsim/internal/backtest/engine/commission_fee"
	"github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/barsim/internal/strategy"
	"github.com/rxtech-lab/barsim/internal/version"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// StrategySection selects the strategy a backtest runs. An empty name means strategies
// are loaded with LoadStrategy instead.
type StrategySection struct {
	Name           string                   `yaml:"name" json:"name" jsonschema:"title=Strategy,description=Registered strategy name such as buy_and_hold or ut_bot"`
	StopLossRate   optional.Option[float64] `yaml:"stop_loss_rate" json:"stop_loss_rate" jsonschema:"title=Stop Loss Rate,description=Optional stop loss as a fraction of the entry price"`
	TakeProfitRate optional.Option[float64] `yaml:"take_profit_rate" json:"take_profit_rate" jsonschema:"title=Take Profit Rate,description=Optional take profit as a fraction of the entry price"`
	Params         map[string]any           `yaml:"params" json:"params" jsonschema:"title=Parameters,description=Strategy specific parameters"`
}

// UnmarshalYAML implements custom unmarshaling for StrategySection
func (s *StrategySection) UnmarshalYAML(value *yaml.Node) error {
	type Section struct {
		Name           string         `yaml:"name"`
		StopLossRate   *float64       `yaml:"stop_loss_rate"`
		TakeProfitRate *float64       `yaml:"take_profit_rate"`
		Params         map[string]any `yaml:"params"`
	}

	var section Section
	if err := value.Decode(&section); err != nil {
		return err
	}

	s.Name = section.Name
	s.Params = section.Params
	s.StopLossRate = optional.None[float64]()
	s.TakeProfitRate = optional.None[float64]()

	if section.StopLossRate != nil {
		s.StopLossRate = optional.Some(*section.StopLossRate)
	}

	if section.TakeProfitRate != nil {
		s.TakeProfitRate = optional.Some(*section.TakeProfitRate)
	}

	return nil
}

// ToStrategyConfig converts the section into a registry lookup.
func (s StrategySection) ToStrategyConfig() strategy.Config {
	return strategy.Config{
		Name:           s.Name,
		StopLossRate:   s.StopLossRate,
		TakeProfitRate: s.TakeProfitRate,
		Params:         s.Params,
	}
}

type BacktestEngineV1Config struct {
	InitialCapital   float64                              `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting balance in quote currency,minimum=0,required"`
	SlippageFactor   float64                              `yaml:"slippage_factor" json:"slippage_factor" validate:"gt=0" jsonschema:"title=Slippage Factor,description=Divisor applied to the bar move when filling. Use .inf to fill at the open,default=5"`
	Commission       float64                              `yaml:"commission" json:"commission" validate:"gte=0" jsonschema:"title=Commission,description=Fee charged on every fill when the broker is flat,minimum=0"`
	Broker           commission_fee.Broker                `yaml:"broker" json:"broker" validate:"omitempty,oneof=flat zero_commission interactive_broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	StartTime        optional.Option[time.Time]           `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time]           `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Interval         optional.Option[datasource.Interval] `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Optional bar size to resample the data to. Requires start and end time"`
	Symbols          []string                             `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Symbols to backtest. Empty means every symbol in the data"`
	Strategy         StrategySection                      `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy"`
	DecimalPrecision optional.Option[int]                 `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Optional number of decimals kept in result files,minimum=0"`
	EngineVersion    string                               `yaml:"engine_version" json:"engine_version" jsonschema:"title=Engine Version,description=Minimum engine version the config was written for"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		InitialCapital   float64               `yaml:"initial_capital"`
		SlippageFactor   *float64              `yaml:"slippage_factor"`
		Commission       float64               `yaml:"commission"`
		Broker           commission_fee.Broker `yaml:"broker"`
		StartTime        *time.Time            `yaml:"start_time"`
		EndTime          *time.Time            `yaml:"end_time"`
		Interval         *datasource.Interval  `yaml:"interval"`
		Symbols          []string              `yaml:"symbols"`
		Strategy         StrategySection       `yaml:"strategy"`
		DecimalPrecision *int                  `yaml:"decimal_precision"`
		EngineVersion    string                `yaml:"engine_version"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	*c = EmptyConfig()
	c.InitialCapital = config.InitialCapital
	c.Commission = config.Commission
	c.Symbols = config.Symbols
	c.Strategy = config.Strategy
	c.EngineVersion = config.EngineVersion

	if config.Broker != "" {
		c.Broker = config.Broker
	}

	if config.SlippageFactor != nil {
		c.SlippageFactor = *config.SlippageFactor
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if config.Interval != nil {
		c.Interval = optional.Some(*config.Interval)
	}

	if config.DecimalPrecision != nil {
		c.DecimalPrecision = optional.Some(*config.DecimalPrecision)
	}

	return nil
}

// Validate checks the field constraints and the engine version requirement.
func (c BacktestEngineV1Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time must not be before start_time")
	}

	if c.Interval.IsSome() && (c.StartTime.IsNone() || c.EndTime.IsNone()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "interval requires both start_time and end_time")
	}

	if c.DecimalPrecision.IsSome() && c.DecimalPrecision.Unwrap() < 0 {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "decimal_precision must not be negative, got %d", c.DecimalPrecision.Unwrap())
	}

	return version.CheckCompatibility(version.GetVersion(), c.EngineVersion)
}

// SimulationParams builds the simulator settings for this config.
func (c BacktestEngineV1Config) SimulationParams() (engine.SimulationParams, error) {
	commissionFee, err := commission_fee.GetCommissionFeeHandler(c.Broker, c.Commission)
	if err != nil {
		return engine.SimulationParams{}, err
	}

	return engine.SimulationParams{
		StartingBalance: c.InitialCapital,
		SlippageFactor:  c.SlippageFactor,
		Commission:      commissionFee,
	}, nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeFor[optional.Option[time.Time]]():
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			case reflect.TypeFor[optional.Option[float64]]():
				return &jsonschema.Schema{
					Type: "number",
				}
			case reflect.TypeFor[optional.Option[int]]():
				return &jsonschema.Schema{
					Type: "integer",
				}
			case reflect.TypeFor[optional.Option[datasource.Interval]]():
				return &jsonschema.Schema{
					Type: "string",
					Enum: datasource.AllIntervals,
				}
			case reflect.TypeFor[commission_fee.Broker]():
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)
	config.Strategy = StrategySection{
		Name:           strategy.NameBuyAndHold,
		StopLossRate:   optional.None[float64](),
		TakeProfitRate: optional.None[float64](),
	}

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   0,
		SlippageFactor:   engine.DefaultSlippageFactor,
		Commission:       0,
		Broker:           commission_fee.BrokerFlat,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Interval:         optional.None[datasource.Interval](),
		Symbols:          nil,
		DecimalPrecision: optional.None[int](),
		EngineVersion:    "",
	}
}

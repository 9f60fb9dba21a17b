package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Evaluation holds the summary statistics derived from a portfolio value series.
type Evaluation struct {
	// TotalReturn is final / first - 1.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// AnnualizedReturn assumes 252 periods per year.
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
	SharpeRatio      float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio     float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	// MaxDrawdown is the largest fall from the running peak as a fraction of that peak.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// CalmarRatio is not guarded and may be NaN or infinite when there is no drawdown.
	CalmarRatio  float64 `yaml:"calmar_ratio" json:"calmar_ratio"`
	InitialValue float64 `yaml:"initial_value" json:"initial_value"`
	FinalValue   float64 `yaml:"final_value" json:"final_value"`
	Periods      int     `yaml:"periods" json:"periods"`
}

// StrategyInfo describes the strategy that produced a run.
type StrategyInfo struct {
	Name           string         `yaml:"name" json:"name"`
	StopLossRate   *float64       `yaml:"stop_loss_rate,omitempty" json:"stop_loss_rate,omitempty"`
	TakeProfitRate *float64       `yaml:"take_profit_rate,omitempty" json:"take_profit_rate,omitempty"`
	Params         map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// RunStats is the metadata and results of one backtest run, written as stats.yaml.
type RunStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp     time.Time    `yaml:"timestamp" json:"timestamp"`
	EngineVersion string       `yaml:"engine_version" json:"engine_version"`
	Symbol        string       `yaml:"symbol" json:"symbol"`
	Strategy      StrategyInfo `yaml:"strategy" json:"strategy"`
	// DataPath is the path to the market data file used for this backtest.
	DataPath string `yaml:"data_path" json:"data_path"`
	// BacktestFilePath is the path to the augmented bar table.
	BacktestFilePath string `yaml:"backtest_file_path" json:"backtest_file_path"`
	// TradesFilePath is the path to the trade ledger.
	TradesFilePath string       `yaml:"trades_file_path" json:"trades_file_path"`
	NumberOfBars   int          `yaml:"number_of_bars" json:"number_of_bars"`
	Evaluation     Evaluation   `yaml:"evaluation" json:"evaluation"`
	Trades         TradeSummary `yaml:"trades" json:"trades"`
	// BuyAndHoldReturn is last close / first close - 1, for comparison.
	BuyAndHoldReturn float64 `yaml:"buy_and_hold_return" json:"buy_and_hold_return"`
}

func WriteRunStats(path string, stats RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}

func ReadRunStats(path string) (RunStats, error) {
	var stats RunStats

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, fmt.Errorf("failed to read run stats file: %w", err)
	}

	if err := yaml.Unmarshal(data, &stats); err != nil {
		return stats, fmt.Errorf("failed to unmarshal run stats: %w", err)
	}

	return stats, nil
}

package engine

import (
	"context"

	"github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/barsim/internal/strategy"
	"github.com/rxtech-lab/barsim/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalStrategies int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnStrategyStartCallback is called when a strategy iteration begins.
type OnStrategyStartCallback func(strategyIndex int, strategyName string, totalStrategies int) error

// OnStrategyEndCallback is called when a strategy iteration ends.
type OnStrategyEndCallback func(strategyIndex int, strategyName string)

// OnRunStartCallback is called when a symbol of a data file starts simulating.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, symbol string, dataFileIndex int, dataFilePath string, totalBars int) error

// OnRunEndCallback is called after the results of a run have been written.
type OnRunEndCallback func(runID string, symbol string, dataFilePath string, resultFolderPath string, stats types.RunStats)

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnStrategyStart *OnStrategyStartCallback
	OnStrategyEnd   *OnStrategyEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	// The strategy named in the configuration is created and loaded.
	Initialize(config string) error
	// SetDataPath sets the path to the market data file. Supports loading data from:
	// 1. Multiple files for a single symbol (e.g., BTCUSDT_2023.parquet, BTCUSDT_2024.parquet)
	// 2. Multiple symbols in one file, each simulated separately
	// Accepts glob patterns for batch loading (e.g., "data/*.parquet")
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Results are written to <folder>/<strategy>/<time range>/<data file>/<symbol>.
	SetResultsFolder(folder string) error
	// LoadStrategy adds a strategy. Could be called multiple times to load multiple strategies.
	LoadStrategy(strategy strategy.Strategy) error
	// Run runs every loaded strategy over every data file.
	// The context can be used to cancel the backtest operation.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}

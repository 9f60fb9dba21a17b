package engine

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/backtest/engine"
	"github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/barsim/internal/evaluation"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/internal/strategy"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/internal/version"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config     BacktestEngineV1Config
	registry   strategy.Registry
	strategies []strategy.Strategy
	// configuredIndex is the position in strategies of the strategy built from the config.
	configuredIndex optional.Option[int]
	dataPaths       []string
	resultsFolder   string
	log             *logger.Logger
	state           *BacktestState
	datasource      datasource.DataSource
}

// NewBacktestEngineV1 creates an engine that logs with the production logger.
func NewBacktestEngineV1() engine.Engine {
	log, err := logger.NewLogger()
	if err != nil {
		log = logger.NewNopLogger()
	}

	return NewBacktestEngineV1WithLogger(log, strategy.DefaultRegistry())
}

// NewBacktestEngineV1WithLogger creates an engine with the given logger and strategy registry.
func NewBacktestEngineV1WithLogger(log *logger.Logger, registry strategy.Registry) engine.Engine {
	return &BacktestEngineV1{
		config:          EmptyConfig(),
		registry:        registry,
		strategies:      nil,
		configuredIndex: optional.None[int](),
		dataPaths:       nil,
		resultsFolder:   "",
		log:             log,
		state:           nil,
		datasource:      nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	var parsed BacktestEngineV1Config
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := parsed.Validate(); err != nil {
		return err
	}

	b.config = parsed

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	var configured strategy.Strategy

	if b.config.Strategy.Name != "" {
		strat, err := b.registry.Create(b.config.Strategy.ToStrategyConfig())
		if err != nil {
			return err
		}

		configured = strat
	}

	// the strategy of a previous config is replaced, loaded strategies are kept
	if b.configuredIndex.IsSome() {
		index := b.configuredIndex.Unwrap()
		b.strategies = slices.Delete(b.strategies, index, index+1)
		b.configuredIndex = optional.None[int]()
	}

	if configured != nil {
		if err := b.LoadStrategy(configured); err != nil {
			return err
		}

		b.configuredIndex = optional.Some(len(b.strategies) - 1)
	}

	if b.state == nil {
		state, err := NewBacktestState(b.log)
		if err != nil {
			return err
		}

		b.state = state
	}

	return b.state.Initialize()
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(strategy strategy.Strategy) error {
	if strategy == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is nil")
	}

	b.strategies = append(b.strategies, strategy)
	b.log.Debug("Strategy loaded",
		zap.String("strategy", strategy.Name()),
		zap.Int("total_strategies", len(b.strategies)),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "invalid data path %s", path)
	}

	if len(files) == 0 {
		return errors.Newf(errors.ErrCodeBacktestDataPathError, "no data files match %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.log.Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to resolve %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// Run implements engine.Engine. Without data paths the data source is used as it is.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err = b.preRunCheck(); err != nil {
		return err
	}

	params, err := b.config.SimulationParams()
	if err != nil {
		return err
	}

	if err = os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create results folder", err)
	}

	dataPaths := b.dataPaths
	if len(dataPaths) == 0 {
		dataPaths = []string{""}
	}

	if callbacks.OnBacktestStart != nil {
		if err = (*callbacks.OnBacktestStart)(len(b.strategies), len(dataPaths)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "backtest start callback failed", err)
		}
	}

	for strategyIndex, strat := range b.strategies {
		if err = checkCancelled(ctx); err != nil {
			return err
		}

		if callbacks.OnStrategyStart != nil {
			if err = (*callbacks.OnStrategyStart)(strategyIndex, strat.Name(), len(b.strategies)); err != nil {
				return errors.Wrap(errors.ErrCodeCallbackFailed, "strategy start callback failed", err)
			}
		}

		for dataIndex, dataPath := range dataPaths {
			if dataPath != "" {
				if err = b.datasource.Initialize(dataPath); err != nil {
					return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to initialize data source with %s", dataPath)
				}
			}

			var symbols []string

			symbols, err = b.symbols()
			if err != nil {
				return err
			}

			for _, symbol := range symbols {
				if err = b.runSymbol(ctx, callbacks, strat, params, dataIndex, dataPath, symbol); err != nil {
					return err
				}
			}
		}

		if callbacks.OnStrategyEnd != nil {
			(*callbacks.OnStrategyEnd)(strategyIndex, strat.Name())
		}
	}

	return nil
}

func (b *BacktestEngineV1) runSymbol(
	ctx context.Context,
	callbacks engine.LifecycleCallbacks,
	strat strategy.Strategy,
	params engine.SimulationParams,
	dataIndex int,
	dataPath string,
	symbol string,
) error {
	bars, err := b.loadBars(symbol)
	if err != nil {
		return err
	}

	if len(bars) == 0 {
		b.log.Warn("No bars to backtest",
			zap.String("symbol", symbol),
			zap.String("data", dataPath),
		)

		return nil
	}

	if err := types.ValidateBars(bars); err != nil {
		b.log.Warn("Malformed bars, results may be undefined",
			zap.String("symbol", symbol),
			zap.String("data", dataPath),
			zap.Error(err),
		)
	}

	runID := uuid.New().String()

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, symbol, dataIndex, dataPath, len(bars)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	resultFolderPath := getResultFolder(dataPath, symbol, b, strat)

	b.log.Debug("Running strategy",
		zap.String("run_id", runID),
		zap.String("strategy", strat.Name()),
		zap.String("symbol", symbol),
		zap.String("data", dataPath),
		zap.String("result", resultFolderPath),
		zap.Int("bars", len(bars)),
	)

	sim, err := engine.NewSimulator(bars, strat.CalcSignal(bars), strat, params)
	if err != nil {
		return err
	}

	for !sim.Done() {
		if err := checkCancelled(ctx); err != nil {
			return err
		}

		sim.Step()

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(sim.Processed(), len(bars)); err != nil {
				return errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	stats, err := b.writeResults(runID, strat, dataPath, symbol, bars, sim.Result(), resultFolderPath)
	if err != nil {
		return err
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(runID, symbol, dataPath, resultFolderPath, stats)
	}

	return nil
}

func (b *BacktestEngineV1) symbols() ([]string, error) {
	if len(b.config.Symbols) > 0 {
		return b.config.Symbols, nil
	}

	symbols, err := b.datasource.Symbols()
	if err != nil {
		return nil, err
	}

	if len(symbols) == 0 {
		return []string{""}, nil
	}

	return symbols, nil
}

func (b *BacktestEngineV1) loadBars(symbol string) ([]types.Bar, error) {
	if b.config.Interval.IsSome() {
		return b.datasource.GetRange(symbol, b.config.StartTime.Unwrap(), b.config.EndTime.Unwrap(), b.config.Interval)
	}

	var bars []types.Bar

	for bar, err := range b.datasource.ReadAll(symbol, b.config.StartTime, b.config.EndTime) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func (b *BacktestEngineV1) writeResults(
	runID string,
	strat strategy.Strategy,
	dataPath string,
	symbol string,
	bars []types.Bar,
	result engine.SimulationResult,
	resultFolderPath string,
) (stats types.RunStats, err error) {
	// the tables only hold one run, whether or not the files were written
	defer func() {
		if cleanupErr := b.state.Cleanup(); cleanupErr != nil && err == nil {
			err = cleanupErr
		}
	}()

	if err := b.state.Record(result, b.config.DecimalPrecision); err != nil {
		return types.RunStats{}, err
	}

	backtestPath, tradesPath, err := b.state.Write(resultFolderPath)
	if err != nil {
		return types.RunStats{}, err
	}

	stats = types.RunStats{
		ID:               runID,
		Timestamp:        time.Now().UTC(),
		EngineVersion:    version.GetVersion(),
		Symbol:           symbol,
		Strategy:         b.strategyInfo(strat),
		DataPath:         dataPath,
		BacktestFilePath: backtestPath,
		TradesFilePath:   tradesPath,
		NumberOfBars:     len(bars),
		Evaluation:       evaluation.Evaluate(types.PortfolioValues(result.Rows)),
		Trades:           types.SummarizeTrades(result.Trades),
		BuyAndHoldReturn: engine.BuyAndHoldReturn(bars),
	}

	if err := types.WriteRunStats(filepath.Join(resultFolderPath, StatsFileName), stats); err != nil {
		return types.RunStats{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats", err)
	}

	b.log.Info("Backtest run finished",
		zap.String("run_id", runID),
		zap.String("strategy", strat.Name()),
		zap.String("symbol", symbol),
		zap.Float64("total_return", stats.Evaluation.TotalReturn),
		zap.Float64("max_drawdown", stats.Evaluation.MaxDrawdown),
		zap.Int("trades", stats.Trades.NumberOfTrades),
	)

	return stats, nil
}

func (b *BacktestEngineV1) strategyInfo(strat strategy.Strategy) types.StrategyInfo {
	info := types.StrategyInfo{Name: strat.Name()}

	if rated, ok := strat.(interface {
		ExitRates() (optional.Option[float64], optional.Option[float64])
	}); ok {
		stopLoss, takeProfit := rated.ExitRates()
		if stopLoss.IsSome() {
			rate := stopLoss.Unwrap()
			info.StopLossRate = &rate
		}

		if takeProfit.IsSome() {
			rate := takeProfit.Unwrap()
			info.TakeProfitRate = &rate
		}
	}

	if strat.Name() == b.config.Strategy.Name {
		info.Params = b.config.Strategy.Params
	}

	return info
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil {
		b.log.Error("Engine not initialized")

		return errors.New(errors.ErrCodeBacktestInitFailed, "engine not initialized")
	}

	if len(b.strategies) == 0 {
		b.log.Error("No strategies loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if b.datasource == nil {
		b.log.Error("No data source set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no data source set")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	return nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled", err)
	}

	return nil
}

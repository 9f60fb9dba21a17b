package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/barsim/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/barsim/internal/evaluation"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/internal/strategy"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// runAction loads the config, runs every configured strategy over the data files and prints a report per run.
func runAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	quiet := cmd.Bool("quiet")

	config, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	appLogger, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return err
	}

	defer func() { _ = appLogger.Sync() }()

	backtest := enginev1.NewBacktestEngineV1WithLogger(appLogger, strategy.DefaultRegistry())
	if err := backtest.Initialize(string(config)); err != nil {
		return err
	}

	dataSource, err := datasource.NewDataSource("", appLogger)
	if err != nil {
		return err
	}

	defer dataSource.Close()

	if err := backtest.SetDataSource(dataSource); err != nil {
		return err
	}

	if err := backtest.SetDataPath(cmd.String("data")); err != nil {
		return err
	}

	if err := backtest.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, symbol string, _ int, dataPath string, totalBars int) error {
		bar = progressbar.NewOptions(totalBars,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("%s %s", symbol, dataPath)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetVisibility(!quiet),
		)

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) error {
		return bar.Set(current)
	})
	onRunEnd := engine.OnRunEndCallback(func(_ string, symbol string, _ string, resultFolderPath string, stats types.RunStats) {
		_ = bar.Finish()

		fmt.Fprint(out, evaluation.Report(fmt.Sprintf("%s on %s", stats.Strategy.Name, symbol), stats.Evaluation))
		fmt.Fprintf(out, "%-26s%.2f%%\n", "Buy and Hold Return:", stats.BuyAndHoldReturn*100)
		fmt.Fprintf(out, "%-26s%d\n", "Trades:", stats.Trades.NumberOfTrades)
		fmt.Fprintf(out, "%-26s%s\n\n", "Results:", resultFolderPath)
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return backtest.Run(ctx, engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	})
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := enginev1.NewBacktestEngineV1WithLogger(logger.NewNopLogger(), strategy.DefaultRegistry()).GetConfigSchema()
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		return os.WriteFile(output, []byte(schema), 0644)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func strategiesAction(_ context.Context, cmd *cli.Command) error {
	for _, name := range strategy.DefaultRegistry().List() {
		if _, err := fmt.Fprintln(cmd.Root().Writer, name); err != nil {
			return err
		}
	}

	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Backtest trading strategies on historical bars",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the configured strategy over one or more data files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the backtest config `FILE` (YAML)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Parquet or CSV data file. Glob patterns such as data/*.parquet are accepted",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Directory the results are written to",
						Value:   "results",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level (debug, info, warn, error)",
						Value: "warn",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Hide the progress bar",
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the backtest config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the schema to `FILE` instead of stdout",
					},
				},
				Action: schemaAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the available strategies",
				Action: strategiesAction,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// downloadConfig builds the provider download config from either the --config file or the flags.
func downloadConfig(cmd *cli.Command) (marketdata.DownloadConfig, error) {
	providerName := cmd.String("provider")

	if path := cmd.String("config"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read download config: %w", err)
		}

		return marketdata.ParseDownloadConfig(providerName, string(content))
	}

	base := marketdata.BaseDownloadConfig{
		Ticker:    cmd.String("ticker"),
		StartDate: cmd.String("start"),
		EndDate:   cmd.String("end"),
		Interval:  cmd.String("interval"),
	}

	var config marketdata.DownloadConfig

	switch marketdata.ProviderType(providerName) {
	case marketdata.ProviderPolygon:
		config = &marketdata.PolygonDownloadConfig{BaseDownloadConfig: base, ApiKey: cmd.String("api-key")}
	case marketdata.ProviderBinance:
		config = &marketdata.BinanceDownloadConfig{BaseDownloadConfig: base, BaseURL: cmd.String("base-url")}
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// downloadAction is the core logic executed by the download command.
// It parses arguments, sets up the market data client, and starts the download process.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	config, err := downloadConfig(cmd)
	if err != nil {
		return err
	}

	params, err := config.ToDownloadParams()
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return err
	}

	defer func() { _ = appLogger.Sync() }()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(params.Ticker),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(!cmd.Bool("quiet")),
	)

	onProgress := func(current float64, total float64, message string) {
		if total > 0 {
			bar.ChangeMax(int(total))
		}

		bar.Describe(message)
		_ = bar.Set(int(current))
	}

	format := writer.Format(cmd.String("format"))

	client, err := marketdata.NewClient(config.ToClientConfig(cmd.String("data"), format), onProgress, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	_ = bar.Finish()

	_, err = fmt.Fprintf(cmd.Root().Writer, "Downloaded %s %s bars to %s\n", params.Ticker, cmd.String("interval"), path)

	return err
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		auth := "no auth"
		if info.RequiresAuth {
			auth = "api key"
		}

		if _, err := fmt.Fprintf(cmd.Root().Writer, "%-10s %-12s %-8s %s\n", info.Name, info.DisplayName, auth, info.Description); err != nil {
			return err
		}
	}

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one provider, one of %v", marketdata.GetSupportedProviders())
	}

	schema, err := marketdata.GetDownloadConfigSchema(cmd.Args().First())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "market",
		Usage: "Download historical market data",
		Commands: []*cli.Command{
			{
				Name:  "download",
				Usage: "Download bars for one ticker into a Parquet or CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   fmt.Sprintf("Data provider to use (e.g., %s, %s)", marketdata.ProviderBinance, marketdata.ProviderPolygon),
						Value:   string(marketdata.ProviderBinance),
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "JSON download config `FILE`. Replaces the ticker, date, interval and provider specific flags",
					},
					&cli.StringFlag{
						Name:    "ticker",
						Aliases: []string{"t"},
						Usage:   "Ticker symbol such as BTCUSDT or SPY",
					},
					&cli.StringFlag{
						Name:    "start",
						Aliases: []string{"s"},
						Usage:   "Start date in `YYYY-MM-DD` format (or RFC3339)",
					},
					&cli.StringFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End date in `YYYY-MM-DD` format (or RFC3339)",
					},
					&cli.StringFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Bar interval such as 1m, 1h or 1d",
						Value:   string(marketdata.TimespanOneDay),
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Output format (%s or %s)", writer.FormatParquet, writer.FormatCSV),
						Value:   string(writer.FormatParquet),
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to the data output directory",
						Value:   "data",
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Polygon API key",
						Sources: cli.EnvVars("POLYGON_API_KEY"),
					},
					&cli.StringFlag{
						Name:  "base-url",
						Usage: "Override the Binance futures endpoint",
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
				Action: downloadAction,
			},
			{
				Name:   "providers",
				Usage:  "List the supported market data providers",
				Action: providersAction,
			},
			{
				Name:      "schema",
				Usage:     "Print the JSON schema of a provider's download config",
				ArgsUsage: "PROVIDER",
				Action:    schemaAction,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

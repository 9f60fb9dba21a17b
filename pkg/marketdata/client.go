package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata/provider"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType  `validate:"required,oneof=polygon binance"`
	WriterType    WriterType    `validate:"required,oneof=duckdb"`
	Format        writer.Format `validate:"omitempty,oneof=parquet csv"`
	DataPath      string        `validate:"required"`
	PolygonApiKey string        `validate:"required_if=ProviderType polygon"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `validate:"omitempty,url"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	logger     *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, provider.Options{
		APIKey:  config.PolygonApiKey,
		BaseURL: config.BaseURL,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	return newClientWithProvider(config, marketProvider, onProgress, log), nil
}

func newClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress provider.OnDownloadProgress, log *logger.Logger) *Client {
	if config.Format == "" {
		config.Format = writer.FormatParquet
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
		logger:     log,
	}
}

// Download initiates a market data download with the given parameters and returns the written file.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if err := marketWriter.Close(); err != nil {
			c.logger.Warn("Failed to close writer", zap.Error(err))
		}
	}()

	c.provider.ConfigWriter(marketWriter)

	c.logger.Debug("Starting download",
		zap.String("provider", string(c.config.ProviderType)),
		zap.String("ticker", params.Ticker),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
	)

	path, err := c.provider.Download(
		ctx,
		params.Ticker,
		params.StartDate,
		params.EndDate,
		params.Multiplier,
		params.Timespan,
		c.onProgress,
	)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return path, nil
}

// OutputFileName returns TICKER_START_END_MULTIPLIER_TIMESPAN.<format> for the download.
func OutputFileName(params DownloadParams, format writer.Format) string {
	return fmt.Sprintf("%s_%s_%s_%d_%s.%s",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Multiplier,
		params.Timespan,
		format)
}

// setupWriter creates the writer for the configured writer type. The provider initializes it.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create data path %s", c.config.DataPath)
		}

		outputPath := filepath.Join(c.config.DataPath, OutputFileName(params, c.config.Format))

		return writer.NewDuckDBWriter(outputPath), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}

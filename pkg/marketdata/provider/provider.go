package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type OnDownloadProgress = func(current float64, total float64, message string)

// StatusError is returned when a market data endpoint answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

type Provider interface {
	// ConfigWriter configures the writer for the provider
	// Writer is used to persist the downloaded bars.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads the data for the given ticker and date range.
	// The context can be used to cancel the download operation.
	// example:
	// Download(ctx, "BTCUSDT", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Hour, onProgress)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// Options configures provider construction.
type Options struct {
	// APIKey authenticates against providers that need one.
	APIKey string
	// BaseURL overrides the provider endpoint. Empty means the public endpoint.
	BaseURL string
	Logger  *logger.Logger
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, opts Options) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(opts.BaseURL, opts.Logger), nil
	case ProviderPolygon:
		client, err := NewPolygonClient(opts.APIKey, opts.Logger)
		if err != nil {
			return nil, err
		}

		return client, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

func reportProgress(onProgress OnDownloadProgress, current float64, total float64, message string) {
	if onProgress == nil {
		return
	}

	onProgress(current, total, message)
}

package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
	"go.uber.org/zap"
)

const polygonPageLimit = 50000

type PolygonClient struct {
	client *polygon.Client
	writer writer.MarketDataWriter
	logger *logger.Logger
}

func NewPolygonClient(apiKey string, log *logger.Logger) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "apiKey is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
		writer: nil,
		logger: log,
	}, nil
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download pages through the aggregates of ticker and writes them as bars.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for PolygonClient. Call ConfigWriter first")
	}

	if err = c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	total := float64(endDate.Sub(startDate).Milliseconds())
	message := fmt.Sprintf("Downloading %s", ticker)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(polygonPageLimit)

	iter := c.client.ListAggs(ctx, params)
	processedCount := 0

	for iter.Next() {
		bar := aggToBar(ticker, iter.Item())

		if err = c.writer.Write(bar); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write data", err)
		}

		processedCount++
		if processedCount%1000 == 0 {
			reportProgress(onProgress, min(float64(bar.Time.Sub(startDate).Milliseconds()), total), total, message)
		}
	}

	if iter.Err() != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	reportProgress(onProgress, total, total, message)
	c.logger.Info("Finished downloading aggregates",
		zap.String("ticker", ticker),
		zap.Int("bars", processedCount),
		zap.String("path", outputPath),
	)

	return outputPath, nil
}

func aggToBar(ticker string, agg models.Agg) types.Bar {
	return types.Bar{
		Symbol: ticker,
		Time:   time.Time(agg.Timestamp).UTC(),
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}

package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/moznion/go-optional"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
	"go.uber.org/zap"
)

const (
	// BinanceFuturesBaseURL is the public USD-M futures REST endpoint.
	BinanceFuturesBaseURL = "https://fapi.binance.com"
	// BinanceKlinesLimit is the page size requested from the klines endpoint.
	BinanceKlinesLimit = 1500
)

type BinanceClient struct {
	client *futures.Client
	writer writer.MarketDataWriter
	logger *logger.Logger
}

// statusTransport fails any non-200 response with a *StatusError before the binance client decodes it.
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

// NewBinanceClient creates a klines client against baseURL, or the public futures endpoint when empty.
func NewBinanceClient(baseURL string, log *logger.Logger) *BinanceClient {
	if baseURL == "" {
		baseURL = BinanceFuturesBaseURL
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	client := futures.NewClient("", "")
	client.BaseURL = baseURL
	client.HTTPClient = &http.Client{
		Transport: &statusTransport{base: http.DefaultTransport},
		Timeout:   30 * time.Second,
	}

	return &BinanceClient{
		client: client,
		writer: nil,
		logger: log,
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// FetchKlines returns every kline of symbol at interval from start onwards.
// Pages of BinanceKlinesLimit rows are requested with startTime set to the last open time plus one millisecond.
// Paging stops at the first empty page or, when end is set, once the last open time reaches end.
func (c *BinanceClient) FetchKlines(ctx context.Context, symbol string, interval string, start time.Time, end optional.Option[time.Time]) ([]types.Kline, error) {
	var out []types.Kline

	err := c.fetchPages(ctx, symbol, interval, start, end, func(page []types.Kline) error {
		out = append(out, page...)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *BinanceClient) fetchPages(ctx context.Context, symbol string, interval string, start time.Time, end optional.Option[time.Time], onPage func(page []types.Kline) error) error {
	currentStartTime := start.UnixMilli()

	for {
		service := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(BinanceKlinesLimit).
			StartTime(currentStartTime)

		if end.IsSome() {
			service = service.EndTime(end.Unwrap().UnixMilli())
		}

		klines, err := service.Do(ctx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines from Binance", symbol)
		}

		if len(klines) == 0 {
			return nil
		}

		page, err := convertKlines(symbol, klines)
		if err != nil {
			return err
		}

		if err := onPage(page); err != nil {
			return err
		}

		lastOpenTime := klines[len(klines)-1].OpenTime

		c.logger.Debug("Fetched klines page",
			zap.String("symbol", symbol),
			zap.String("interval", interval),
			zap.Int("rows", len(klines)),
			zap.Int64("last_open_time", lastOpenTime),
		)

		if end.IsSome() && lastOpenTime >= end.Unwrap().UnixMilli() {
			return nil
		}

		currentStartTime = lastOpenTime + 1
	}
}

// Download downloads the historical klines for the given ticker and date range from Binance
// and writes them as bars using the configured writer.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured. Call ConfigWriter first")
	}

	if err = c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	total := float64(endDate.Sub(startDate).Milliseconds())
	message := fmt.Sprintf("Downloading %s klines from Binance", ticker)
	written := 0

	err = c.fetchPages(ctx, ticker, interval, startDate, optional.Some(endDate), func(page []types.Kline) error {
		for _, kline := range page {
			if err := c.writer.Write(kline.Bar); err != nil {
				return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write market data", err)
			}
		}

		written += len(page)
		last := page[len(page)-1].Time
		reportProgress(onProgress, min(float64(last.Sub(startDate).Milliseconds()), total), total, message)

		return nil
	})
	if err != nil {
		return "", err
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	reportProgress(onProgress, total, total, message)
	c.logger.Info("Finished downloading klines",
		zap.String("ticker", ticker),
		zap.Int("bars", written),
		zap.String("path", outputPath),
	)

	return outputPath, nil
}

// convertKlines maps the positional kline columns into types.Kline.
func convertKlines(symbol string, klines []*futures.Kline) ([]types.Kline, error) {
	out := make([]types.Kline, 0, len(klines))

	for _, k := range klines {
		values, err := parseFloats(k.Open, k.High, k.Low, k.Close, k.Volume,
			k.QuoteAssetVolume, k.TakerBuyBaseAssetVolume, k.TakerBuyQuoteAssetVolume)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline at open time %d", k.OpenTime)
		}

		out = append(out, types.Kline{
			Bar: types.Bar{
				Symbol: symbol,
				Time:   time.UnixMilli(k.OpenTime).UTC(),
				Open:   values[0],
				High:   values[1],
				Low:    values[2],
				Close:  values[3],
				Volume: values[4],
			},
			CloseTime:                time.UnixMilli(k.CloseTime).UTC(),
			QuoteAssetVolume:         values[5],
			NumberOfTrades:           k.TradeNum,
			TakerBuyBaseAssetVolume:  values[6],
			TakerBuyQuoteAssetVolume: values[7],
		})
	}

	return out, nil
}

func parseFloats(values ...string) ([]float64, error) {
	out := make([]float64, len(values))

	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}

		out[i] = f
	}

	return out, nil
}

// convertTimespanToBinanceInterval converts the polygon timespan and multiplier to a Binance interval string.
// Binance intervals: 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch timespan {
	case models.Second:
		if multiplier == 1 {
			return "1s", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported second multiplier for Binance: %d", multiplier)
	case models.Minute:
		return fmt.Sprintf("%dm", multiplier), nil
	case models.Hour:
		return fmt.Sprintf("%dh", multiplier), nil
	case models.Day:
		return fmt.Sprintf("%dd", multiplier), nil
	case models.Week:
		if multiplier == 1 {
			return "1w", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported weekly multiplier for Binance: %d", multiplier)
	case models.Month:
		if multiplier == 1 {
			return "1M", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported monthly multiplier for Binance: %d", multiplier)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for Binance: %s", timespan)
	}
}

package marketdata

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
)

const dateLayout = "2006-01-02"

// parseDate accepts RFC3339 timestamps and plain dates. Plain dates are midnight UTC.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	return time.Parse(dateLayout, value)
}

// BaseDownloadConfig contains common fields for all download configurations.
type BaseDownloadConfig struct {
	Ticker    string `json:"ticker" jsonschema:"title=Ticker,description=The trading symbol to download data for (e.g. SPY or BTCUSDT),required" validate:"required"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=Start date as RFC3339 or YYYY-MM-DD,required" validate:"required"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=End date as RFC3339 or YYYY-MM-DD,required" validate:"required"`
	Interval  string `json:"interval" jsonschema:"title=Interval,description=Data interval,required,enum=1s,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=3d,enum=1w,enum=1M" validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
}

// DownloadConfig is a validated provider download configuration.
type DownloadConfig interface {
	Validate() error
	ToDownloadParams() (DownloadParams, error)
	ToClientConfig(dataPath string, format writer.Format) ClientConfig
}

// PolygonDownloadConfig contains configuration for downloading from Polygon.io.
type PolygonDownloadConfig struct {
	BaseDownloadConfig

	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required"`
}

// BinanceDownloadConfig contains configuration for downloading from Binance.
// Binance public market data API does not require authentication.
type BinanceDownloadConfig struct {
	BaseDownloadConfig

	BaseURL string `json:"baseUrl,omitempty" jsonschema:"title=Base URL,description=Futures REST endpoint. Defaults to https://fapi.binance.com" validate:"omitempty,url"`
}

// Validate validates the BaseDownloadConfig fields.
func (c *BaseDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	start, err := parseDate(c.StartDate)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid startDate format, expected RFC3339 or YYYY-MM-DD", err)
	}

	end, err := parseDate(c.EndDate)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid endDate format, expected RFC3339 or YYYY-MM-DD", err)
	}

	if !end.After(start) {
		return errors.New(errors.ErrCodeInvalidParameter, "endDate must be after startDate")
	}

	return nil
}

// Validate validates the PolygonDownloadConfig.
func (c *PolygonDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// Validate validates the BinanceDownloadConfig.
func (c *BinanceDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// ToDownloadParams converts a BaseDownloadConfig to DownloadParams.
func (c *BaseDownloadConfig) ToDownloadParams() (DownloadParams, error) {
	startDate, err := parseDate(c.StartDate)
	if err != nil {
		return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to parse startDate", err)
	}

	endDate, err := parseDate(c.EndDate)
	if err != nil {
		return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to parse endDate", err)
	}

	timespan, err := ParseTimespan(c.Interval)
	if err != nil {
		return DownloadParams{}, err
	}

	return DownloadParams{
		Ticker:     c.Ticker,
		StartDate:  startDate,
		EndDate:    endDate,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}, nil
}

// ToClientConfig converts a PolygonDownloadConfig to ClientConfig.
func (c *PolygonDownloadConfig) ToClientConfig(dataPath string, format writer.Format) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterDuckDB,
		Format:        format,
		DataPath:      dataPath,
		PolygonApiKey: c.ApiKey,
	}
}

// ToClientConfig converts a BinanceDownloadConfig to ClientConfig.
func (c *BinanceDownloadConfig) ToClientConfig(dataPath string, format writer.Format) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderBinance,
		WriterType:    WriterDuckDB,
		Format:        format,
		DataPath:      dataPath,
		PolygonApiKey: "",
		BaseURL:       c.BaseURL,
	}
}

// ParsePolygonConfig parses JSON into a PolygonDownloadConfig.
func ParsePolygonConfig(jsonConfig string) (*PolygonDownloadConfig, error) {
	var config PolygonDownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseBinanceConfig parses JSON into a BinanceDownloadConfig.
func ParseBinanceConfig(jsonConfig string) (*BinanceDownloadConfig, error) {
	var config BinanceDownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

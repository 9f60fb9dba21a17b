package marketdata

import (
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func validBase() BaseDownloadConfig {
	return BaseDownloadConfig{
		Ticker:    "BTCUSDT",
		StartDate: "2024-01-01",
		EndDate:   "2024-02-01T00:00:00Z",
		Interval:  "4h",
	}
}

func (suite *DownloadConfigTestSuite) TestBaseValidate() {
	tests := []struct {
		name   string
		modify func(c *BaseDownloadConfig)
		code   errors.ErrorCode
	}{
		{name: "valid", modify: func(_ *BaseDownloadConfig) {}},
		{name: "missing ticker", modify: func(c *BaseDownloadConfig) { c.Ticker = "" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "bad interval", modify: func(c *BaseDownloadConfig) { c.Interval = "7m" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "bad start date", modify: func(c *BaseDownloadConfig) { c.StartDate = "01/01/2024" }, code: errors.ErrCodeInvalidParameter},
		{name: "bad end date", modify: func(c *BaseDownloadConfig) { c.EndDate = "tomorrow" }, code: errors.ErrCodeInvalidParameter},
		{name: "end before start", modify: func(c *BaseDownloadConfig) { c.EndDate = "2023-12-31" }, code: errors.ErrCodeInvalidParameter},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := validBase()
			tc.modify(&config)

			err := config.Validate()
			if tc.code == 0 {
				suite.NoError(err)

				return
			}

			suite.Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
		})
	}
}

func (suite *DownloadConfigTestSuite) TestToDownloadParams() {
	config := validBase()

	params, err := config.ToDownloadParams()
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", params.Ticker)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), params.StartDate)
	suite.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), params.EndDate)
	suite.Equal(4, params.Multiplier)
	suite.Equal(models.Hour, params.Timespan)
}

func (suite *DownloadConfigTestSuite) TestToDownloadParamsInvalidInterval() {
	config := validBase()
	config.Interval = "2d"

	_, err := config.ToDownloadParams()
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimespan))
}

func (suite *DownloadConfigTestSuite) TestPolygonConfig() {
	config := PolygonDownloadConfig{BaseDownloadConfig: validBase()}
	suite.True(errors.HasCode(config.Validate(), errors.ErrCodeInvalidConfiguration))

	config.ApiKey = "key"
	suite.NoError(config.Validate())

	clientConfig := config.ToClientConfig("/data", writer.FormatCSV)
	suite.Equal(ProviderPolygon, clientConfig.ProviderType)
	suite.Equal(WriterDuckDB, clientConfig.WriterType)
	suite.Equal(writer.FormatCSV, clientConfig.Format)
	suite.Equal("/data", clientConfig.DataPath)
	suite.Equal("key", clientConfig.PolygonApiKey)
}

func (suite *DownloadConfigTestSuite) TestBinanceConfig() {
	config := BinanceDownloadConfig{BaseDownloadConfig: validBase()}
	suite.NoError(config.Validate())

	config.BaseURL = "not a url"
	suite.Error(config.Validate())

	config.BaseURL = "http://127.0.0.1:8080"
	suite.NoError(config.Validate())

	clientConfig := config.ToClientConfig("/data", writer.FormatParquet)
	suite.Equal(ProviderBinance, clientConfig.ProviderType)
	suite.Equal("http://127.0.0.1:8080", clientConfig.BaseURL)
	suite.Empty(clientConfig.PolygonApiKey)
}

func (suite *DownloadConfigTestSuite) TestParseBinanceConfig() {
	config, err := ParseBinanceConfig(`{"ticker":"ETHUSDT","startDate":"2024-01-01","endDate":"2024-01-02","interval":"1m"}`)
	suite.Require().NoError(err)
	suite.Equal("ETHUSDT", config.Ticker)

	_, err = ParseBinanceConfig(`{"ticker":"ETHUSDT"}`)
	suite.Error(err)
}

func (suite *DownloadConfigTestSuite) TestParsePolygonConfig() {
	config, err := ParsePolygonConfig(`{"ticker":"SPY","startDate":"2024-01-01","endDate":"2024-01-02","interval":"1d","apiKey":"k"}`)
	suite.Require().NoError(err)
	suite.Equal("k", config.ApiKey)

	_, err = ParsePolygonConfig(`not json`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

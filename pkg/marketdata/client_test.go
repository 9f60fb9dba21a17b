package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/barsim/e2e/mockserver"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/mocks"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/rxtech-lab/barsim/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// ClientTestSuite is a test suite for the Client implementation
type ClientTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	tempDir      string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "marketdata-client-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
}

func (suite *ClientTestSuite) TearDownTest() {
	suite.ctrl.Finish()
	os.RemoveAll(suite.tempDir)
}

func (suite *ClientTestSuite) params() DownloadParams {
	return DownloadParams{
		Ticker:     "BTCUSDT",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Multiplier: 1,
		Timespan:   models.Day,
	}
}

func (suite *ClientTestSuite) TestNewClientValidation() {
	tests := []struct {
		name   string
		config ClientConfig
		valid  bool
	}{
		{
			name:   "binance",
			config: ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir},
			valid:  true,
		},
		{
			name:   "polygon with key",
			config: ClientConfig{ProviderType: ProviderPolygon, WriterType: WriterDuckDB, DataPath: suite.tempDir, PolygonApiKey: "key"},
			valid:  true,
		},
		{
			name:   "polygon without key",
			config: ClientConfig{ProviderType: ProviderPolygon, WriterType: WriterDuckDB, DataPath: suite.tempDir},
		},
		{
			name:   "unknown provider",
			config: ClientConfig{ProviderType: "kraken", WriterType: WriterDuckDB, DataPath: suite.tempDir},
		},
		{
			name:   "missing data path",
			config: ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB},
		},
		{
			name:   "unknown format",
			config: ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir, Format: "json"},
		},
		{
			name:   "invalid base url",
			config: ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir, BaseURL: "not a url"},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			client, err := NewClient(tc.config, nil, nil)
			if tc.valid {
				suite.NoError(err)
				suite.NotNil(client)

				return
			}

			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (suite *ClientTestSuite) TestDownload() {
	config := ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: filepath.Join(suite.tempDir, "nested")}
	client := newClientWithProvider(config, suite.mockProvider, nil, logger.NewNopLogger())
	params := suite.params()
	expectedPath := filepath.Join(suite.tempDir, "nested", "BTCUSDT_2024-01-01_2024-01-31_1_day.parquet")

	suite.mockProvider.EXPECT().
		ConfigWriter(gomock.Any()).
		Do(func(w writer.MarketDataWriter) {
			suite.Equal(expectedPath, w.GetOutputPath())
		}).
		Times(1)

	suite.mockProvider.EXPECT().
		Download(gomock.Any(), "BTCUSDT", params.StartDate, params.EndDate, 1, models.Day, gomock.Any()).
		Return(expectedPath, nil).
		Times(1)

	path, err := client.Download(context.Background(), params)
	suite.NoError(err)
	suite.Equal(expectedPath, path)
	suite.DirExists(filepath.Join(suite.tempDir, "nested"))
}

func (suite *ClientTestSuite) TestDownloadCSVFormat() {
	config := ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir, Format: writer.FormatCSV}
	client := newClientWithProvider(config, suite.mockProvider, nil, logger.NewNopLogger())

	suite.mockProvider.EXPECT().
		ConfigWriter(gomock.Any()).
		Do(func(w writer.MarketDataWriter) {
			suite.Equal(".csv", filepath.Ext(w.GetOutputPath()))
		})
	suite.mockProvider.EXPECT().
		Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("out.csv", nil)

	_, err := client.Download(context.Background(), suite.params())
	suite.NoError(err)
}

func (suite *ClientTestSuite) TestDownloadProviderError() {
	config := ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir}
	client := newClientWithProvider(config, suite.mockProvider, nil, logger.NewNopLogger())

	suite.mockProvider.EXPECT().ConfigWriter(gomock.Any())
	suite.mockProvider.EXPECT().
		Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New(errors.ErrCodeMarketDataFetchFailed, "network down"))

	_, err := client.Download(context.Background(), suite.params())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.Contains(err.Error(), "download failed")
}

func (suite *ClientTestSuite) TestDownloadInvalidParams() {
	config := ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir}
	client := newClientWithProvider(config, suite.mockProvider, nil, logger.NewNopLogger())

	params := suite.params()
	params.EndDate = params.StartDate.Add(-time.Hour)

	_, err := client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	params = suite.params()
	params.Ticker = ""

	_, err = client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ClientTestSuite) TestDownloadUnsupportedWriter() {
	config := ClientConfig{ProviderType: ProviderBinance, WriterType: "sqlite", DataPath: suite.tempDir}
	client := newClientWithProvider(config, suite.mockProvider, nil, logger.NewNopLogger())

	_, err := client.Download(context.Background(), suite.params())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ClientTestSuite) TestDownloadFromMockBinance() {
	bars := mocks.LinearBars("BTCUSDT", 30, 100, 1)

	server := mockserver.NewMockBinanceServer(mockserver.ServerConfig{Bars: bars, Interval: 24 * time.Hour})
	suite.Require().NoError(server.Start(":0"))
	defer server.Stop()

	var progressCalls int

	client, err := NewClient(ClientConfig{
		ProviderType: ProviderBinance,
		WriterType:   WriterDuckDB,
		Format:       writer.FormatCSV,
		DataPath:     suite.tempDir,
		BaseURL:      server.BaseURL(),
	}, func(_ float64, _ float64, _ string) {
		progressCalls++
	}, nil)
	suite.Require().NoError(err)

	params := DownloadParams{
		Ticker:     "BTCUSDT",
		StartDate:  bars[0].Time,
		EndDate:    bars[29].Time,
		Multiplier: 1,
		Timespan:   models.Day,
	}

	path, err := client.Download(context.Background(), params)
	suite.Require().NoError(err)
	suite.FileExists(path)
	suite.Positive(progressCalls)

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(content), "BTCUSDT")
	suite.Equal(31, countLines(string(content)), fmt.Sprintf("unexpected csv:\n%s", content))
}

func countLines(content string) int {
	n := 0

	for _, c := range content {
		if c == '\n' {
			n++
		}
	}

	return n
}

func (suite *ClientTestSuite) TestOutputFileName() {
	suite.Equal("BTCUSDT_2024-01-01_2024-01-31_1_day.csv", OutputFileName(suite.params(), writer.FormatCSV))
}

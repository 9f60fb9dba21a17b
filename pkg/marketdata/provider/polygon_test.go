package provider

import (
	"context"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PolygonClientTestSuite struct {
	suite.Suite
}

func TestPolygonClientSuite(t *testing.T) {
	suite.Run(t, new(PolygonClientTestSuite))
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient() {
	client, err := NewPolygonClient("test-key", nil)
	suite.Require().NoError(err)
	suite.NotNil(client.client)
	suite.NotNil(client.logger)
	suite.Nil(client.writer)
}

func (suite *PolygonClientTestSuite) TestNewPolygonClientRequiresAPIKey() {
	client, err := NewPolygonClient("", nil)
	suite.Nil(client)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *PolygonClientTestSuite) TestConfigWriter() {
	client, err := NewPolygonClient("test-key", nil)
	suite.Require().NoError(err)

	writer := &mockWriter{outputPath: "out.parquet"}
	client.ConfigWriter(writer)
	suite.Same(writer, client.writer)
}

func (suite *PolygonClientTestSuite) TestDownloadWithoutWriter() {
	client, err := NewPolygonClient("test-key", nil)
	suite.Require().NoError(err)

	_, err = client.Download(context.Background(), "SPY", time.Now().Add(-time.Hour), time.Now(), 1, models.Minute, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
}

func (suite *PolygonClientTestSuite) TestDownloadInitializeError() {
	client, err := NewPolygonClient("test-key", nil)
	suite.Require().NoError(err)

	writer := &mockWriter{initializeErr: errors.New(errors.ErrCodeMarketDataWriteFailed, "boom")}
	client.ConfigWriter(writer)

	_, err = client.Download(context.Background(), "SPY", time.Now().Add(-time.Hour), time.Now(), 1, models.Minute, nil)
	suite.Error(err)
	suite.Equal(0, writer.finalizeCallCount)
}

func (suite *PolygonClientTestSuite) TestAggToBar() {
	ts := time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC)

	bar := aggToBar("SPY", models.Agg{
		Open:      500,
		High:      505,
		Low:       498,
		Close:     503,
		Volume:    1200,
		Timestamp: models.Millis(ts),
	})

	suite.Equal("SPY", bar.Symbol)
	suite.Equal(ts, bar.Time)
	suite.Equal(500.0, bar.Open)
	suite.Equal(505.0, bar.High)
	suite.Equal(498.0, bar.Low)
	suite.Equal(503.0, bar.Close)
	suite.Equal(1200.0, bar.Volume)
}

type ProviderTestSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) TestNewMarketDataProvider() {
	binance, err := NewMarketDataProvider(ProviderBinance, Options{BaseURL: "http://localhost:1"})
	suite.Require().NoError(err)
	suite.IsType(&BinanceClient{}, binance)
	suite.Equal("http://localhost:1", binance.(*BinanceClient).client.BaseURL)

	polygon, err := NewMarketDataProvider(ProviderPolygon, Options{APIKey: "key"})
	suite.Require().NoError(err)
	suite.IsType(&PolygonClient{}, polygon)

	_, err = NewMarketDataProvider(ProviderPolygon, Options{})
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	_, err = NewMarketDataProvider("kraken", Options{})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ProviderTestSuite) TestStatusError() {
	err := &StatusError{StatusCode: 418, Body: "teapot"}
	suite.Equal("unexpected status code 418: teapot", err.Error())
}

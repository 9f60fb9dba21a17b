package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type UTBotTestSuite struct {
	suite.Suite
}

func TestUTBotSuite(t *testing.T) {
	suite.Run(t, new(UTBotTestSuite))
}

func barsFromCloses(closes ...float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Symbol: "BTCUSDT",
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
		}
	}

	return bars
}

func (suite *UTBotTestSuite) newUTBot(keyValue float64, atrLength int) *UTBot {
	config := DefaultUTBotConfig()
	config.KeyValue = keyValue
	config.ATRLength = atrLength

	s, err := NewUTBot(BaseStrategy{}, config)
	suite.Require().NoError(err)

	return s
}

func (suite *UTBotTestSuite) TestEnterAndExitOnCrosses() {
	s := suite.newUTBot(1, 1)

	// trailing stop: NaN, 10.5, 9.5, 9.5, 11.5, 13.5, 9.5, 8.5
	signals := s.CalcSignal(barsFromCloses(10, 9, 8, 12, 13, 9, 8, 7))
	suite.Equal([]types.Signal{
		types.SignalDoNothing, types.SignalDoNothing, types.SignalDoNothing, types.SignalEnterLong,
		types.SignalDoNothing, types.SignalCloseLong, types.SignalDoNothing, types.SignalDoNothing,
	}, signals)
}

func (suite *UTBotTestSuite) TestClosesOnLastBarWhenLong() {
	s := suite.newUTBot(1, 1)

	signals := s.CalcSignal(barsFromCloses(10, 9, 8, 12, 13))
	suite.Equal([]types.Signal{
		types.SignalDoNothing, types.SignalDoNothing, types.SignalDoNothing,
		types.SignalEnterLong, types.SignalCloseLong,
	}, signals)
}

func (suite *UTBotTestSuite) TestSignalLengthMatchesBars() {
	s := suite.newUTBot(2, 10)

	suite.Empty(s.CalcSignal(nil))
	suite.Len(s.CalcSignal(barsFromCloses(1, 2, 3)), 3)
}

func (suite *UTBotTestSuite) TestSTCFilterBlocksEntriesDuringWarmup() {
	config := DefaultUTBotConfig()
	config.KeyValue = 1
	config.ATRLength = 1
	config.UseSTC = true

	s, err := NewUTBot(BaseStrategy{}, config)
	suite.Require().NoError(err)

	// the STC needs far more history than these bars, so nothing can qualify
	signals := s.CalcSignal(barsFromCloses(10, 9, 8, 12, 13, 9, 8, 7))
	for _, sig := range signals {
		suite.Equal(types.SignalDoNothing, sig)
	}
}

func (suite *UTBotTestSuite) TestInvalidConfig() {
	config := DefaultUTBotConfig()
	config.ATRLength = 0

	_, err := NewUTBot(BaseStrategy{}, config)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))

	config = DefaultUTBotConfig()
	config.SlowLength = config.FastLength

	_, err = NewUTBot(BaseStrategy{}, config)
	suite.Error(err)
}

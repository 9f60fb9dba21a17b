package strategy

import (
	"math"

	"github.com/rxtech-lab/barsim/internal/indicator"
	"github.com/rxtech-lab/barsim/internal/types"
)

// UTBotConfig holds the UT Bot parameters. The STC fields only apply when UseSTC is set.
type UTBotConfig struct {
	KeyValue   float64 `yaml:"key_value" json:"key_value" validate:"gt=0" jsonschema:"title=Key Value,description=ATR multiplier for the trailing stop,default=1"`
	ATRLength  int     `yaml:"atr_length" json:"atr_length" validate:"gt=0" jsonschema:"title=ATR Length,description=Number of bars in the ATR window,default=10"`
	UseSTC     bool    `yaml:"use_stc" json:"use_stc" jsonschema:"title=Use STC,description=Only enter when the Schaff Trend Cycle is rising"`
	STCLength  int     `yaml:"stc_length" json:"stc_length" validate:"gt=0" jsonschema:"title=STC Length,default=80"`
	FastLength int     `yaml:"fast_length" json:"fast_length" validate:"gt=0" jsonschema:"title=Fast Length,default=27"`
	SlowLength int     `yaml:"slow_length" json:"slow_length" validate:"gt=0,gtfield=FastLength" jsonschema:"title=Slow Length,default=50"`
	STCFactor  float64 `yaml:"stc_factor" json:"stc_factor" validate:"gt=0,lte=1" jsonschema:"title=STC Smoothing Factor,default=0.5"`
}

// DefaultUTBotConfig returns the parameters used when none are configured.
func DefaultUTBotConfig() UTBotConfig {
	return UTBotConfig{
		KeyValue:   1,
		ATRLength:  10,
		UseSTC:     false,
		STCLength:  80,
		FastLength: 27,
		SlowLength: 50,
		STCFactor:  0.5,
	}
}

// UTBot trades long only. It enters when the close crosses above the trailing stop
// and exits when it crosses back below. An open position is closed on the last bar.
type UTBot struct {
	BaseStrategy
	config UTBotConfig
}

func NewUTBot(base BaseStrategy, config UTBotConfig) (*UTBot, error) {
	if err := validate.Struct(config); err != nil {
		return nil, invalidParams(NameUTBot, err)
	}

	return &UTBot{BaseStrategy: base, config: config}, nil
}

func (s *UTBot) Name() string {
	return NameUTBot
}

// Config returns the parameters the strategy runs with.
func (s *UTBot) Config() UTBotConfig {
	return s.config
}

func (s *UTBot) CalcSignal(bars []types.Bar) []types.Signal {
	signals := make([]types.Signal, len(bars))
	if len(bars) == 0 {
		return signals
	}

	closes := types.Closes(bars)

	// parameters were validated in NewUTBot and the columns share one length
	_, crosses, err := indicator.UTBot(types.Highs(bars), types.Lows(bars), closes, s.config.KeyValue, s.config.ATRLength)
	if err != nil {
		return signals
	}

	rising := s.stcRising(closes)
	long := false
	last := len(bars) - 1

	for i := 0; i < last; i++ {
		switch {
		case !long && crosses[i] == indicator.CrossAbove && rising[i]:
			signals[i] = types.SignalEnterLong
			long = true
		case long && crosses[i] == indicator.CrossBelow:
			signals[i] = types.SignalCloseLong
			long = false
		}
	}

	if long {
		signals[last] = types.SignalCloseLong
	}

	return signals
}

// stcRising marks bars where entries are allowed. Without the STC filter every bar qualifies.
func (s *UTBot) stcRising(closes []float64) []bool {
	allowed := make([]bool, len(closes))

	if !s.config.UseSTC {
		for i := range allowed {
			allowed[i] = true
		}

		return allowed
	}

	stc, err := indicator.STC(closes, s.config.STCLength, s.config.FastLength, s.config.SlowLength, s.config.STCFactor)
	if err != nil {
		return allowed
	}

	for i := 1; i < len(stc); i++ {
		allowed[i] = !math.IsNaN(stc[i-1]) && stc[i] > stc[i-1]
	}

	return allowed
}

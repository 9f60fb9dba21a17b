package strategy

import "github.com/rxtech-lab/barsim/internal/types"

// BuyAndHold enters long on the first bar and closes on the last.
type BuyAndHold struct {
	BaseStrategy
}

// SellAndHold enters short on the first bar and closes on the last.
type SellAndHold struct {
	BaseStrategy
}

func NewBuyAndHold(base BaseStrategy) *BuyAndHold {
	return &BuyAndHold{BaseStrategy: base}
}

func NewSellAndHold(base BaseStrategy) *SellAndHold {
	return &SellAndHold{BaseStrategy: base}
}

func (s *BuyAndHold) Name() string {
	return NameBuyAndHold
}

func (s *BuyAndHold) CalcSignal(bars []types.Bar) []types.Signal {
	return holdSignals(len(bars), types.SignalEnterLong, types.SignalCloseLong)
}

func (s *SellAndHold) Name() string {
	return NameSellAndHold
}

func (s *SellAndHold) CalcSignal(bars []types.Bar) []types.Signal {
	return holdSignals(len(bars), types.SignalEnterShort, types.SignalCloseShort)
}

// holdSignals sets enter on the first bar and exit on the last. With one bar the exit wins.
func holdSignals(n int, enter, exit types.Signal) []types.Signal {
	signals := make([]types.Signal, n)
	if n == 0 {
		return signals
	}

	signals[0] = enter
	signals[n-1] = exit

	return signals
}

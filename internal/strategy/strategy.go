// Package strategy defines the Strategy capability used by the simulator and its bundled variants.
package strategy

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
)

// Strategy produces per-bar signals and answers sizing and exit questions during a simulation.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string
	// CalcSignal returns exactly one signal per bar. It must not modify bars.
	CalcSignal(bars []types.Bar) []types.Signal
	// CalcQty returns the quantity to trade at price given the available balance.
	CalcQty(price, balance float64, action types.ActionType) float64
	// CheckSLTP reports a stop-loss or take-profit exit for position evaluated against bar.
	CheckSLTP(bar types.Bar, position types.Position) optional.Option[types.SLTPResult]
}

// BaseStrategy carries the stop-loss and take-profit rates and implements the default
// sizing and exit rules. Embed it to get them.
type BaseStrategy struct {
	StopLossRate   optional.Option[float64]
	TakeProfitRate optional.Option[float64]
}

// NewBaseStrategy validates the rates. A present rate must be finite and not negative.
func NewBaseStrategy(stopLossRate, takeProfitRate optional.Option[float64]) (BaseStrategy, error) {
	if stopLossRate.IsSome() && !validRate(stopLossRate.Unwrap()) {
		return BaseStrategy{}, errors.Newf(errors.ErrCodeInvalidStopLoss, "stop loss rate must not be negative, got %v", stopLossRate.Unwrap())
	}

	if takeProfitRate.IsSome() && !validRate(takeProfitRate.Unwrap()) {
		return BaseStrategy{}, errors.Newf(errors.ErrCodeInvalidTakeProfit, "take profit rate must not be negative, got %v", takeProfitRate.Unwrap())
	}

	return BaseStrategy{StopLossRate: stopLossRate, TakeProfitRate: takeProfitRate}, nil
}

func validRate(rate float64) bool {
	return rate >= 0 && !math.IsInf(rate, 0)
}

// ExitRates returns the configured stop-loss and take-profit rates.
func (b BaseStrategy) ExitRates() (optional.Option[float64], optional.Option[float64]) {
	return b.StopLossRate, b.TakeProfitRate
}

// CalcQty spends the whole balance for either action.
func (b BaseStrategy) CalcQty(price, balance float64, _ types.ActionType) float64 {
	return balance / price
}

// CheckSLTP checks the stop loss first and then the take profit.
//
// A long stop fires while the low is still at or above the stop price, and a long target fires
// while the high is at or below the target. Shorts mirror this. Both are inverted from the usual
// trigger direction and existing results depend on them.
func (b BaseStrategy) CheckSLTP(bar types.Bar, position types.Position) optional.Option[types.SLTPResult] {
	if result := b.stopLoss(bar, position); result.IsSome() {
		return result
	}

	return b.takeProfit(bar, position)
}

func (b BaseStrategy) stopLoss(bar types.Bar, position types.Position) optional.Option[types.SLTPResult] {
	if b.StopLossRate.IsNone() {
		return optional.None[types.SLTPResult]()
	}

	rate := b.StopLossRate.Unwrap()

	switch position.Type {
	case types.PositionTypeLong:
		price := position.EntryPrice * (1 - rate)
		if bar.Low >= price {
			return optional.Some(types.SLTPResult{Quantity: position.Quantity, Price: price, Action: types.ActionTypeSell, Reason: types.ReasonStopLoss})
		}
	case types.PositionTypeShort:
		price := position.EntryPrice * (1 + rate)
		if bar.High <= price {
			return optional.Some(types.SLTPResult{Quantity: position.Quantity, Price: price, Action: types.ActionTypeBuy, Reason: types.ReasonStopLoss})
		}
	}

	return optional.None[types.SLTPResult]()
}

func (b BaseStrategy) takeProfit(bar types.Bar, position types.Position) optional.Option[types.SLTPResult] {
	if b.TakeProfitRate.IsNone() {
		return optional.None[types.SLTPResult]()
	}

	rate := b.TakeProfitRate.Unwrap()

	switch position.Type {
	case types.PositionTypeLong:
		price := position.EntryPrice * (1 + rate)
		if bar.High <= price {
			return optional.Some(types.SLTPResult{Quantity: position.Quantity, Price: price, Action: types.ActionTypeSell, Reason: types.ReasonTakeProfit})
		}
	case types.PositionTypeShort:
		price := position.EntryPrice * (1 - rate)
		if bar.Low >= price {
			return optional.Some(types.SLTPResult{Quantity: position.Quantity, Price: price, Action: types.ActionTypeBuy, Reason: types.ReasonTakeProfit})
		}
	}

	return optional.None[types.SLTPResult]()
}

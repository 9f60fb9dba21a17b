package types

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one fill applied by the simulator.
type Trade struct {
	// Index is the position of the bar the fill was applied on.
	Index      int        `csv:"index"`
	Time       time.Time  `csv:"time"`
	Action     ActionType `csv:"action"`
	Quantity   float64    `csv:"quantity"`
	Price      float64    `csv:"price"`
	Commission float64    `csv:"commission"`
	Reason     Reason     `csv:"reason"`
}

// toDecimal converts f to a decimal. Non-finite values become zero since decimal cannot represent them.
func toDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}

	return decimal.NewFromFloat(f)
}

// Notional is quantity times price.
func (t Trade) Notional() decimal.Decimal {
	return toDecimal(t.Quantity).Mul(toDecimal(t.Price))
}

// CashFlow is the signed balance change caused by the trade, commission included.
// A buy spends cash and a sell receives it.
func (t Trade) CashFlow() decimal.Decimal {
	notional := t.Notional()
	if t.Action == ActionTypeBuy {
		notional = notional.Neg()
	}

	return notional.Sub(toDecimal(t.Commission))
}

// TradeSummary aggregates a trade ledger.
type TradeSummary struct {
	NumberOfTrades  int     `yaml:"number_of_trades" json:"number_of_trades"`
	NumberOfBuys    int     `yaml:"number_of_buys" json:"number_of_buys"`
	NumberOfSells   int     `yaml:"number_of_sells" json:"number_of_sells"`
	StopLossExits   int     `yaml:"stop_loss_exits" json:"stop_loss_exits"`
	TakeProfitExits int     `yaml:"take_profit_exits" json:"take_profit_exits"`
	TotalCommission float64 `yaml:"total_commission" json:"total_commission"`
	// NetCashFlow is the sum of all trade cash flows. It equals the realized PnL once every position is closed.
	NetCashFlow float64 `yaml:"net_cash_flow" json:"net_cash_flow"`
}

// SummarizeTrades computes a TradeSummary over the ledger.
func SummarizeTrades(trades []Trade) TradeSummary {
	summary := TradeSummary{NumberOfTrades: len(trades)}
	commission := decimal.Zero
	cashFlow := decimal.Zero

	for _, t := range trades {
		switch t.Action {
		case ActionTypeBuy:
			summary.NumberOfBuys++
		case ActionTypeSell:
			summary.NumberOfSells++
		}

		switch t.Reason {
		case ReasonStopLoss:
			summary.StopLossExits++
		case ReasonTakeProfit:
			summary.TakeProfitExits++
		}

		commission = commission.Add(toDecimal(t.Commission))
		cashFlow = cashFlow.Add(t.CashFlow())
	}

	summary.TotalCommission, _ = commission.Float64()
	summary.NetCashFlow, _ = cashFlow.Float64()

	return summary
}

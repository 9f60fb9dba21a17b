package types

// AccountRow is one row of the augmented bar table produced by a backtest.
// Rows are aligned 1:1 with the input bars.
type AccountRow struct {
	Bar
	Signal         Signal
	Quantity       float64
	Balance        float64
	PortfolioValue float64
}

// PortfolioValues extracts the portfolio value column.
func PortfolioValues(rows []AccountRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.PortfolioValue
	}

	return out
}

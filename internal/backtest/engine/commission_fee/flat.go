package commission_fee

// FlatCommissionFee charges a fixed amount per fill regardless of quantity.
type FlatCommissionFee struct {
	amount float64
}

func NewFlatCommissionFee(amount float64) CommissionFee {
	return &FlatCommissionFee{amount: amount}
}

func (c *FlatCommissionFee) Calculate(_ float64) float64 {
	return c.amount
}

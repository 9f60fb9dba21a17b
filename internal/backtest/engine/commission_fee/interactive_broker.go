package commission_fee

// InteractiveBrokerCommissionFee charges 0.005 per unit with a minimum of 1.
type InteractiveBrokerCommissionFee struct{}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity float64) float64 {
	return max(0.005*quantity, 1.0)
}

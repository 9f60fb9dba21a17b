package commission_fee

// ZeroCommissionFee implements CommissionFee interface with zero commission.
type ZeroCommissionFee struct{}

func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

func (c *ZeroCommissionFee) Calculate(_ float64) float64 {
	return 0.0
}

package commission_fee

import "github.com/rxtech-lab/barsim/pkg/errors"

// CommissionFee computes the commission charged on one fill.
type CommissionFee interface {
	// Calculate returns the fee for a fill of the given quantity, in quote currency.
	Calculate(quantity float64) float64
}

type Broker string

const (
	// BrokerFlat charges the same configured amount on every fill.
	BrokerFlat              Broker = "flat"
	BrokerZero              Broker = "zero_commission"
	BrokerInteractiveBroker Broker = "interactive_broker"
)

var AllBrokers = []any{
	BrokerFlat,
	BrokerZero,
	BrokerInteractiveBroker,
}

// GetCommissionFeeHandler returns the fee model for broker. flatAmount only applies to BrokerFlat.
func GetCommissionFeeHandler(broker Broker, flatAmount float64) (CommissionFee, error) {
	switch broker {
	case BrokerFlat, "":
		return NewFlatCommissionFee(flatAmount), nil
	case BrokerZero:
		return NewZeroCommissionFee(), nil
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker %q", broker)
	}
}

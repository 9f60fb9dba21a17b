package types

// PositionType is the side of an open position.
type PositionType int

const (
	PositionTypeLong  PositionType = 1
	PositionTypeShort PositionType = -1
)

func (p PositionType) String() string {
	switch p {
	case PositionTypeLong:
		return "long"
	case PositionTypeShort:
		return "short"
	default:
		return "unknown"
	}
}

// ActionType is the direction of a fill.
type ActionType int

const (
	ActionTypeBuy  ActionType = 1
	ActionTypeSell ActionType = -1
)

func (a ActionType) String() string {
	switch a {
	case ActionTypeBuy:
		return "buy"
	case ActionTypeSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the action that unwinds a.
func (a ActionType) Opposite() ActionType {
	if a == ActionTypeBuy {
		return ActionTypeSell
	}

	return ActionTypeBuy
}

// EntryAction returns the action that opens a position of this type.
func (p PositionType) EntryAction() ActionType {
	if p == PositionTypeShort {
		return ActionTypeSell
	}

	return ActionTypeBuy
}

// ExitAction returns the action that closes a position of this type.
func (p PositionType) ExitAction() ActionType {
	return p.EntryAction().Opposite()
}

// Position is the single open position held by the simulator.
type Position struct {
	// Quantity is always positive; the side is carried by Type.
	Quantity   float64
	EntryPrice float64
	Type       PositionType
}

// Reason tells why a trade was executed.
type Reason string

const (
	ReasonSignal     Reason = "signal"
	ReasonStopLoss   Reason = "stop_loss"
	ReasonTakeProfit Reason = "take_profit"
	ReasonFinalClose Reason = "final_close"
)

// SLTPResult is returned when a stop-loss or take-profit threshold fires.
type SLTPResult struct {
	Quantity float64
	Price    float64
	Action   ActionType
	Reason   Reason
}

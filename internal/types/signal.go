package types

import (
	"github.com/rxtech-lab/barsim/pkg/errors"
)

// Signal is the per-bar decision produced by a strategy.
type Signal int

const (
	// SignalCloseLong tells the simulator to close an open position.
	SignalCloseLong Signal = -2
	// SignalCloseShort tells the simulator to close an open position.
	SignalCloseShort Signal = -1
	// SignalDoNothing keeps the account unchanged.
	SignalDoNothing Signal = 0
	// SignalEnterShort opens a short position.
	SignalEnterShort Signal = 1
	// SignalEnterLong opens a long position.
	SignalEnterLong Signal = 2
)

var signalNames = map[Signal]string{
	SignalCloseLong:  "close_long",
	SignalCloseShort: "close_short",
	SignalDoNothing:  "do_nothing",
	SignalEnterShort: "enter_short",
	SignalEnterLong:  "enter_long",
}

// String returns the snake_case name of the signal.
func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}

	return "unknown"
}

// IsValid reports whether s is one of the defined signals.
func (s Signal) IsValid() bool {
	_, ok := signalNames[s]

	return ok
}

// IsEntry reports whether the signal opens a position.
func (s Signal) IsEntry() bool {
	return s == SignalEnterLong || s == SignalEnterShort
}

// IsClose reports whether the signal closes a position.
func (s Signal) IsClose() bool {
	return s == SignalCloseLong || s == SignalCloseShort
}

// ParseSignal converts the snake_case name back into a Signal.
func ParseSignal(name string) (Signal, error) {
	for s, n := range signalNames {
		if n == name {
			return s, nil
		}
	}

	return SignalDoNothing, errors.Newf(errors.ErrCodeInvalidType, "unknown signal %q", name)
}

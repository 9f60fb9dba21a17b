package engine

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/backtest/engine/commission_fee"
	"github.com/rxtech-lab/barsim/internal/strategy"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
)

// SimulationParams configures one simulation.
type SimulationParams struct {
	StartingBalance float64
	// SlippageFactor divides the bar move applied to fills. Use math.Inf(1) for fills at the open.
	SlippageFactor float64
	// Commission is charged on every fill. Nil means no commission.
	Commission commission_fee.CommissionFee
}

// DefaultSlippageFactor is the slippage factor used when none is configured.
const DefaultSlippageFactor = 5.0

// SimulationResult is the owned output of a simulation.
type SimulationResult struct {
	// Rows has one entry per input bar.
	Rows []types.AccountRow
	// Trades lists every fill in execution order.
	Trades []types.Trade
}

// Simulator replays bars one at a time. Each bar starts from the quantity and balance recorded
// for the previous bar, so state is threaded through the output rows only.
type Simulator struct {
	bars     []types.Bar
	signals  []types.Signal
	strategy strategy.Strategy
	params   SimulationParams

	position optional.Option[types.Position]
	rows     []types.AccountRow
	trades   []types.Trade
}

// NewSimulator prepares a simulation of bars with precomputed signals.
func NewSimulator(bars []types.Bar, signals []types.Signal, strat strategy.Strategy, params SimulationParams) (*Simulator, error) {
	if len(signals) != len(bars) {
		return nil, errors.Newf(errors.ErrCodeSignalLengthMismatch, "strategy %s returned %d signals for %d bars", strat.Name(), len(signals), len(bars))
	}

	if params.Commission == nil {
		params.Commission = commission_fee.NewZeroCommissionFee()
	}

	return &Simulator{
		bars:     bars,
		signals:  signals,
		strategy: strat,
		params:   params,
		position: optional.None[types.Position](),
		rows:     make([]types.AccountRow, 0, len(bars)),
	}, nil
}

// Simulate runs strat over bars and returns the account table and trade ledger.
// It is a pure function of its inputs. Malformed bars are not rejected and only
// produce NaN or infinite values.
func Simulate(bars []types.Bar, strat strategy.Strategy, params SimulationParams) (SimulationResult, error) {
	sim, err := NewSimulator(bars, strat.CalcSignal(bars), strat, params)
	if err != nil {
		return SimulationResult{}, err
	}

	for !sim.Done() {
		sim.Step()
	}

	return sim.Result(), nil
}

// Done reports whether every bar has been processed.
func (s *Simulator) Done() bool {
	return len(s.rows) == len(s.bars)
}

// Processed returns the number of bars processed so far.
func (s *Simulator) Processed() int {
	return len(s.rows)
}

// Position returns the open position, if any.
func (s *Simulator) Position() optional.Option[types.Position] {
	return s.position
}

// Result returns the rows and trades produced so far.
func (s *Simulator) Result() SimulationResult {
	return SimulationResult{Rows: s.rows, Trades: s.trades}
}

// Step processes the next bar and reports whether more bars remain.
func (s *Simulator) Step() bool {
	if s.Done() {
		return false
	}

	i := len(s.rows)
	bar := s.bars[i]
	signal := s.signals[i]

	qty, balance := 0.0, s.params.StartingBalance
	if i > 0 {
		qty, balance = s.rows[i-1].Quantity, s.rows[i-1].Balance
	}

	// exits are judged on the previous bar; the position record stays open afterwards
	if s.position.IsSome() && i > 0 {
		if result := s.strategy.CheckSLTP(s.bars[i-1], s.position.Unwrap()); result.IsSome() {
			r := result.Unwrap()
			qty, balance = s.fill(i, r.Action, r.Quantity, r.Price, r.Reason, qty, balance)
		}
	}

	isLast := i == len(s.bars)-1

	switch {
	case isLast && s.position.IsSome():
		qty, balance = s.closePosition(i, types.ReasonFinalClose, qty, balance)
	case signal == types.SignalEnterLong:
		qty, balance = s.openPosition(i, types.PositionTypeLong, qty, balance)
	case signal == types.SignalEnterShort:
		qty, balance = s.openPosition(i, types.PositionTypeShort, qty, balance)
	case signal.IsClose() && s.position.IsSome():
		// the side of the signal is not checked against the position
		qty, balance = s.closePosition(i, types.ReasonSignal, qty, balance)
	}

	s.rows = append(s.rows, types.AccountRow{
		Bar:            bar,
		Signal:         signal,
		Quantity:       qty,
		Balance:        balance,
		PortfolioValue: bar.Close*qty + balance,
	})

	return !s.Done()
}

func (s *Simulator) openPosition(i int, positionType types.PositionType, qty, balance float64) (float64, float64) {
	action := positionType.EntryAction()
	price := CalcRealisticPrice(s.bars[i], action, s.params.SlippageFactor)
	size := s.strategy.CalcQty(price, balance, action)

	s.position = optional.Some(types.Position{Quantity: size, EntryPrice: price, Type: positionType})

	return s.fill(i, action, size, price, types.ReasonSignal, qty, balance)
}

func (s *Simulator) closePosition(i int, reason types.Reason, qty, balance float64) (float64, float64) {
	position := s.position.Unwrap()
	action := position.Type.ExitAction()
	price := CalcRealisticPrice(s.bars[i], action, s.params.SlippageFactor)

	s.position = optional.None[types.Position]()

	return s.fill(i, action, position.Quantity, price, reason, qty, balance)
}

// fill applies one trade to qty and balance and records it in the ledger.
func (s *Simulator) fill(i int, action types.ActionType, size, price float64, reason types.Reason, qty, balance float64) (float64, float64) {
	commission := s.params.Commission.Calculate(size)

	if action == types.ActionTypeBuy {
		qty += size
		balance -= size*price + commission
	} else {
		qty -= size
		balance += size*price - commission
	}

	s.trades = append(s.trades, types.Trade{
		Index:      i,
		Time:       s.bars[i].Time,
		Action:     action,
		Quantity:   size,
		Price:      price,
		Commission: commission,
		Reason:     reason,
	})

	return qty, balance
}

// BuyAndHoldReturn is last close / first close - 1, or NaN without bars.
func BuyAndHoldReturn(bars []types.Bar) float64 {
	if len(bars) == 0 {
		return math.NaN()
	}

	return bars[len(bars)-1].Close/bars[0].Close - 1
}

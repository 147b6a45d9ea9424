package strategy

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sentiment-trader/internal/types"
)

var (
	ErrNothingToCommit = errors.New("decision has nothing to commit")
	ErrOversell        = errors.New("sell quantity exceeds position")
	ErrInvalidFill     = errors.New("invalid fill price")
)

// Machine owns the single PositionState. Decide reads it; only Commit and
// Rollover change it, and Commit is called only after a confirmed fill.
type Machine struct {
	cfg Config

	mu    sync.RWMutex
	state types.PositionState
}

// NewMachine starts from initial, normally the zero (FLAT) state.
func NewMachine(cfg Config, initial types.PositionState) *Machine {
	return &Machine{cfg: cfg, state: initial}
}

func (m *Machine) Config() Config { return m.cfg }

// State returns a copy of the current position state.
func (m *Machine) State() types.PositionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Decide evaluates sig against the current state without changing it.
func (m *Machine) Decide(sig types.AggregateSignal, price float64) types.TradeDecision {
	return Decide(sig, price, m.State(), m.cfg)
}

// Rollover resets the daily trade count the first time it sees a new
// calendar day. It reports whether a reset happened.
func (m *Machine) Rollover(now time.Time) bool {
	day := m.cfg.DayKey(now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.TradeDay == day {
		return false
	}
	m.state.TradeDay = day
	m.state.DailyTradeCount = 0
	return true
}

// Commit applies a filled decision and returns the new state.
//
// Parameters:
//   - d: The decision that was executed
//   - fillPrice: Confirmed execution price
//   - at: Fill time, used for the daily trade count
//
// Returns:
//   - state: Position after the fill
//   - err: ErrNothingToCommit, ErrOversell or ErrInvalidFill; state is then unchanged
func (m *Machine) Commit(d types.TradeDecision, fillPrice float64, at time.Time) (types.PositionState, error) {
	if d.IsNone() {
		return m.State(), ErrNothingToCommit
	}
	if fillPrice <= 0 {
		return m.State(), fmt.Errorf("%w: %v", ErrInvalidFill, fillPrice)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state
	day := m.cfg.DayKey(at)
	if next.TradeDay != day {
		next.TradeDay = day
		next.DailyTradeCount = 0
	}

	switch d.Action {
	case types.ActionOpen:
		// the entry is fixed by the first buy from FLAT; adding keeps it
		if next.Quantity == 0 {
			next.EntryPrice = fillPrice
		}
		next.Quantity += d.Quantity
	case types.ActionClose, types.ActionReduce:
		if d.Quantity > next.Quantity {
			return m.state, fmt.Errorf("%w: sell %d, held %d", ErrOversell, d.Quantity, next.Quantity)
		}
		next.Quantity -= d.Quantity
		if next.Quantity == 0 {
			next.EntryPrice = 0
		}
	default:
		return m.state, ErrNothingToCommit
	}

	next.DailyTradeCount++
	m.state = next
	return next, nil
}

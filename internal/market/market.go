package market

import (
	"time"

	"sentiment-trader/internal/interfaces"
)

// AlwaysOpen never gates a cycle.
type AlwaysOpen struct{}

func (AlwaysOpen) IsOpen(time.Time) bool { return true }

// Session is a weekday trading window in a fixed timezone, open inclusive,
// close exclusive.
type Session struct {
	loc   *time.Location
	open  time.Duration
	close time.Duration
}

var (
	_ interfaces.MarketCalendar = AlwaysOpen{}
	_ interfaces.MarketCalendar = (*Session)(nil)
)

// NewSession builds a weekday session; open and close are offsets from local midnight.
func NewSession(loc *time.Location, open, close time.Duration) *Session {
	if loc == nil {
		loc = time.UTC
	}
	return &Session{loc: loc, open: open, close: close}
}

func (s *Session) IsOpen(t time.Time) bool {
	local := t.In(s.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	offset := local.Sub(midnight)
	return offset >= s.open && offset < s.close
}

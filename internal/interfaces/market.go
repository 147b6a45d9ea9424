package interfaces

import "time"

type MarketCalendar interface {
	IsOpen(t time.Time) bool
}

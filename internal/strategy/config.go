package strategy

import "time"

// Thresholds partition the aggregate signal into buckets. Boundaries are
// inclusive on the side of the stronger bucket.
type Thresholds struct {
	StrongBuy  float64
	Buy        float64
	Sell       float64
	StrongSell float64
}

// Config is immutable for the life of a Machine.
type Config struct {
	Thresholds     Thresholds
	MaxPosition    int
	PerSignal      int
	MaxDailyTrades int
	StopLossPct    float64
	TakeProfitPct  float64
	// Location decides where a calendar day starts for the daily trade cap.
	Location *time.Location
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// DayKey formats t as the calendar day it falls on in the configured location.
func (c Config) DayKey(t time.Time) string {
	return t.In(c.location()).Format("2006-01-02")
}

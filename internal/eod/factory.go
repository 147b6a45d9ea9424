package eod

import (
	"time"

	"sentiment-trader/internal/interfaces"
)

// NewSummarizer writes summaries under dir/eod, grouping trades by calendar
// day in loc.
func NewSummarizer(dir string, loc *time.Location) interfaces.EodSummarizer {
	if dir == "" {
		dir = "logs"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &eodSummarizer{dir: dir, loc: loc}
}

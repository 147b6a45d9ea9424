package recorder

import "sentiment-trader/internal/types"

// Recorder journals trades and cycle outcomes for later analysis.
type Recorder interface {
	RecordTrade(rec types.TradeRecord) error
	RecordCycle(res *types.CycleResult) error
	Close() error
}

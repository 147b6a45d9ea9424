package recorder

import "sentiment-trader/internal/types"

// NoopRecorder is used when no database path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ types.TradeRecord) error    { return nil }
func (n *NoopRecorder) RecordCycle(_ *types.CycleResult) error { return nil }
func (n *NoopRecorder) Close() error                            { return nil }

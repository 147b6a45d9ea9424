package interfaces

import (
	"context"

	"sentiment-trader/internal/types"
)

type Engine interface {
	Step(ctx context.Context) (*types.CycleResult, error)
	Snapshot() types.Snapshot
}

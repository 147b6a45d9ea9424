package engineobs

import (
	"context"
	"time"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Step(ctx context.Context) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()

	result, err := oe.engine.Step(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, err
	}
	if result == nil {
		return nil, nil
	}

	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"symbol", result.Symbol,
		"cycle_id", result.CycleID,
		"outcome", result.Outcome,
		"signal", result.Signal.Value,
		"samples", result.Signal.SampleCount,
		"action", result.Decision.Action,
		"qty", result.Decision.Quantity,
		"position", result.Position.Quantity,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (oe *observableEngine) Snapshot() types.Snapshot {
	return oe.engine.Snapshot()
}

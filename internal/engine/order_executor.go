package engine

import (
	"context"
	"fmt"

	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

// trade executes d and, only on a confirmed fill, commits it to the
// position and appends the trade record.
//
// Returns:
//   - err: non-nil only when a confirmed fill could not be committed
func (e *Engine) trade(ctx context.Context, d types.TradeDecision, res *types.CycleResult) error {
	fill, err := e.executor.Execute(ctx, d)
	if err != nil {
		res.Outcome = types.OutcomeExecutionFailed
		res.Error = err.Error()
		logger.ErrorWithErr(ctx, "Order execution failed, position unchanged", err,
			"symbol", res.Symbol,
			"action", d.Action,
			"qty", d.Quantity,
		)
		return nil
	}
	res.Fill = &fill

	// a partial fill commits what was actually traded
	filled := d
	filled.Quantity = fill.Quantity

	st, err := e.machine.Commit(filled, fill.Price, fill.At)
	if err != nil {
		res.Outcome = types.OutcomeExecutionFailed
		res.Error = err.Error()
		logger.ErrorWithErr(ctx, "Failed to commit fill", err,
			"symbol", res.Symbol,
			"order_id", fill.OrderID,
			"qty", fill.Quantity,
		)
		return fmt.Errorf("commit order %s: %w", fill.OrderID, err)
	}
	res.Outcome = types.OutcomeTraded

	rec := types.TradeRecord{
		Timestamp:         fill.At,
		Symbol:            res.Symbol,
		Action:            d.Action,
		Side:              fill.Side,
		Quantity:          fill.Quantity,
		Price:             fill.Price,
		ResultingPosition: st.Quantity,
		OrderID:           fill.OrderID,
		Reason:            d.Reason,
		Signal:            res.Signal.Value,
		CycleID:           res.CycleID,
	}
	if err := e.history.Append(rec); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal trade", err, "order_id", fill.OrderID)
	}
	if err := e.rec.RecordTrade(rec); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record trade", err, "order_id", fill.OrderID)
	}
	e.metrics.RecordTrade(rec)

	logger.Trade(ctx, res.Symbol, string(fill.Side), fill.Quantity, fill.Price, fill.OrderID,
		"action", d.Action,
		"reason", d.Reason,
		"position", st.Quantity,
		"entry_price", st.EntryPrice,
		"daily_trades", st.DailyTradeCount,
	)
	return nil
}

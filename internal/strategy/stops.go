package strategy

import "sentiment-trader/internal/types"

// PnLPct is the unrealized return of a long position at price.
func PnLPct(entry, price float64) float64 {
	if entry <= 0 {
		return 0
	}
	return (price - entry) / entry
}

// protectiveExit closes the whole long position when price has crossed the
// stop-loss or take-profit band. Stop-loss is checked first.
func protectiveExit(price float64, st types.PositionState, cfg Config) (types.TradeDecision, bool) {
	if st.Quantity <= 0 || st.EntryPrice <= 0 {
		return types.TradeDecision{}, false
	}
	pnl := PnLPct(st.EntryPrice, price)
	if pnl <= -cfg.StopLossPct {
		return types.TradeDecision{Action: types.ActionClose, Quantity: st.Quantity, Reason: ReasonStopLoss}, true
	}
	if pnl >= cfg.TakeProfitPct {
		return types.TradeDecision{Action: types.ActionClose, Quantity: st.Quantity, Reason: ReasonTakeProfit}, true
	}
	return types.TradeDecision{}, false
}

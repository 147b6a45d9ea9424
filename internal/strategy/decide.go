package strategy

import (
	"math"

	"sentiment-trader/internal/types"
)

const (
	ReasonDailyCap   = "DAILY_CAP"
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
	ReasonNoRoom     = "NO_ROOM"
	ReasonNoPosition = "NO_POSITION"
	ReasonNoPrice    = "NO_PRICE"
)

// Decide converts a signal and the current price into a decision. It reads
// st but never changes it. Rules, in priority order:
//
//  1. daily trade cap reached: NONE
//  2. long and price at or past the stop-loss, then take-profit: CLOSE all
//  3. sentiment bucket via the sizing table
//
// A trade count recorded for an earlier day than sig.AsOf counts as zero.
func Decide(sig types.AggregateSignal, price float64, st types.PositionState, cfg Config) types.TradeDecision {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return none(ReasonNoPrice)
	}

	if effectiveTradeCount(st, sig, cfg) >= cfg.MaxDailyTrades {
		return none(ReasonDailyCap)
	}

	if d, ok := protectiveExit(price, st, cfg); ok {
		return d
	}

	return sentimentDecision(Classify(sig.Value, cfg.Thresholds), st, cfg)
}

func effectiveTradeCount(st types.PositionState, sig types.AggregateSignal, cfg Config) int {
	if sig.AsOf.IsZero() || st.TradeDay == "" {
		return st.DailyTradeCount
	}
	if st.TradeDay != cfg.DayKey(sig.AsOf) {
		return 0
	}
	return st.DailyTradeCount
}

func none(reason string) types.TradeDecision {
	return types.TradeDecision{Action: types.ActionNone, Reason: reason}
}

package strategy

import "sentiment-trader/internal/types"

type Bucket string

const (
	BucketStrongBuy  Bucket = "STRONG_BUY"
	BucketBuy        Bucket = "BUY"
	BucketHold       Bucket = "HOLD"
	BucketSell       Bucket = "SELL"
	BucketStrongSell Bucket = "STRONG_SELL"
)

// sizing is how many per-signal units a bucket trades and in which direction.
type sizing struct {
	multiplier int
	action     types.Action
}

var sizingTable = map[Bucket]sizing{
	BucketStrongBuy:  {multiplier: 2, action: types.ActionOpen},
	BucketBuy:        {multiplier: 1, action: types.ActionOpen},
	BucketSell:       {multiplier: 1, action: types.ActionReduce},
	BucketStrongSell: {multiplier: 2, action: types.ActionReduce},
}

// Classify maps a signal value to its bucket.
func Classify(value float64, t Thresholds) Bucket {
	switch {
	case value >= t.StrongBuy:
		return BucketStrongBuy
	case value >= t.Buy:
		return BucketBuy
	case value <= t.StrongSell:
		return BucketStrongSell
	case value <= t.Sell:
		return BucketSell
	default:
		return BucketHold
	}
}

// sentimentDecision sizes a trade for the bucket.
//
// Parameters:
//   - b: Signal bucket
//   - st: Current position
//   - cfg: Sizing limits
//
// Returns:
//   - decision: OPEN bounded by remaining room, REDUCE bounded by the held
//     quantity, or NONE when there is nothing to do
func sentimentDecision(b Bucket, st types.PositionState, cfg Config) types.TradeDecision {
	sz, ok := sizingTable[b]
	if !ok {
		return none(string(BucketHold))
	}
	want := sz.multiplier * cfg.PerSignal

	switch sz.action {
	case types.ActionOpen:
		room := cfg.MaxPosition - st.Quantity
		if room <= 0 {
			return none(ReasonNoRoom)
		}
		return types.TradeDecision{Action: types.ActionOpen, Quantity: min(want, room), Reason: string(b)}
	case types.ActionReduce:
		if st.Quantity <= 0 {
			return none(ReasonNoPosition)
		}
		return types.TradeDecision{Action: types.ActionReduce, Quantity: min(want, st.Quantity), Reason: string(b)}
	}
	return none(string(BucketHold))
}

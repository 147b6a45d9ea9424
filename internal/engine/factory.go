package engine

import (
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/metrics"
	"sentiment-trader/internal/recorder"
	"sentiment-trader/internal/scorer"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/strategy"
	"sentiment-trader/internal/tradelog"
	"sentiment-trader/internal/types"
)

// Deps are the engine's collaborators. Source and Broker are required;
// the rest fall back to in-memory or no-op versions when nil.
type Deps struct {
	Source   interfaces.Source
	Broker   interfaces.Broker
	Scorer   *scorer.Scorer
	Market   interfaces.MarketCalendar
	History  *tradelog.History
	Recorder recorder.Recorder
	Metrics  *metrics.Recorder
	Initial  types.PositionState
}

func New(cfg *store.Config, d Deps) *Engine {
	return newEngine(cfg, d)
}

// StrategyConfig extracts the decision parameters from cfg.
func StrategyConfig(cfg *store.Config) strategy.Config {
	return strategy.Config{
		Thresholds: strategy.Thresholds{
			StrongBuy:  cfg.Thresholds.StrongBuy,
			Buy:        cfg.Thresholds.Buy,
			Sell:       cfg.Thresholds.Sell,
			StrongSell: cfg.Thresholds.StrongSell,
		},
		MaxPosition:    cfg.Risk.MaxPosition,
		PerSignal:      cfg.Risk.PerSignal,
		MaxDailyTrades: cfg.Risk.MaxDailyTrades,
		StopLossPct:    cfg.Risk.StopLossPct,
		TakeProfitPct:  cfg.Risk.TakeProfitPct,
		Location:       cfg.Location(),
	}
}

var _ interfaces.Engine = (*Engine)(nil)

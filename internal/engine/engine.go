package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentiment-trader/internal/aggregator"
	"sentiment-trader/internal/execution"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/metrics"
	"sentiment-trader/internal/recorder"
	"sentiment-trader/internal/scorer"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/strategy"
	"sentiment-trader/internal/tradelog"
	"sentiment-trader/internal/types"
)

// Engine runs one fetch → score → aggregate → decide → execute → commit
// cycle per Step. Steps must not overlap; the scheduler guarantees that.
type Engine struct {
	cfg      *store.Config
	source   interfaces.Source
	broker   interfaces.Broker
	scorer   *scorer.Scorer
	machine  *strategy.Machine
	executor *execution.Executor
	market   interfaces.MarketCalendar
	history  *tradelog.History
	rec      recorder.Recorder
	metrics  *metrics.Recorder
	now      func() time.Time

	mu     sync.RWMutex
	cycles int
	trades int
	last   *types.CycleResult
}

func newEngine(cfg *store.Config, d Deps) *Engine {
	e := &Engine{
		cfg:     cfg,
		source:  d.Source,
		broker:  d.Broker,
		scorer:  d.Scorer,
		market:  d.Market,
		history: d.History,
		rec:     d.Recorder,
		metrics: d.Metrics,
		now:     time.Now,
	}
	if e.scorer == nil {
		e.scorer = scorer.New(nil)
	}
	if e.history == nil {
		e.history = tradelog.NewHistory("", cfg.Location())
	}
	if e.rec == nil {
		e.rec = recorder.NewNoopRecorder()
	}
	e.machine = strategy.NewMachine(StrategyConfig(cfg), d.Initial)
	e.executor = execution.New(d.Broker, execution.Config{
		Symbol:          cfg.Symbol,
		PollInterval:    cfg.Execution.PollInterval,
		Timeout:         cfg.Execution.FillTimeout,
		CancelOnTimeout: cfg.Execution.CancelOnTimeout,
		Tag:             "SENT",
	})
	return e
}

// Step runs a single trading cycle. Skipped and failed cycles are reported
// through res.Outcome, not as an error. The position only changes after a
// confirmed fill.
func (e *Engine) Step(ctx context.Context) (*types.CycleResult, error) {
	now := e.now()
	symbol := e.cfg.Symbol
	res := &types.CycleResult{
		CycleID:   uuid.NewString(),
		Symbol:    symbol,
		StartedAt: now,
	}
	defer e.finish(ctx, res)

	logger.Debug(ctx, "Starting trading cycle", "symbol", symbol, "cycle_id", res.CycleID)

	if e.machine.Rollover(now) {
		logger.Info(ctx, "New trading day, daily trade count reset", "symbol", symbol, "day", e.machine.State().TradeDay)
	}

	if e.market != nil && !e.market.IsOpen(now) {
		logger.Debug(ctx, "Market closed, skipping cycle", "symbol", symbol)
		res.Outcome = types.OutcomeMarketClosed
		return res, nil
	}

	items, ok := e.collect(ctx, res)
	if !ok {
		res.Outcome = types.OutcomeNoArticles
		return res, nil
	}
	res.Signal = aggregator.Aggregate(items, now, e.cfg.Scoring.HalfLifeHours)
	res.Sentiment = scorer.Label(res.Signal.Value)
	logger.Debug(ctx, "Aggregate signal computed",
		"symbol", symbol,
		"signal", res.Signal.Value,
		"sentiment", res.Sentiment,
		"samples", res.Signal.SampleCount,
	)

	price, err := e.broker.CurrentPrice(ctx, symbol)
	if err != nil || price <= 0 {
		if err != nil {
			res.Error = err.Error()
		}
		logger.Warn(ctx, "No usable price, skipping cycle", "symbol", symbol, "price", price, "error", err)
		res.Outcome = types.OutcomeNoPrice
		return res, nil
	}
	res.Price = price

	d := e.machine.Decide(res.Signal, price)
	res.Decision = d
	e.logDecision(ctx, d, res)

	if d.IsNone() {
		res.Outcome = types.OutcomeNoAction
		return res, nil
	}

	if err := e.trade(ctx, d, res); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) logDecision(ctx context.Context, d types.TradeDecision, res *types.CycleResult) {
	st := e.machine.State()
	switch d.Reason {
	case strategy.ReasonStopLoss, strategy.ReasonTakeProfit:
		logger.Risk(ctx, res.Symbol, d.Reason,
			"price", res.Price,
			"entry_price", st.EntryPrice,
			"pnl_pct", strategy.PnLPct(st.EntryPrice, res.Price),
			"qty", st.Quantity,
		)
	case strategy.ReasonDailyCap:
		logger.Risk(ctx, res.Symbol, d.Reason,
			"daily_trade_count", st.DailyTradeCount,
			"max_daily_trades", e.cfg.Risk.MaxDailyTrades,
		)
	}
	if d.IsNone() {
		logger.Debug(ctx, "No trade this cycle", "symbol", res.Symbol, "signal", res.Signal.Value, "reason", d.Reason)
		return
	}
	logger.Decision(ctx, res.Symbol, string(d.Action), res.Signal.Value, d.Reason,
		"qty", d.Quantity,
		"price", res.Price,
		"position", st.Quantity,
		"sentiment", res.Sentiment,
	)
}

func (e *Engine) finish(ctx context.Context, res *types.CycleResult) {
	res.Duration = e.now().Sub(res.StartedAt)
	res.Position = e.machine.State()

	e.mu.Lock()
	e.cycles++
	if res.Outcome == types.OutcomeTraded {
		e.trades++
	}
	e.last = res
	e.mu.Unlock()

	e.metrics.ObserveCycle(res)
	if err := e.rec.RecordCycle(res); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record cycle", err, "cycle_id", res.CycleID)
	}
}

// Snapshot is safe to call while a Step is running.
func (e *Engine) Snapshot() types.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := types.Snapshot{
		Symbol:   e.cfg.Symbol,
		Mode:     e.cfg.Mode,
		Position: e.machine.State(),
		Cycles:   e.cycles,
		Trades:   e.trades,
	}
	if e.last != nil {
		last := *e.last
		s.LastCycle = &last
	}
	return s
}

// History exposes the trade history for shutdown flushing and reporting.
func (e *Engine) History() *tradelog.History { return e.history }

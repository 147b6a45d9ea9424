package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-trader/internal/eod"
	"sentiment-trader/internal/recorder"
	"sentiment-trader/internal/scheduler"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/tradelog"
	"sentiment-trader/internal/types"
)

// tradingEngine fills one order per cycle after a delay.
type tradingEngine struct {
	history *tradelog.History
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (e *tradingEngine) Step(context.Context) (*types.CycleResult, error) {
	e.once.Do(func() { close(e.started) })
	time.Sleep(e.delay)
	err := e.history.Append(types.TradeRecord{
		Timestamp:         time.Now(),
		Symbol:            "XOM",
		Action:            types.ActionOpen,
		Side:              types.SideBuy,
		Quantity:          20,
		Price:             100,
		ResultingPosition: 20,
		OrderID:           "SIM-1",
		Reason:            "STRONG_BUY",
	})
	return &types.CycleResult{Outcome: types.OutcomeTraded}, err
}

func (e *tradingEngine) Snapshot() types.Snapshot { return types.Snapshot{} }

func TestShutdownFlushesAfterRunningCycle(t *testing.T) {
	dir := t.TempDir()
	historyFile := filepath.Join(dir, "trade_history.csv")
	cfg, err := store.Parse([]byte(fmt.Sprintf("tradelog: {dir: %q, history_file: %q}", dir, historyFile)))
	require.NoError(t, err)

	history := tradelog.NewHistory(dir, time.UTC)
	eng := &tradingEngine{history: history, delay: 50 * time.Millisecond, started: make(chan struct{})}
	a := &app{
		cfg:       cfg,
		history:   history,
		rec:       recorder.NewNoopRecorder(),
		eod:       eod.NewSummarizer(dir, time.UTC),
		scheduler: scheduler.New(eng, scheduler.Options{Interval: time.Hour, Location: time.UTC, History: history}),
	}

	ctx := context.Background()
	a.start(ctx)
	<-eng.started
	// the cycle is still sleeping; shutdown must wait for its fill
	a.shutdown(ctx)

	b, err := os.ReadFile(historyFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(tradelog.Header, ","), lines[0])
	assert.Contains(t, lines[1], "SIM-1")

	summaries, err := filepath.Glob(filepath.Join(dir, "eod", "*.csv"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestShutdownWithoutTrades(t *testing.T) {
	dir := t.TempDir()
	historyFile := filepath.Join(dir, "out", "trade_history.csv")
	cfg, err := store.Parse([]byte(fmt.Sprintf("tradelog: {dir: %q, history_file: %q}", dir, historyFile)))
	require.NoError(t, err)

	a := &app{
		cfg:       cfg,
		history:   tradelog.NewHistory("", time.UTC),
		rec:       recorder.NewNoopRecorder(),
		scheduler: scheduler.New(&tradingEngine{started: make(chan struct{})}, scheduler.Options{Interval: time.Hour}),
	}
	a.shutdown(context.Background())

	b, err := os.ReadFile(historyFile)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(tradelog.Header, ",")+"\n", string(b))
}

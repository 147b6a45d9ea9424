package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-trader/internal/types"
)

func TestObserveCycle(t *testing.T) {
	r := New()
	r.ObserveCycle(&types.CycleResult{
		Outcome:  types.OutcomeTraded,
		Duration: 2 * time.Second,
		Skipped:  3,
		Signal:   types.AggregateSignal{Value: 0.4, SampleCount: 5},
		Price:    101,
		Position: types.PositionState{Quantity: 20},
	})
	r.ObserveCycle(&types.CycleResult{Outcome: types.OutcomeNoArticles})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("TRADED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("NO_ARTICLES")))
	assert.Equal(t, 0.4, testutil.ToFloat64(r.signal))
	assert.Equal(t, 101.0, testutil.ToFloat64(r.lastPrice))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.skipped))
	// the second cycle reports a flat position
	assert.Equal(t, 0.0, testutil.ToFloat64(r.position))
}

func TestRecordTrade(t *testing.T) {
	r := New()
	r.RecordTrade(types.TradeRecord{Action: types.ActionClose, Reason: "STOP_LOSS"})
	r.RecordTrade(types.TradeRecord{Action: types.ActionClose, Reason: "STOP_LOSS"})
	assert.Equal(t, 2.0, testutil.ToFloat64(r.trades.WithLabelValues("CLOSE", "STOP_LOSS")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveCycle(&types.CycleResult{})
	r.RecordTrade(types.TradeRecord{})
	assert.Nil(t, r.Registry())
	assert.NotNil(t, r.Handler())
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.RecordTrade(types.TradeRecord{Action: types.ActionOpen, Reason: "BUY"})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `trader_trades_total{action="OPEN",reason="BUY"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

package execution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-trader/internal/types"
)

type scriptedBroker struct {
	mu        sync.Mutex
	submitErr error
	pollErr   error
	statuses  []types.OrderStatus // last one repeats
	submitted []types.OrderReq
	polls     int
	cancelled []string
}

func (b *scriptedBroker) Submit(_ context.Context, req types.OrderReq) (types.OrderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return types.OrderHandle{}, b.submitErr
	}
	b.submitted = append(b.submitted, req)
	return types.OrderHandle{OrderID: "ord-1", Symbol: req.Symbol, Side: req.Side, Qty: req.Qty}, nil
}

func (b *scriptedBroker) Poll(_ context.Context, _ types.OrderHandle) (types.OrderStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	if b.pollErr != nil {
		return types.OrderStatus{}, b.pollErr
	}
	i := b.polls - 1
	if i >= len(b.statuses) {
		i = len(b.statuses) - 1
	}
	return b.statuses[i], nil
}

func (b *scriptedBroker) CurrentPrice(context.Context, string) (float64, error) { return 100, nil }

func (b *scriptedBroker) Cancel(_ context.Context, h types.OrderHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled = append(b.cancelled, h.OrderID)
	return nil
}

func fastConfig() Config {
	return Config{
		Symbol:          "XOM",
		PollInterval:    2 * time.Millisecond,
		Timeout:         40 * time.Millisecond,
		CancelOnTimeout: true,
		Tag:             "SENT",
	}
}

func TestExecuteFillAfterPending(t *testing.T) {
	b := &scriptedBroker{statuses: []types.OrderStatus{
		{State: types.OrderPending},
		{State: types.OrderPending},
		{State: types.OrderFilled, Price: 101.5},
	}}
	e := New(b, fastConfig())

	fill, err := e.Execute(context.Background(), types.TradeDecision{Action: types.ActionOpen, Quantity: 20})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", fill.OrderID)
	assert.Equal(t, types.SideBuy, fill.Side)
	assert.Equal(t, 20, fill.Quantity)
	assert.Equal(t, 101.5, fill.Price)
	assert.Equal(t, 3, b.polls)

	require.Len(t, b.submitted, 1)
	assert.Equal(t, types.OrderReq{Symbol: "XOM", Side: types.SideBuy, Qty: 20, Tag: "SENT"}, b.submitted[0])
	assert.Empty(t, b.cancelled)
}

func TestExecuteSellSides(t *testing.T) {
	for _, a := range []types.Action{types.ActionClose, types.ActionReduce} {
		b := &scriptedBroker{statuses: []types.OrderStatus{{State: types.OrderFilled, Price: 99}}}
		fill, err := New(b, fastConfig()).Execute(context.Background(), types.TradeDecision{Action: a, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, types.SideSell, fill.Side)
		assert.Equal(t, types.SideSell, b.submitted[0].Side)
	}
}

func TestExecuteTimeoutCancels(t *testing.T) {
	b := &scriptedBroker{statuses: []types.OrderStatus{{State: types.OrderPending}}}
	e := New(b, fastConfig())

	start := time.Now()
	_, err := e.Execute(context.Background(), types.TradeDecision{Action: types.ActionOpen, Quantity: 10})
	assert.ErrorIs(t, err, ErrExecutionTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"ord-1"}, b.cancelled)
}

func TestExecuteTimeoutWithoutCancel(t *testing.T) {
	b := &scriptedBroker{statuses: []types.OrderStatus{{State: types.OrderPending}}}
	cfg := fastConfig()
	cfg.CancelOnTimeout = false

	_, err := New(b, cfg).Execute(context.Background(), types.TradeDecision{Action: types.ActionOpen, Quantity: 10})
	assert.ErrorIs(t, err, ErrExecutionTimeout)
	assert.Empty(t, b.cancelled)
}

func TestExecuteSubmitPortError(t *testing.T) {
	b := &scriptedBroker{submitErr: errors.New("connection refused")}
	_, err := New(b, fastConfig()).Execute(context.Background(), types.TradeDecision{Action: types.ActionOpen, Quantity: 10})

	var pe *PortError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "submit", pe.Op)
	assert.Equal(t, 0, b.polls)
}

func TestExecutePollPortError(t *testing.T) {
	b := &scriptedBroker{pollErr: errors.New("502 bad gateway")}
	_, err := New(b, fastConfig()).Execute(context.Background(), types.TradeDecision{Action: types.ActionReduce, Quantity: 10})

	var pe *PortError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "poll", pe.Op)
	assert.Equal(t, []string{"ord-1"}, b.cancelled)
}

func TestExecuteRejected(t *testing.T) {
	b := &scriptedBroker{statuses: []types.OrderStatus{{State: types.OrderRejected, Message: "margin"}}}
	_, err := New(b, fastConfig()).Execute(context.Background(), types.TradeDecision{Action: types.ActionOpen, Quantity: 10})
	assert.ErrorIs(t, err, ErrOrderRejected)
	assert.Contains(t, err.Error(), "margin")
	assert.Empty(t, b.cancelled)
}

func TestExecuteFilledWithoutPrice(t *testing.T) {
	b := &scriptedBroker{statuses: []types.OrderStatus{{State: types.OrderFilled}}}
	_, err := New(b, fastConfig()).Execute(context.Background(), types.TradeDecision{Action: types.ActionOpen, Quantity: 10})
	var pe *PortError
	assert.ErrorAs(t, err, &pe)
}

func TestExecuteNone(t *testing.T) {
	b := &scriptedBroker{}
	_, err := New(b, fastConfig()).Execute(context.Background(), types.TradeDecision{Action: types.ActionNone})
	assert.ErrorIs(t, err, ErrNothingToExecute)
	assert.Empty(t, b.submitted)
}

func TestNewAppliesDefaults(t *testing.T) {
	e := New(&scriptedBroker{}, Config{Symbol: "XOM"})
	assert.Equal(t, 500*time.Millisecond, e.cfg.PollInterval)
	assert.Equal(t, 30*time.Second, e.cfg.Timeout)
}

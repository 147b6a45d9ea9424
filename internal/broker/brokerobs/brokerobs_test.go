package brokerobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-trader/internal/broker/paper"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

type priceOnly struct{}

func (priceOnly) Submit(context.Context, types.OrderReq) (types.OrderHandle, error) {
	return types.OrderHandle{}, errors.New("closed")
}
func (priceOnly) Poll(context.Context, types.OrderHandle) (types.OrderStatus, error) {
	return types.OrderStatus{}, errors.New("closed")
}
func (priceOnly) CurrentPrice(context.Context, string) (float64, error) { return 10, nil }

func TestWrapPassesThrough(t *testing.T) {
	ctx := context.Background()
	b := Wrap(paper.New(paper.Params{StartPrice: 42, Seed: 1}))

	p, err := b.CurrentPrice(ctx, "XOM")
	require.NoError(t, err)
	assert.Equal(t, 42.0, p)

	h, err := b.Submit(ctx, types.OrderReq{Symbol: "XOM", Side: types.SideBuy, Qty: 3})
	require.NoError(t, err)

	st, err := b.Poll(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, types.OrderFilled, st.State)
	assert.Equal(t, 3, st.FilledQty)
}

func TestCancelDelegates(t *testing.T) {
	ctx := context.Background()
	b := Wrap(paper.New(paper.Params{StartPrice: 42, FillAfterPolls: 3, Seed: 1}))
	h, err := b.Submit(ctx, types.OrderReq{Symbol: "XOM", Side: types.SideBuy, Qty: 3})
	require.NoError(t, err)

	c, ok := b.(interfaces.Canceler)
	require.True(t, ok)
	require.NoError(t, c.Cancel(ctx, h))

	st, err := b.Poll(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, types.OrderRejected, st.State)
}

func TestCancelUnsupported(t *testing.T) {
	b := Wrap(priceOnly{})
	err := b.(interfaces.Canceler).Cancel(context.Background(), types.OrderHandle{OrderID: "1"})
	assert.ErrorIs(t, err, ErrCancelUnsupported)

	_, err = b.Submit(context.Background(), types.OrderReq{Symbol: "X", Side: types.SideBuy, Qty: 1})
	assert.EqualError(t, err, "closed")
}

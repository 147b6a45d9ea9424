package zerodha

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sentiment-trader/internal/types"
)

type fakeKite struct {
	placed    []kiteconnect.OrderParams
	variety   string
	placeErr  error
	history   []kiteconnect.Order
	histErr   error
	ltp       kiteconnect.QuoteLTP
	cancelled []string
}

func (f *fakeKite) PlaceOrder(variety string, p kiteconnect.OrderParams) (kiteconnect.OrderResponse, error) {
	if f.placeErr != nil {
		return kiteconnect.OrderResponse{}, f.placeErr
	}
	f.variety = variety
	f.placed = append(f.placed, p)
	return kiteconnect.OrderResponse{OrderID: "240304000000001"}, nil
}

func (f *fakeKite) GetOrderHistory(string) ([]kiteconnect.Order, error) {
	return f.history, f.histErr
}

func (f *fakeKite) GetLTP(...string) (kiteconnect.QuoteLTP, error) {
	return f.ltp, nil
}

func (f *fakeKite) CancelOrder(_ string, orderID string, _ *string) (kiteconnect.OrderResponse, error) {
	f.cancelled = append(f.cancelled, orderID)
	return kiteconnect.OrderResponse{OrderID: orderID}, nil
}

func TestNewZerodhaRequiresCredentials(t *testing.T) {
	_, err := NewZerodha(Params{APIKey: "k"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSubmitBuildsMarketOrder(t *testing.T) {
	fk := &fakeKite{}
	z := newWithClient(Params{Exchange: "NSE"}, fk)

	h, err := z.Submit(context.Background(), types.OrderReq{Symbol: "reliance", Side: types.SideSell, Qty: 7, Tag: "SENT"})
	require.NoError(t, err)
	assert.Equal(t, "240304000000001", h.OrderID)
	assert.Equal(t, types.SideSell, h.Side)

	require.Len(t, fk.placed, 1)
	p := fk.placed[0]
	assert.Equal(t, kiteconnect.VarietyRegular, fk.variety)
	assert.Equal(t, "RELIANCE", p.Tradingsymbol)
	assert.Equal(t, "SELL", p.TransactionType)
	assert.Equal(t, 7, p.Quantity)
	assert.Equal(t, "MARKET", p.OrderType)
	assert.Equal(t, "CNC", p.Product)
	assert.Equal(t, "DAY", p.Validity)
}

func TestSubmitError(t *testing.T) {
	z := newWithClient(Params{}, &fakeKite{placeErr: errors.New("insufficient margin")})
	_, err := z.Submit(context.Background(), types.OrderReq{Symbol: "X", Side: types.SideBuy, Qty: 1})
	assert.ErrorContains(t, err, "insufficient margin")
}

func TestPollStates(t *testing.T) {
	tests := []struct {
		name    string
		history []kiteconnect.Order
		want    types.OrderStatus
	}{
		{"empty history", nil, types.OrderStatus{State: types.OrderPending}},
		{"open", []kiteconnect.Order{{Status: "PUT ORDER REQ RECEIVED"}, {Status: "OPEN"}},
			types.OrderStatus{State: types.OrderPending, Message: "OPEN"}},
		{"complete", []kiteconnect.Order{{Status: "OPEN"}, {Status: "COMPLETE", AveragePrice: 2875.5, FilledQuantity: 7}},
			types.OrderStatus{State: types.OrderFilled, Price: 2875.5, FilledQty: 7}},
		{"rejected", []kiteconnect.Order{{Status: "REJECTED", StatusMessage: "RMS: margin"}},
			types.OrderStatus{State: types.OrderRejected, Message: "RMS: margin"}},
		{"cancelled", []kiteconnect.Order{{Status: "CANCELLED"}},
			types.OrderStatus{State: types.OrderRejected, Message: "CANCELLED"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := newWithClient(Params{}, &fakeKite{history: tt.history})
			st, err := z.Poll(context.Background(), types.OrderHandle{OrderID: "1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, st)
		})
	}
}

func TestCurrentPrice(t *testing.T) {
	fk := &fakeKite{ltp: kiteconnect.QuoteLTP{"NSE:INFY": {InstrumentToken: 408065, LastPrice: 1520.25}}}
	z := newWithClient(Params{Exchange: "NSE"}, fk)

	p, err := z.CurrentPrice(context.Background(), "infy")
	require.NoError(t, err)
	assert.Equal(t, 1520.25, p)

	_, err = z.CurrentPrice(context.Background(), "TCS")
	assert.Error(t, err)
}

func TestCancel(t *testing.T) {
	fk := &fakeKite{}
	z := newWithClient(Params{}, fk)
	require.NoError(t, z.Cancel(context.Background(), types.OrderHandle{OrderID: "42"}))
	assert.Equal(t, []string{"42"}, fk.cancelled)
}

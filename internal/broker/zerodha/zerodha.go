package zerodha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

// ErrMissingCredentials is returned when LIVE mode has no API key or token.
var ErrMissingCredentials = errors.New("missing API key/access token")

// Kite order states that end polling.
const (
	statusComplete  = "COMPLETE"
	statusRejected  = "REJECTED"
	statusCancelled = "CANCELLED"
)

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
	Product     string
}

// Zerodha places market orders through Kite Connect and reports fills by
// polling the order history.
type Zerodha struct {
	p  Params
	kc kiteClient
}

var (
	_ interfaces.Broker   = (*Zerodha)(nil)
	_ interfaces.Canceler = (*Zerodha)(nil)
)

func NewZerodha(p Params) (*Zerodha, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, ErrMissingCredentials
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newWithClient(p, kc), nil
}

func newWithClient(p Params, kc kiteClient) *Zerodha {
	if p.Exchange == "" {
		p.Exchange = kiteconnect.ExchangeNSE
	}
	if p.Product == "" {
		p.Product = kiteconnect.ProductCNC
	}
	return &Zerodha{p: p, kc: kc}
}

func (z *Zerodha) instrument(symbol string) string {
	return z.p.Exchange + ":" + strings.ToUpper(symbol)
}

// CurrentPrice returns the last traded price.
func (z *Zerodha) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := z.instrument(symbol)
	q, err := z.kc.GetLTP(key)
	if err != nil {
		return 0, fmt.Errorf("kite ltp %s: %w", key, err)
	}
	ltp, ok := q[key]
	if !ok || ltp.LastPrice <= 0 {
		return 0, fmt.Errorf("kite ltp %s: no price in response", key)
	}
	return ltp.LastPrice, nil
}

// Submit places a regular-variety market order valid for the day.
func (z *Zerodha) Submit(ctx context.Context, req types.OrderReq) (types.OrderHandle, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderHandle{}, err
	}
	var txn string
	switch req.Side {
	case types.SideBuy:
		txn = kiteconnect.TransactionTypeBuy
	case types.SideSell:
		txn = kiteconnect.TransactionTypeSell
	default:
		return types.OrderHandle{}, fmt.Errorf("unsupported side %q", req.Side)
	}

	resp, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   strings.ToUpper(req.Symbol),
		TransactionType: txn,
		Quantity:        req.Qty,
		Product:         z.p.Product,
		OrderType:       kiteconnect.OrderTypeMarket,
		Validity:        kiteconnect.ValidityDay,
		Tag:             req.Tag,
	})
	if err != nil {
		return types.OrderHandle{}, fmt.Errorf("kite place order: %w", err)
	}
	return types.OrderHandle{
		OrderID:     resp.OrderID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         req.Qty,
		SubmittedAt: time.Now(),
	}, nil
}

// Poll reads the latest entry of the order history.
func (z *Zerodha) Poll(ctx context.Context, h types.OrderHandle) (types.OrderStatus, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderStatus{}, err
	}
	hist, err := z.kc.GetOrderHistory(h.OrderID)
	if err != nil {
		return types.OrderStatus{}, fmt.Errorf("kite order history %s: %w", h.OrderID, err)
	}
	if len(hist) == 0 {
		return types.OrderStatus{State: types.OrderPending}, nil
	}
	last := hist[len(hist)-1]

	switch strings.ToUpper(last.Status) {
	case statusComplete:
		return types.OrderStatus{
			State:     types.OrderFilled,
			Price:     last.AveragePrice,
			FilledQty: int(last.FilledQuantity),
		}, nil
	case statusRejected, statusCancelled:
		msg := last.StatusMessage
		if msg == "" {
			msg = last.Status
		}
		return types.OrderStatus{State: types.OrderRejected, Message: msg}, nil
	default:
		return types.OrderStatus{State: types.OrderPending, Message: last.Status}, nil
	}
}

func (z *Zerodha) Cancel(ctx context.Context, h types.OrderHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := z.kc.CancelOrder(kiteconnect.VarietyRegular, h.OrderID, nil); err != nil {
		return fmt.Errorf("kite cancel %s: %w", h.OrderID, err)
	}
	return nil
}

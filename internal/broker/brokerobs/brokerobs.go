package brokerobs

import (
	"context"
	"errors"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/types"
)

var ErrCancelUnsupported = errors.New("broker does not support cancel")

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var (
	_ interfaces.Broker   = (*observableBroker)(nil)
	_ interfaces.Canceler = (*observableBroker)(nil)
)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{
		broker: broker,
	}
}

// CurrentPrice returns the last traded price with observability
func (ob *observableBroker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.CurrentPrice")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching price", "symbol", symbol)

	price, err := ob.broker.CurrentPrice(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch price", err, "symbol", symbol)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Price fetched successfully", "symbol", symbol, "price", price)
	return price, nil
}

// Submit places an order with observability
func (ob *observableBroker) Submit(ctx context.Context, req types.OrderReq) (types.OrderHandle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Submit")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"tag", req.Tag,
	)

	h, err := ob.broker.Submit(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderHandle{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"symbol", req.Symbol,
		"order_id", h.OrderID,
	)
	return h, nil
}

func (ob *observableBroker) Poll(ctx context.Context, h types.OrderHandle) (types.OrderStatus, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Poll")
	defer span.End()

	st, err := ob.broker.Poll(ctx, h)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to poll order", err, "order_id", h.OrderID)
		return types.OrderStatus{}, err
	}
	if st.State == types.OrderRejected {
		logger.WarnSkip(ctx, 1, "Order rejected by broker", "order_id", h.OrderID, "message", st.Message)
		return st, nil
	}

	logger.DebugSkip(ctx, 1, "Order status",
		"order_id", h.OrderID,
		"state", st.State,
		"price", st.Price,
		"filled_qty", st.FilledQty,
	)
	return st, nil
}

// Cancel forwards to the wrapped broker when it can cancel.
func (ob *observableBroker) Cancel(ctx context.Context, h types.OrderHandle) error {
	c, ok := ob.broker.(interfaces.Canceler)
	if !ok {
		logger.WarnSkip(ctx, 1, "Broker cannot cancel orders", "order_id", h.OrderID)
		return ErrCancelUnsupported
	}

	ctx, span := trace.StartSpan(ctx, "broker.Cancel")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Cancelling order", "order_id", h.OrderID, "symbol", h.Symbol)
	if err := c.Cancel(ctx, h); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to cancel order", err, "order_id", h.OrderID)
		return err
	}
	return nil
}

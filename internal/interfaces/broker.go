package interfaces

import (
	"context"

	"sentiment-trader/internal/types"
)

// Broker is the execution port. Submit returns once the order is accepted;
// the fill is observed through Poll.
type Broker interface {
	Submit(ctx context.Context, req types.OrderReq) (types.OrderHandle, error)
	Poll(ctx context.Context, h types.OrderHandle) (types.OrderStatus, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// Canceler is implemented by brokers that can withdraw a pending order.
type Canceler interface {
	Cancel(ctx context.Context, h types.OrderHandle) error
}

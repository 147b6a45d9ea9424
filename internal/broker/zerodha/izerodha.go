package zerodha

import kiteconnect "github.com/zerodha/gokiteconnect/v4"

// kiteClient is the subset of the Kite Connect client the broker uses.
type kiteClient interface {
	PlaceOrder(variety string, orderParams kiteconnect.OrderParams) (kiteconnect.OrderResponse, error)
	GetOrderHistory(orderID string) ([]kiteconnect.Order, error)
	GetLTP(instruments ...string) (kiteconnect.QuoteLTP, error)
	CancelOrder(variety string, orderID string, parentOrderID *string) (kiteconnect.OrderResponse, error)
}

var _ kiteClient = (*kiteconnect.Client)(nil)

package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

var (
	ErrExecutionTimeout = errors.New("order not filled before timeout")
	ErrOrderRejected    = errors.New("order rejected")
	ErrNothingToExecute = errors.New("decision has nothing to execute")
)

// PortError wraps a failure of the execution port itself.
type PortError struct {
	Op  string
	Err error
}

func (e *PortError) Error() string { return fmt.Sprintf("execution port %s: %v", e.Op, e.Err) }
func (e *PortError) Unwrap() error { return e.Err }

// cancelTimeout bounds the best-effort cancel after a timeout.
const cancelTimeout = 5 * time.Second

type Config struct {
	Symbol          string
	PollInterval    time.Duration
	Timeout         time.Duration
	CancelOnTimeout bool
	Tag             string
}

// Executor drives one decision through the broker: submit a market order,
// then poll until filled, rejected or timed out. It never touches position
// state; the caller commits only when Execute returns a fill.
type Executor struct {
	broker interfaces.Broker
	cfg    Config
	now    func() time.Time
}

func New(broker interfaces.Broker, cfg Config) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Executor{broker: broker, cfg: cfg, now: time.Now}
}

// Execute maps OPEN to a buy and CLOSE/REDUCE to a sell for d.Quantity.
//
// Returns:
//   - fill: Confirmed execution when err is nil
//   - err: ErrExecutionTimeout, ErrOrderRejected or *PortError
func (e *Executor) Execute(ctx context.Context, d types.TradeDecision) (types.Fill, error) {
	side := d.Action.Side()
	if d.IsNone() || side == "" {
		return types.Fill{}, ErrNothingToExecute
	}

	req := types.OrderReq{
		Symbol: e.cfg.Symbol,
		Side:   side,
		Qty:    d.Quantity,
		Tag:    e.cfg.Tag,
	}
	h, err := e.broker.Submit(ctx, req)
	if err != nil {
		return types.Fill{}, &PortError{Op: "submit", Err: err}
	}

	fill, err := e.await(ctx, h, req)
	if err != nil {
		if errors.Is(err, ErrExecutionTimeout) || isPollFailure(err) {
			e.tryCancel(ctx, h)
		}
		return types.Fill{}, err
	}
	return fill, nil
}

func (e *Executor) await(ctx context.Context, h types.OrderHandle, req types.OrderReq) (types.Fill, error) {
	pollCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		st, err := e.broker.Poll(pollCtx, h)
		switch {
		case err != nil:
			if ctx.Err() == nil && pollCtx.Err() != nil {
				return types.Fill{}, fmt.Errorf("%w: order %s after %s", ErrExecutionTimeout, h.OrderID, e.cfg.Timeout)
			}
			return types.Fill{}, &PortError{Op: "poll", Err: err}
		case st.State == types.OrderFilled:
			if st.Price <= 0 {
				return types.Fill{}, &PortError{Op: "poll", Err: fmt.Errorf("order %s filled without a price", h.OrderID)}
			}
			qty := st.FilledQty
			if qty <= 0 {
				qty = req.Qty
			}
			return types.Fill{
				OrderID:  h.OrderID,
				Side:     req.Side,
				Quantity: qty,
				Price:    st.Price,
				At:       e.now(),
			}, nil
		case st.State == types.OrderRejected:
			return types.Fill{}, fmt.Errorf("%w: order %s: %s", ErrOrderRejected, h.OrderID, st.Message)
		}

		select {
		case <-ticker.C:
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return types.Fill{}, &PortError{Op: "poll", Err: ctx.Err()}
			}
			return types.Fill{}, fmt.Errorf("%w: order %s after %s", ErrExecutionTimeout, h.OrderID, e.cfg.Timeout)
		}
	}
}

func isPollFailure(err error) bool {
	var pe *PortError
	return errors.As(err, &pe) && pe.Op == "poll"
}

// tryCancel withdraws an order left in an unknown state.
func (e *Executor) tryCancel(ctx context.Context, h types.OrderHandle) {
	if !e.cfg.CancelOnTimeout {
		return
	}
	c, ok := e.broker.(interfaces.Canceler)
	if !ok {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()
	if err := c.Cancel(cctx, h); err != nil {
		logger.ErrorWithErr(ctx, "Failed to cancel unfilled order", err,
			"order_id", h.OrderID,
			"symbol", h.Symbol,
		)
		return
	}
	logger.Warn(ctx, "Cancelled unfilled order", "order_id", h.OrderID, "symbol", h.Symbol)
}

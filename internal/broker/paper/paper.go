package paper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

var ErrUnknownOrder = errors.New("unknown order")

// Params configures the simulated market.
type Params struct {
	StartPrice     float64
	Volatility     float64 // per-quote standard deviation of the return
	FillAfterPolls int     // polls answered PENDING before the fill
	Seed           int64   // zero seeds from the clock
}

type order struct {
	handle    types.OrderHandle
	remaining int
	price     float64
	state     types.OrderState
}

// Broker simulates a single-symbol market for DRY_RUN: quotes follow a
// random walk and market orders fill at the quote seen on submission.
type Broker struct {
	p Params

	mu     sync.Mutex
	rng    *rand.Rand
	price  float64
	orders map[string]*order
}

var (
	_ interfaces.Broker   = (*Broker)(nil)
	_ interfaces.Canceler = (*Broker)(nil)
)

func New(p Params) *Broker {
	if p.StartPrice <= 0 {
		p.StartPrice = 100
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Broker{
		p:      p,
		rng:    rand.New(rand.NewSource(seed)),
		price:  p.StartPrice,
		orders: make(map[string]*order),
	}
}

// CurrentPrice advances the walk one step and returns the new quote.
func (b *Broker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.step()
	return b.price, nil
}

func (b *Broker) step() {
	if b.p.Volatility <= 0 {
		return
	}
	b.price *= 1 + b.p.Volatility*b.rng.NormFloat64()
	b.price = math.Max(0.01, math.Round(b.price*100)/100)
}

func (b *Broker) Submit(ctx context.Context, req types.OrderReq) (types.OrderHandle, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderHandle{}, err
	}
	if req.Qty <= 0 {
		return types.OrderHandle{}, fmt.Errorf("invalid quantity %d", req.Qty)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	h := types.OrderHandle{
		OrderID:     "SIM-" + uuid.NewString(),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         req.Qty,
		SubmittedAt: time.Now(),
	}
	b.orders[h.OrderID] = &order{
		handle:    h,
		remaining: b.p.FillAfterPolls,
		price:     b.price,
		state:     types.OrderPending,
	}
	return h, nil
}

func (b *Broker) Poll(ctx context.Context, h types.OrderHandle) (types.OrderStatus, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderStatus{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[h.OrderID]
	if !ok {
		return types.OrderStatus{}, fmt.Errorf("%w: %s", ErrUnknownOrder, h.OrderID)
	}
	if o.state == types.OrderPending {
		if o.remaining > 0 {
			o.remaining--
			return types.OrderStatus{State: types.OrderPending}, nil
		}
		o.state = types.OrderFilled
	}
	// a terminal state is reported once, then the order is forgotten
	delete(b.orders, h.OrderID)
	switch o.state {
	case types.OrderFilled:
		return types.OrderStatus{State: types.OrderFilled, Price: o.price, FilledQty: o.handle.Qty}, nil
	default:
		return types.OrderStatus{State: o.state, Message: "cancelled"}, nil
	}
}

func (b *Broker) Cancel(ctx context.Context, h types.OrderHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[h.OrderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, h.OrderID)
	}
	if o.state == types.OrderFilled {
		return fmt.Errorf("order %s already filled", h.OrderID)
	}
	o.state = types.OrderRejected
	return nil
}

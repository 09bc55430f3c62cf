// Package paper is the default simulated venue: every well-formed order
// fills immediately with no external capital movement.
package paper

import (
	"context"
	"fmt"
	"sync"

	"tradeagent/exchange"
	"tradeagent/internal/id"
)

type Adapter struct {
	mu        sync.Mutex
	connected bool
	failNext  error
}

func New() *Adapter {
	return &Adapter{}
}

// FailNext makes the next PlaceOrder fail with err, once. Lets callers
// exercise the venue-failure path without a real venue.
func (a *Adapter) FailNext(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failNext = err
}

func (a *Adapter) takeFailure() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.failNext
	a.failNext = nil
	return err
}

func (a *Adapter) Name() string { return "paper" }

func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = true
	return nil
}

// PlaceOrder fills at the requested limit price, or with no price echo
// for market orders; the executor then falls back to its indicator
// price, matching how a signal venue with no fill report behaves.
func (a *Adapter) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.Order, error) {
	if !a.IsConnected() {
		return exchange.Order{}, fmt.Errorf("paper: not connected")
	}
	if err := a.takeFailure(); err != nil {
		return exchange.Order{}, err
	}
	if req.Quantity <= 0 {
		return exchange.Order{
			OrderID: id.New(),
			Symbol:  req.Symbol,
			Side:    req.Side,
			Qty:     req.Quantity,
			Status:  exchange.StatusRejected,
		}, nil
	}

	return exchange.Order{
		OrderID: id.New(),
		Symbol:  req.Symbol,
		Side:    req.Side,
		Qty:     req.Quantity,
		Price:   req.Price,
		Status:  exchange.StatusFilled,
	}, nil
}

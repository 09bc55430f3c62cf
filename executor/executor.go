// Package executor orchestrates a single trade decision: admissibility,
// sizing, order submission, and the atomic commit of ledger and trade
// log. The ledger is never mutated before the venue confirms a fill,
// and never bypassed.
package executor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tradeagent/config"
	"tradeagent/exchange"
	"tradeagent/internal/id"
	"tradeagent/ledger"
	"tradeagent/tradelog"
)

type Executor struct {
	cfg     config.TradingConfig
	adapter exchange.Adapter
	ledger  *ledger.Ledger
	tlog    *tradelog.Log

	// inFlight serializes opens/closes per symbol: both inspect and
	// mutate the same map entry and must never interleave.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures optional collaborators.
type Option func(*Executor)

// WithTradeSink mirrors every trade record to sink (SQLite, CSV).
func WithTradeSink(sink tradelog.Sink) Option {
	return func(e *Executor) {
		e.tlog = tradelog.NewWithSink(sink)
	}
}

func New(cfg config.TradingConfig, adapter exchange.Adapter, opts ...Option) *Executor {
	e := &Executor{
		cfg:      cfg,
		adapter:  adapter,
		ledger:   ledger.New(cfg.InitialCapital),
		tlog:     tradelog.New(),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteTrade runs one trade decision end to end. It returns
// (nil, nil) when validation decides there is nothing to do (duplicate
// open, no position to close, limits) — a skip, not an error. Typed
// errors cover the invalid action/trade-type combination, venue
// failures, and the fill-without-bookkeeping hazard.
func (e *Executor) ExecuteTrade(ctx context.Context, symbol string, action Action, tradeType exchange.TradeType, ind Indicators) (*TradeResult, error) {
	open, err := intentIsOpen(action, tradeType)
	if err != nil {
		log.Error().Str("symbol", symbol).Str("action", string(action)).
			Str("trade_type", string(tradeType)).Msg("invalid action/trade-type combination")
		return nil, err
	}

	if !e.beginSymbol(symbol) {
		log.Warn().Str("symbol", symbol).Msg("trade already in flight for symbol; skipping")
		return nil, nil
	}
	defer e.endSymbol(symbol)

	ts := ind.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if open {
		return e.executeOpen(ctx, symbol, tradeType, ind.ClosePrice, ts)
	}
	return e.executeClose(ctx, symbol, tradeType, ind.ClosePrice, ts)
}

// intentIsOpen maps the action/trade-type pair to open (true) or close
// (false). Buying a short or selling a long closes it.
func intentIsOpen(action Action, tradeType exchange.TradeType) (bool, error) {
	switch {
	case action == Buy && tradeType == exchange.Long:
		return true, nil
	case action == Sell && tradeType == exchange.Long:
		return false, nil
	case action == Sell && tradeType == exchange.Short:
		return true, nil
	case action == Buy && tradeType == exchange.Short:
		return false, nil
	}
	return false, &ValidationError{Action: string(action), TradeType: string(tradeType)}
}

func (e *Executor) executeOpen(ctx context.Context, symbol string, tradeType exchange.TradeType, price float64, ts time.Time) (*TradeResult, error) {
	if _, exists := e.ledger.Position(symbol); exists {
		log.Info().Str("symbol", symbol).Msg("position already exists; skipping open")
		return nil, nil
	}
	if e.ledger.PositionsCount() >= e.cfg.MaxPositions {
		log.Info().Str("symbol", symbol).Int("max_positions", e.cfg.MaxPositions).
			Msg("max positions reached; skipping open")
		return nil, nil
	}

	cash := e.ledger.AvailableCash()
	riskAmount := cash * e.cfg.RiskPerTrade
	quantity := 0.0
	if price > 0 {
		quantity = riskAmount / price
	}
	if quantity <= 0 {
		log.Warn().Str("symbol", symbol).Float64("price", price).
			Msg("computed quantity is non-positive; skipping open")
		return nil, nil
	}
	notional := quantity * price
	if notional > cash {
		log.Warn().Str("symbol", symbol).Float64("notional", notional).Float64("cash", cash).
			Msg("insufficient cash; skipping open")
		return nil, nil
	}

	// Hold the cash before the order leaves the process, so concurrent
	// opens for other symbols size against what actually remains. The
	// reservation also atomically re-checks the duplicate and slot
	// limits the advisory checks above saw.
	if !e.ledger.Reserve(symbol, notional, e.cfg.MaxPositions) {
		log.Info().Str("symbol", symbol).Msg("reservation rejected; skipping open")
		return nil, nil
	}

	side := exchange.Buy
	if tradeType == exchange.Short {
		side = exchange.Sell
	}

	order, aerr := e.submitOrder(ctx, exchange.OrderRequest{
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		OrderType: "market",
		TradeType: tradeType,
	})
	if aerr != nil {
		e.ledger.Release(symbol)
		log.Warn().Err(aerr).Str("symbol", symbol).Msg("open order failed at venue")
		return nil, aerr
	}

	fillPrice := price
	if order.Price != nil {
		fillPrice = *order.Price
	}
	fillNotional := quantity * fillPrice

	signedQty := quantity
	if tradeType == exchange.Short {
		signedQty = -quantity
	}

	pos := ledger.Position{
		Symbol:     symbol,
		EntryPrice: fillPrice,
		EntryTime:  ts,
		Quantity:   signedQty,
		TradeType:  tradeType,
		Notional:   fillNotional,
	}

	if err := e.ledger.CommitReservation(symbol, pos); err != nil {
		// The venue already filled; refunding the hold would overstate
		// cash, so the reservation stays in place until an operator
		// reconciles.
		log.Error().Err(err).Str("symbol", symbol).Str("order_id", order.OrderID).
			Msg("order filled but ledger rejected commit; manual reconciliation required")
		return nil, &ReconciliationError{Symbol: symbol, OrderID: order.OrderID, Err: err}
	}

	total, cashAfter, _ := e.ledger.PortfolioValue()
	e.tlog.Record(tradelog.Record{
		RecordID:            id.New(),
		Timestamp:           ts,
		Symbol:              symbol,
		Action:              tradelog.ActionOpened,
		TradeType:           tradeType,
		Price:               fillPrice,
		Quantity:            quantity,
		Notional:            fillNotional,
		PortfolioValueAfter: total,
		CashAfter:           cashAfter,
	})

	log.Info().Str("symbol", symbol).Str("trade_type", string(tradeType)).
		Float64("entry_price", fillPrice).Float64("quantity", quantity).
		Float64("notional", fillNotional).Msg("position opened")

	return &TradeResult{
		Action:     tradelog.ActionOpened,
		TradeType:  tradeType,
		Symbol:     symbol,
		EntryPrice: fillPrice,
		Quantity:   signedQty,
		Notional:   fillNotional,
		Timestamp:  ts,
		OrderID:    order.OrderID,
		Exchange:   e.adapter.Name(),
	}, nil
}

func (e *Executor) executeClose(ctx context.Context, symbol string, tradeType exchange.TradeType, price float64, ts time.Time) (*TradeResult, error) {
	pos, exists := e.ledger.Position(symbol)
	if !exists {
		log.Info().Str("symbol", symbol).Msg("no open position; skipping close")
		return nil, nil
	}
	if pos.TradeType != tradeType {
		log.Warn().Str("symbol", symbol).Str("have", string(pos.TradeType)).
			Str("want", string(tradeType)).Msg("trade type mismatch; skipping close")
		return nil, nil
	}

	side := exchange.Sell
	if tradeType == exchange.Short {
		side = exchange.Buy
	}

	order, aerr := e.submitOrder(ctx, exchange.OrderRequest{
		Symbol:    symbol,
		Side:      side,
		Quantity:  math.Abs(pos.Quantity),
		OrderType: "market",
		TradeType: tradeType,
	})
	if aerr != nil {
		log.Warn().Err(aerr).Str("symbol", symbol).Msg("close order failed at venue")
		return nil, aerr
	}

	exitPrice := price
	if order.Price != nil {
		exitPrice = *order.Price
	}

	closed, pnl, ok := e.ledger.ClosePositionAndRelease(symbol, exitPrice)
	if !ok {
		log.Error().Str("symbol", symbol).Str("order_id", order.OrderID).
			Msg("close order filled but position vanished; manual reconciliation required")
		return nil, &ReconciliationError{Symbol: symbol, OrderID: order.OrderID,
			Err: errNoPositionAtCommit(symbol)}
	}

	exitNotional := math.Abs(closed.Quantity) * exitPrice

	total, cashAfter, _ := e.ledger.PortfolioValue()
	e.tlog.Record(tradelog.Record{
		RecordID:            id.New(),
		Timestamp:           ts,
		Symbol:              symbol,
		Action:              tradelog.ActionClosed,
		TradeType:           tradeType,
		Price:               exitPrice,
		Quantity:            math.Abs(closed.Quantity),
		Notional:            exitNotional,
		Pnl:                 &pnl,
		PortfolioValueAfter: total,
		CashAfter:           cashAfter,
	})

	log.Info().Str("symbol", symbol).Str("trade_type", string(tradeType)).
		Float64("exit_price", exitPrice).Float64("pnl", pnl).Msg("position closed")

	return &TradeResult{
		Action:       tradelog.ActionClosed,
		TradeType:    tradeType,
		Symbol:       symbol,
		EntryPrice:   closed.EntryPrice,
		ExitPrice:    exitPrice,
		Quantity:     closed.Quantity,
		Notional:     closed.Notional,
		ExitNotional: exitNotional,
		Pnl:          &pnl,
		HoldingTime:  ts.Sub(closed.EntryTime),
		Timestamp:    ts,
		OrderID:      order.OrderID,
		Exchange:     e.adapter.Name(),
	}, nil
}

// submitOrder connects the adapter if needed and places the order. A
// rejected or cancelled status is an adapter failure like any other: no
// local state was touched yet.
func (e *Executor) submitOrder(ctx context.Context, req exchange.OrderRequest) (exchange.Order, *AdapterError) {
	if !e.adapter.IsConnected() {
		if err := e.adapter.Connect(ctx); err != nil {
			return exchange.Order{}, &AdapterError{Op: "connect", Symbol: req.Symbol, Err: err}
		}
	}

	order, err := e.adapter.PlaceOrder(ctx, req)
	if err != nil {
		return exchange.Order{}, &AdapterError{Op: "place_order", Symbol: req.Symbol, Err: err}
	}
	if order.Status == exchange.StatusRejected || order.Status == exchange.StatusCancelled {
		return exchange.Order{}, &AdapterError{Op: "place_order", Symbol: req.Symbol, Status: string(order.Status)}
	}
	return order, nil
}

func (e *Executor) beginSymbol(symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[symbol]; busy {
		return false
	}
	e.inFlight[symbol] = struct{}{}
	return true
}

func (e *Executor) endSymbol(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, symbol)
}

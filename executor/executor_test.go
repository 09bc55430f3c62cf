package executor

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"tradeagent/config"
	"tradeagent/exchange"
)

// fakeAdapter is a scriptable venue for executor tests.
type fakeAdapter struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	placeErr   error
	status     exchange.OrderStatus
	echoPrice  *float64
	delay      time.Duration
	requests   []exchange.OrderRequest
}

func (a *fakeAdapter) Name() string { return "fake" }

func (a *fakeAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

func (a *fakeAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connectErr != nil {
		return a.connectErr
	}
	a.connected = true
	return nil
}

func (a *fakeAdapter) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.Order, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)

	if a.placeErr != nil {
		return exchange.Order{}, a.placeErr
	}
	status := a.status
	if status == "" {
		status = exchange.StatusFilled
	}
	return exchange.Order{
		OrderID: "ORD-1",
		Symbol:  req.Symbol,
		Side:    req.Side,
		Qty:     req.Quantity,
		Price:   a.echoPrice,
		Status:  status,
	}, nil
}

func (a *fakeAdapter) orderCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func newExecutor(t *testing.T, capital float64, maxPositions int, risk float64) (*Executor, *fakeAdapter) {
	t.Helper()
	adapter := &fakeAdapter{}
	return New(config.TradingConfig{
		InitialCapital: capital,
		MaxPositions:   maxPositions,
		RiskPerTrade:   risk,
	}, adapter), adapter
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// checkReconciled asserts cash + open notional == initial + realized.
func checkReconciled(t *testing.T, e *Executor) {
	t.Helper()
	s := e.PortfolioSummary()
	if !approxEqual(s.Cash+s.PositionsValue, s.InitialCapital+s.RealizedPnl, 1e-9) {
		t.Fatalf("reconciliation broken: cash %.6f + positions %.6f != initial %.6f + realized %.6f",
			s.Cash, s.PositionsValue, s.InitialCapital, s.RealizedPnl)
	}
}

func TestOpenLong(t *testing.T) {
	e, _ := newExecutor(t, 10_000, 5, 0.1)

	res, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}
	if res.Action != "opened" {
		t.Fatalf("action: got %s", res.Action)
	}
	if !approxEqual(res.Quantity, 10, 1e-9) {
		t.Fatalf("quantity: got %.6f want 10", res.Quantity)
	}
	if !approxEqual(res.Notional, 1_000, 1e-9) {
		t.Fatalf("notional: got %.2f want 1000", res.Notional)
	}
	if got := e.CurrentCash(); !approxEqual(got, 9_000, 1e-9) {
		t.Fatalf("cash: got %.2f want 9000", got)
	}
	if len(e.TradeHistory()) != 1 {
		t.Fatal("expected one history record")
	}
	if e.TradeHistory()[0].Pnl != nil {
		t.Fatal("open record must have nil pnl")
	}
	checkReconciled(t, e)
}

func TestOpenDuplicateSkipped(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	ctx := context.Background()

	if _, err := e.ExecuteTrade(ctx, "BTC-USD", Buy, exchange.Long, Indicators{ClosePrice: 100}); err != nil {
		t.Fatalf("first open: %v", err)
	}
	res, err := e.ExecuteTrade(ctx, "BTC-USD", Buy, exchange.Long, Indicators{ClosePrice: 100})
	if err != nil || res != nil {
		t.Fatalf("duplicate open should be a silent skip, got res=%v err=%v", res, err)
	}
	if adapter.orderCount() != 1 {
		t.Fatal("duplicate open must not reach the venue")
	}
	if got := e.CurrentCash(); !approxEqual(got, 9_000, 1e-9) {
		t.Fatalf("cash mutated by skip: %.2f", got)
	}
	if len(e.TradeHistory()) != 1 {
		t.Fatal("history grew on a skip")
	}
}

func TestMaxPositionsEnforced(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 1, 0.1)
	ctx := context.Background()

	if _, err := e.ExecuteTrade(ctx, "BTC-USD", Buy, exchange.Long, Indicators{ClosePrice: 100}); err != nil {
		t.Fatalf("first open: %v", err)
	}
	res, err := e.ExecuteTrade(ctx, "ETH-USD", Buy, exchange.Long, Indicators{ClosePrice: 50})
	if err != nil || res != nil {
		t.Fatalf("open beyond max positions should skip, got res=%v err=%v", res, err)
	}
	if adapter.orderCount() != 1 {
		t.Fatal("skipped open must not reach the venue")
	}
	if _, exists := e.Positions()["ETH-USD"]; exists {
		t.Fatal("skipped open inserted a position")
	}
}

func TestOpenNonPositivePriceSkipped(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)

	res, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long, Indicators{ClosePrice: 0})
	if err != nil || res != nil {
		t.Fatalf("zero price should skip, got res=%v err=%v", res, err)
	}
	if adapter.orderCount() != 0 {
		t.Fatal("skip must not reach the venue")
	}
}

func TestInvalidCombination(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)

	_, err := e.ExecuteTrade(context.Background(), "BTC-USD", Action("hold"), exchange.Long,
		Indicators{ClosePrice: 100})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if adapter.orderCount() != 0 {
		t.Fatal("invalid combination must not reach the venue")
	}
}

func TestAdapterRejectionAborts(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	adapter.status = exchange.StatusRejected

	_, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100})

	var aerr *AdapterError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AdapterError, got %v", err)
	}
	if got := e.CurrentCash(); !approxEqual(got, 10_000, 1e-9) {
		t.Fatalf("rejection left cash debited: %.2f", got)
	}
	if len(e.TradeHistory()) != 0 {
		t.Fatal("rejection recorded a trade")
	}
	checkReconciled(t, e)
}

func TestAdapterFailureReleasesReservation(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	adapter.placeErr = errors.New("venue down")

	_, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100})

	var aerr *AdapterError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AdapterError, got %v", err)
	}
	if got := e.CurrentCash(); !approxEqual(got, 10_000, 1e-9) {
		t.Fatalf("failed open left cash held: %.2f", got)
	}

	// The venue recovered; the same open must now go through.
	adapter.placeErr = nil
	res, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100})
	if err != nil || res == nil {
		t.Fatalf("retry after failure: res=%v err=%v", res, err)
	}
}

func TestConnectFailure(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	adapter.connectErr = errors.New("no route")

	_, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100})

	var aerr *AdapterError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AdapterError, got %v", err)
	}
	if aerr.Op != "connect" {
		t.Fatalf("op: got %s want connect", aerr.Op)
	}
}

func TestFillPriceEcho(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	echo := 101.0
	adapter.echoPrice = &echo

	res, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !approxEqual(res.EntryPrice, 101, 1e-9) {
		t.Fatalf("entry price: got %.2f want echoed 101", res.EntryPrice)
	}
	// Notional follows the fill price; the drift settles against cash.
	if !approxEqual(res.Notional, 1_010, 1e-9) {
		t.Fatalf("notional: got %.2f want 1010", res.Notional)
	}
	if got := e.CurrentCash(); !approxEqual(got, 8_990, 1e-9) {
		t.Fatalf("cash: got %.2f want 8990", got)
	}
	checkReconciled(t, e)
}

func TestCloseLongProfit(t *testing.T) {
	e, _ := newExecutor(t, 10_000, 5, 0.1)
	ctx := context.Background()

	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	if _, err := e.ExecuteTrade(ctx, "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100, Timestamp: t0}); err != nil {
		t.Fatalf("open: %v", err)
	}

	res, err := e.ExecuteTrade(ctx, "BTC-USD", Sell, exchange.Long,
		Indicators{ClosePrice: 110, Timestamp: t0.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if res == nil || res.Action != "closed" {
		t.Fatalf("expected close result, got %+v", res)
	}
	if res.Pnl == nil || !approxEqual(*res.Pnl, 100, 1e-9) {
		t.Fatalf("pnl: got %v want 100", res.Pnl)
	}
	if res.HoldingTime != 2*time.Hour {
		t.Fatalf("holding time: got %s", res.HoldingTime)
	}
	if got := e.CurrentCash(); !approxEqual(got, 10_100, 1e-9) {
		t.Fatalf("cash: got %.2f want 10100", got)
	}
	if len(e.TradeHistory()) != 2 {
		t.Fatal("expected two history records")
	}
	checkReconciled(t, e)
}

func TestShortRoundTrip(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	ctx := context.Background()

	res, err := e.ExecuteTrade(ctx, "ETH-USD", Sell, exchange.Short, Indicators{ClosePrice: 100})
	if err != nil || res == nil {
		t.Fatalf("open short: res=%v err=%v", res, err)
	}
	if res.Quantity >= 0 {
		t.Fatalf("short quantity must be negative, got %.6f", res.Quantity)
	}
	if adapter.requests[0].Side != exchange.Sell {
		t.Fatalf("short opens with a sell, got %s", adapter.requests[0].Side)
	}

	res, err = e.ExecuteTrade(ctx, "ETH-USD", Buy, exchange.Short, Indicators{ClosePrice: 90})
	if err != nil || res == nil {
		t.Fatalf("close short: res=%v err=%v", res, err)
	}
	if adapter.requests[1].Side != exchange.Buy {
		t.Fatalf("short closes with a buy, got %s", adapter.requests[1].Side)
	}
	// (90-100) * -10 = +100
	if res.Pnl == nil || !approxEqual(*res.Pnl, 100, 1e-9) {
		t.Fatalf("short pnl: got %v want 100", res.Pnl)
	}
	checkReconciled(t, e)
}

func TestCloseWithoutPositionIsNoop(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)

	res, err := e.ExecuteTrade(context.Background(), "BTC-USD", Sell, exchange.Long,
		Indicators{ClosePrice: 100})
	if err != nil || res != nil {
		t.Fatalf("close with no position should skip, got res=%v err=%v", res, err)
	}
	if adapter.orderCount() != 0 {
		t.Fatal("no-op close must not reach the venue")
	}
	if got := e.CurrentCash(); !approxEqual(got, 10_000, 1e-9) {
		t.Fatalf("no-op close mutated cash: %.2f", got)
	}
}

func TestCloseTradeTypeMismatchSkipped(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	ctx := context.Background()

	if _, err := e.ExecuteTrade(ctx, "BTC-USD", Buy, exchange.Long, Indicators{ClosePrice: 100}); err != nil {
		t.Fatalf("open: %v", err)
	}
	res, err := e.ExecuteTrade(ctx, "BTC-USD", Buy, exchange.Short, Indicators{ClosePrice: 100})
	if err != nil || res != nil {
		t.Fatalf("mismatched close should skip, got res=%v err=%v", res, err)
	}
	if adapter.orderCount() != 1 {
		t.Fatal("mismatched close must not reach the venue")
	}
	if _, exists := e.Positions()["BTC-USD"]; !exists {
		t.Fatal("mismatched close removed the position")
	}
}

func TestReconciliationErrorOnOverdrawingFill(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	// Fill comes back at 11x the reference price: the drift exceeds all
	// remaining cash and the ledger must reject the commit.
	echo := 1_100.0
	adapter.echoPrice = &echo

	_, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
		Indicators{ClosePrice: 100})

	var rerr *ReconciliationError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ReconciliationError, got %v", err)
	}
	// The hold is deliberately not refunded: capital is committed at the
	// venue and the books must show it missing until reconciled.
	if got := e.CurrentCash(); !approxEqual(got, 9_000, 1e-9) {
		t.Fatalf("cash after reconciliation error: got %.2f want 9000", got)
	}
	if len(e.TradeHistory()) != 0 {
		t.Fatal("reconciliation error recorded a trade")
	}
}

func TestConcurrentOpensNeverOverdraw(t *testing.T) {
	e, adapter := newExecutor(t, 1_000, 100, 0.5)
	adapter.delay = 5 * time.Millisecond

	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			_, _ = e.ExecuteTrade(context.Background(), sym, Buy, exchange.Long,
				Indicators{ClosePrice: 10})
		}(sym)
	}
	wg.Wait()

	s := e.PortfolioSummary()
	if s.Cash < -1e-9 {
		t.Fatalf("cash overdrawn: %.6f", s.Cash)
	}
	if s.PositionsValue > 1_000+1e-9 {
		t.Fatalf("positions exceed initial capital: %.6f", s.PositionsValue)
	}
	checkReconciled(t, e)
}

func TestConcurrentSameSymbolSerialized(t *testing.T) {
	e, adapter := newExecutor(t, 10_000, 5, 0.1)
	adapter.delay = 10 * time.Millisecond

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.ExecuteTrade(context.Background(), "BTC-USD", Buy, exchange.Long,
				Indicators{ClosePrice: 100})
			if err == nil && res != nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("same-symbol opens: got %d successes want 1", successes)
	}
	if got := e.CurrentCash(); !approxEqual(got, 9_000, 1e-9) {
		t.Fatalf("cash: got %.2f want 9000", got)
	}
}

func TestHistoryAppendOnly(t *testing.T) {
	e, _ := newExecutor(t, 10_000, 5, 0.1)
	ctx := context.Background()

	steps := []struct {
		symbol string
		action Action
		typ    exchange.TradeType
		price  float64
	}{
		{"BTC-USD", Buy, exchange.Long, 100},
		{"ETH-USD", Sell, exchange.Short, 50},
		{"BTC-USD", Sell, exchange.Long, 105},
		{"ETH-USD", Buy, exchange.Short, 45},
	}

	for i, step := range steps {
		res, err := e.ExecuteTrade(ctx, step.symbol, step.action, step.typ,
			Indicators{ClosePrice: step.price})
		if err != nil || res == nil {
			t.Fatalf("step %d: res=%v err=%v", i, res, err)
		}
		if got := len(e.TradeHistory()); got != i+1 {
			t.Fatalf("step %d: history length %d want %d", i, got, i+1)
		}
	}

	stats := e.TradeStatistics()
	if stats.ClosedTrades != 2 {
		t.Fatalf("closed trades: got %d want 2", stats.ClosedTrades)
	}
	if stats.Wins != 2 {
		t.Fatalf("wins: got %d want 2", stats.Wins)
	}
	checkReconciled(t, e)
}

func TestReset(t *testing.T) {
	e, _ := newExecutor(t, 10_000, 5, 0.1)
	ctx := context.Background()

	if _, err := e.ExecuteTrade(ctx, "BTC-USD", Buy, exchange.Long, Indicators{ClosePrice: 100}); err != nil {
		t.Fatalf("open: %v", err)
	}

	e.Reset(5_000)

	if got := e.CurrentCash(); !approxEqual(got, 5_000, 1e-9) {
		t.Fatalf("cash after reset: got %.2f want 5000", got)
	}
	if len(e.Positions()) != 0 {
		t.Fatal("positions survived reset")
	}
	if len(e.TradeHistory()) != 0 {
		t.Fatal("history survived reset")
	}
}

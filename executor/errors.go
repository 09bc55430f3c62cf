package executor

import "fmt"

// ValidationError reports a caller programming error: an action and
// trade type that map to no concrete intent. Other validation failures
// (duplicate open, insufficient cash, max positions, mismatched close)
// are silent skips, diagnostics only, matching the no-action contract.
type ValidationError struct {
	Action    string
	TradeType string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action/trade-type combination: %s/%s", e.Action, e.TradeType)
}

// AdapterError wraps a venue-side failure: connect failure, transport
// error, or a rejected/cancelled order. The operation aborted with no
// local mutation.
type AdapterError struct {
	Op     string // "connect" or "place_order"
	Symbol string
	Status string // order status when the venue answered, "" otherwise
	Err    error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adapter %s %s: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("adapter %s %s: order %s", e.Op, e.Symbol, e.Status)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// ReconciliationError reports the one failure that is not locally
// recoverable: the venue filled an order but the ledger rejected the
// matching bookkeeping. Capital is committed externally with no local
// record; an operator must reconcile by hand.
type ReconciliationError struct {
	Symbol  string
	OrderID string
	Err     error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation required for %s (order %s): %v", e.Symbol, e.OrderID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

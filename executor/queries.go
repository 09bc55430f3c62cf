package executor

import (
	"fmt"
	"time"

	"tradeagent/ledger"
	"tradeagent/tradelog"
)

func errNoPositionAtCommit(symbol string) error {
	return fmt.Errorf("no position for %s at commit time", symbol)
}

// PortfolioValue returns the total portfolio value: cash plus the entry
// notional of all open positions.
func (e *Executor) PortfolioValue() float64 {
	total, _, _ := e.ledger.PortfolioValue()
	return total
}

// PortfolioSummary returns the full portfolio picture.
func (e *Executor) PortfolioSummary() ledger.Summary {
	return e.ledger.Summary()
}

// CurrentCash returns the available (unreserved) cash.
func (e *Executor) CurrentCash() float64 {
	return e.ledger.AvailableCash()
}

// Positions returns a copy of the open-position map.
func (e *Executor) Positions() map[string]ledger.Position {
	return e.ledger.AllPositions()
}

// SnapshotPositions appends a point-in-time copy of all open positions
// to the position history.
func (e *Executor) SnapshotPositions(ts time.Time) {
	e.ledger.SnapshotPositions(ts)
}

// SnapshotPortfolio appends the current valuation to the portfolio
// history.
func (e *Executor) SnapshotPortfolio(ts time.Time) {
	e.ledger.SnapshotPortfolio(ts)
}

func (e *Executor) TradeHistory() []tradelog.Record {
	return e.tlog.Trades()
}

func (e *Executor) PositionHistory() []ledger.PositionSnapshot {
	return e.ledger.PositionHistory()
}

func (e *Executor) PortfolioHistory() []ledger.PortfolioSnapshot {
	return e.ledger.PortfolioHistory()
}

func (e *Executor) TradeStatistics() tradelog.Statistics {
	return e.tlog.Statistics()
}

func (e *Executor) SymbolStatistics(symbol string) tradelog.Statistics {
	return e.tlog.SymbolStatistics(symbol)
}

func (e *Executor) DailyStatistics() map[string]tradelog.DailyStats {
	return e.tlog.DailyStatistics()
}

// Reset clears ledger and trade log and restarts from initialCapital.
func (e *Executor) Reset(initialCapital float64) {
	e.ledger.Reset(initialCapital)
	e.tlog.Reset()
}

// Close releases the trade sink, if one is attached.
func (e *Executor) Close() error {
	return e.tlog.Close()
}

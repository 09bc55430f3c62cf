// Package ledger is the sole owner of cash and open positions. Every
// mutation runs inside one mutex so the reconciliation equality
//
//	cash + reserved + sum(open notional) == initial capital + realized pnl
//
// holds at every quiescent point and is never visibly broken mid-close.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"tradeagent/exchange"
)

// Position is one open position. Quantity is signed: positive for long,
// negative for short. Notional is the cash reserved at open time,
// |quantity| * entry price.
type Position struct {
	Symbol     string
	EntryPrice float64
	EntryTime  time.Time
	Quantity   float64
	TradeType  exchange.TradeType
	Notional   float64
}

// PositionSnapshot is a point-in-time copy of all open positions.
type PositionSnapshot struct {
	Time      time.Time
	Positions []Position
}

// PortfolioSnapshot is a point-in-time portfolio valuation.
type PortfolioSnapshot struct {
	Time           time.Time
	Total          float64
	Cash           float64
	PositionsValue float64
}

// Summary is the full portfolio picture at one instant.
type Summary struct {
	Total          float64
	Cash           float64
	PositionsValue float64
	OpenPositions  []Position
	RealizedPnl    float64
	InitialCapital float64
	ReturnPct      float64
}

type Ledger struct {
	mu sync.Mutex

	initialCapital float64
	cash           float64
	positions      map[string]Position
	reserved       map[string]float64 // cash held for in-flight opens
	realizedPnl    float64

	positionHist  []PositionSnapshot
	portfolioHist []PortfolioSnapshot
}

func New(initialCapital float64) *Ledger {
	return &Ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]Position),
		reserved:       make(map[string]float64),
	}
}

// PositionPnl computes realized pnl for a position exiting at exitPrice.
// Quantity is signed, so the single formula covers both directions: a
// short profits when the price falls because both factors are negative.
func PositionPnl(p Position, exitPrice float64) float64 {
	return (exitPrice - p.EntryPrice) * p.Quantity
}

// OpenPosition atomically checks admissibility and commits the open:
// it fails if a position or reservation already exists for the symbol, or
// if debiting the notional would overdraw cash. On success cash is
// debited by the notional and the position inserted.
func (l *Ledger) OpenPosition(symbol string, p Position) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.positions[symbol]; exists {
		return false
	}
	if _, held := l.reserved[symbol]; held {
		return false
	}
	if p.Notional > l.cash {
		return false
	}

	l.cash -= p.Notional
	l.positions[symbol] = p
	return true
}

// ClosePosition removes and returns the position for symbol. The caller
// must credit cash via ReleaseCash as part of the same logical close;
// ClosePositionAndRelease does both under one lock and is what the
// executor uses.
func (l *Ledger) ClosePosition(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closePositionLocked(symbol)
}

func (l *Ledger) closePositionLocked(symbol string) (Position, bool) {
	p, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	delete(l.positions, symbol)
	return p, true
}

// ReleaseCash credits the entry notional plus realized pnl back to cash.
func (l *Ledger) ReleaseCash(notional, pnl float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseCashLocked(notional, pnl)
}

func (l *Ledger) releaseCashLocked(notional, pnl float64) {
	l.cash += notional + pnl
	l.realizedPnl += pnl
}

// ClosePositionAndRelease removes the position and credits cash as one
// atomic unit: no concurrent reader can observe the position gone with
// the cash not yet credited. Returns the closed position and its pnl.
func (l *Ledger) ClosePositionAndRelease(symbol string, exitPrice float64) (Position, float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.closePositionLocked(symbol)
	if !ok {
		return Position{}, 0, false
	}
	pnl := PositionPnl(p, exitPrice)
	l.releaseCashLocked(p.Notional, pnl)
	return p, pnl, true
}

// Reserve holds notional cash for an in-flight open before the external
// order goes out, so two concurrent opens can never jointly overdraw the
// cash they both observed. It fails if the symbol already has a position
// or reservation, if the open-slot limit is reached, or if cash is
// insufficient. maxOpen <= 0 means unlimited.
func (l *Ledger) Reserve(symbol string, notional float64, maxOpen int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.positions[symbol]; exists {
		return false
	}
	if _, held := l.reserved[symbol]; held {
		return false
	}
	if maxOpen > 0 && len(l.positions)+len(l.reserved) >= maxOpen {
		return false
	}
	if notional <= 0 || notional > l.cash {
		return false
	}

	l.cash -= notional
	l.reserved[symbol] = notional
	return true
}

// Release cancels a reservation and refunds the held cash. A no-op when
// no reservation exists.
func (l *Ledger) Release(symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.reserved[symbol]; ok {
		l.cash += held
		delete(l.reserved, symbol)
	}
}

// CommitReservation converts a reservation into an open position. The
// position's notional may differ from the reserved amount when the fill
// price drifted from the reference price; the difference settles against
// cash. Fails if no reservation exists or the drift would overdraw cash,
// leaving the reservation in place for the caller to Release.
func (l *Ledger) CommitReservation(symbol string, p Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held, ok := l.reserved[symbol]
	if !ok {
		return fmt.Errorf("commit %s: no reservation", symbol)
	}
	drift := p.Notional - held
	if drift > l.cash {
		return fmt.Errorf("commit %s: fill drift %.2f exceeds available cash %.2f", symbol, drift, l.cash)
	}

	l.cash -= drift
	delete(l.reserved, symbol)
	l.positions[symbol] = p
	return nil
}

// PortfolioValue returns total value, cash, and the open-position value.
// Positions are valued at entry notional; this core has no pricing feed.
func (l *Ledger) PortfolioValue() (total, cash, positionsValue float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.portfolioValueLocked()
}

func (l *Ledger) portfolioValueLocked() (total, cash, positionsValue float64) {
	for _, p := range l.positions {
		positionsValue += p.Notional
	}
	return l.cash + positionsValue, l.cash, positionsValue
}

func (l *Ledger) AvailableCash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

func (l *Ledger) PositionsCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.positions)
}

func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	return p, ok
}

// AllPositions returns a copy of the open-position map.
func (l *Ledger) AllPositions() map[string]Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Position, len(l.positions))
	for sym, p := range l.positions {
		out[sym] = p
	}
	return out
}

func (l *Ledger) RealizedPnl() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.realizedPnl
}

func (l *Ledger) InitialCapital() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialCapital
}

// Summary returns the full portfolio picture under one lock.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	total, cash, posValue := l.portfolioValueLocked()
	open := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		open = append(open, p)
	}

	s := Summary{
		Total:          total,
		Cash:           cash,
		PositionsValue: posValue,
		OpenPositions:  open,
		RealizedPnl:    l.realizedPnl,
		InitialCapital: l.initialCapital,
	}
	if l.initialCapital > 0 {
		s.ReturnPct = (total - l.initialCapital) / l.initialCapital * 100
	}
	return s
}

// SnapshotPositions appends an immutable copy of the open positions to
// the position history. Snapshots are write-once; the ledger never reads
// them back.
func (l *Ledger) SnapshotPositions(ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := PositionSnapshot{Time: ts, Positions: make([]Position, 0, len(l.positions))}
	for _, p := range l.positions {
		snap.Positions = append(snap.Positions, p)
	}
	l.positionHist = append(l.positionHist, snap)
}

// SnapshotPortfolio appends the current valuation to the portfolio
// history.
func (l *Ledger) SnapshotPortfolio(ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total, cash, posValue := l.portfolioValueLocked()
	l.portfolioHist = append(l.portfolioHist, PortfolioSnapshot{
		Time:           ts,
		Total:          total,
		Cash:           cash,
		PositionsValue: posValue,
	})
}

func (l *Ledger) PositionHistory() []PositionSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]PositionSnapshot, len(l.positionHist))
	copy(out, l.positionHist)
	return out
}

func (l *Ledger) PortfolioHistory() []PortfolioSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]PortfolioSnapshot, len(l.portfolioHist))
	copy(out, l.portfolioHist)
	return out
}

// Reset clears all state and sets cash to initialCapital. Irreversible;
// meant for session restarts and tests.
func (l *Ledger) Reset(initialCapital float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.initialCapital = initialCapital
	l.cash = initialCapital
	l.positions = make(map[string]Position)
	l.reserved = make(map[string]float64)
	l.realizedPnl = 0
	l.positionHist = nil
	l.portfolioHist = nil
}

// Package tradelog keeps the append-only trade history and derives
// statistics from it on read. Records are immutable once appended; the
// in-memory log is the source of truth and sinks are best-effort mirrors.
package tradelog

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tradeagent/exchange"
)

const (
	ActionOpened = "opened"
	ActionClosed = "closed"
)

// Record is one completed open or close. Pnl is nil for opens; only
// records with a non-nil Pnl enter the pnl aggregates.
type Record struct {
	RecordID            string
	Timestamp           time.Time
	Symbol              string
	Action              string
	TradeType           exchange.TradeType
	Price               float64
	Quantity            float64
	Notional            float64
	Pnl                 *float64
	PortfolioValueAfter float64
	CashAfter           float64
}

// Sink mirrors records to durable storage (SQLite, CSV). Sink failures
// never fail the trade; they are logged and the in-memory log stays
// authoritative.
type Sink interface {
	RecordTrade(Record) error
	Close() error
}

type Log struct {
	mu      sync.Mutex
	records []Record
	sink    Sink
}

func New() *Log {
	return &Log{}
}

// FromRecords rebuilds a log from previously persisted records, e.g. to
// compute statistics over a stored journal.
func FromRecords(recs []Record) *Log {
	l := &Log{records: make([]Record, len(recs))}
	copy(l.records, recs)
	return l
}

// NewWithSink returns a log that mirrors every record to sink.
func NewWithSink(sink Sink) *Log {
	return &Log{sink: sink}
}

// Record appends rec. The executor guarantees content correctness; the
// log does no validation beyond accepting the record as-is. The mutex
// is held across the sink write: sinks are not required to be safe for
// concurrent use, and the mirror must see records in insertion order.
func (l *Log) Record(rec Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	if l.sink != nil {
		if err := l.sink.RecordTrade(rec); err != nil {
			log.Warn().Err(err).Str("symbol", rec.Symbol).Str("action", rec.Action).
				Msg("trade sink write failed; in-memory log unaffected")
		}
	}
}

// Trades returns all records in insertion (chronological) order.
func (l *Log) Trades() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset clears the log. The sink, if any, is left untouched.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// Close closes the sink, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

package tradelog

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tradeagent/exchange"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	record_id TEXT PRIMARY KEY,
	ts DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	trade_type TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	notional REAL NOT NULL,
	pnl REAL,
	portfolio_value_after REAL NOT NULL,
	cash_after REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`

// SQLite mirrors trade records into a SQLite database so history
// survives the process and can be queried offline (CLI journal/stats).
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordTrade(rec Record) error {
	var pnl sql.NullFloat64
	if rec.Pnl != nil {
		pnl = sql.NullFloat64{Float64: *rec.Pnl, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO trades
		(record_id, ts, symbol, action, trade_type, price, quantity, notional, pnl, portfolio_value_after, cash_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RecordID, rec.Timestamp, rec.Symbol, rec.Action, string(rec.TradeType),
		rec.Price, rec.Quantity, rec.Notional, pnl,
		rec.PortfolioValueAfter, rec.CashAfter,
	)
	return err
}

// ListAll returns every stored record in chronological order, used to
// rebuild an in-memory log for offline statistics.
func (s *SQLite) ListAll() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT record_id, ts, symbol, action, trade_type, price, quantity, notional, pnl, portfolio_value_after, cash_after
		FROM trades
		ORDER BY ts ASC, record_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListBetween returns records with ts within [start, end) in
// chronological order.
func (s *SQLite) ListBetween(start, end time.Time) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT record_id, ts, symbol, action, trade_type, price, quantity, notional, pnl, portfolio_value_after, cash_after
		FROM trades
		WHERE ts >= ? AND ts < ?
		ORDER BY ts ASC, record_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			rec       Record
			tradeType string
			pnl       sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.RecordID,
			&rec.Timestamp,
			&rec.Symbol,
			&rec.Action,
			&tradeType,
			&rec.Price,
			&rec.Quantity,
			&rec.Notional,
			&pnl,
			&rec.PortfolioValueAfter,
			&rec.CashAfter,
		); err != nil {
			return nil, err
		}
		rec.TradeType = exchange.TradeType(tradeType)
		if pnl.Valid {
			v := pnl.Float64
			rec.Pnl = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

package tradelog

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV mirrors trade records to a flat CSV file, one row per record.
type CSV struct {
	w    *csv.Writer
	file *os.File
}

func NewCSV(path string) (*CSV, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(file)
	if err := w.Write([]string{
		"record_id", "ts", "symbol", "action", "trade_type",
		"price", "quantity", "notional", "pnl", "portfolio_value_after", "cash_after",
	}); err != nil {
		file.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return nil, err
	}

	return &CSV{w: w, file: file}, nil
}

func (c *CSV) RecordTrade(rec Record) error {
	pnl := ""
	if rec.Pnl != nil {
		pnl = f(*rec.Pnl)
	}

	err := c.w.Write([]string{
		rec.RecordID,
		rec.Timestamp.Format(time.RFC3339),
		rec.Symbol,
		rec.Action,
		string(rec.TradeType),
		f(rec.Price),
		f(rec.Quantity),
		f(rec.Notional),
		pnl,
		f(rec.PortfolioValueAfter),
		f(rec.CashAfter),
	})
	if err != nil {
		return err
	}

	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	return c.file.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

package tradelog

import "time"

// Statistics aggregates closed trades. Opens appear in Records but not
// in the pnl figures.
type Statistics struct {
	Records      int
	ClosedTrades int
	Wins         int
	Losses       int
	WinRate      float64
	TotalPnl     float64
	AvgPnl       float64
	BestPnl      float64
	WorstPnl     float64
}

// DailyStats is the pnl breakdown for one UTC calendar day.
type DailyStats struct {
	Trades   int
	Wins     int
	TotalPnl float64
}

// Statistics scans all records and aggregates the closed ones.
func (l *Log) Statistics() Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return aggregate(l.records, "")
}

// SymbolStatistics is Statistics restricted to one symbol.
func (l *Log) SymbolStatistics(symbol string) Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return aggregate(l.records, symbol)
}

// DailyStatistics groups closed trades by UTC calendar date, keyed
// "2006-01-02".
func (l *Log) DailyStatistics() map[string]DailyStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]DailyStats)
	for _, rec := range l.records {
		if rec.Pnl == nil {
			continue
		}
		day := rec.Timestamp.UTC().Format(time.DateOnly)
		ds := out[day]
		ds.Trades++
		if *rec.Pnl > 0 {
			ds.Wins++
		}
		ds.TotalPnl += *rec.Pnl
		out[day] = ds
	}
	return out
}

func aggregate(records []Record, symbol string) Statistics {
	var s Statistics
	first := true

	for _, rec := range records {
		if symbol != "" && rec.Symbol != symbol {
			continue
		}
		s.Records++
		if rec.Pnl == nil {
			continue
		}

		pnl := *rec.Pnl
		s.ClosedTrades++
		s.TotalPnl += pnl
		if pnl > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
		if first || pnl > s.BestPnl {
			s.BestPnl = pnl
		}
		if first || pnl < s.WorstPnl {
			s.WorstPnl = pnl
		}
		first = false
	}

	if s.ClosedTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.ClosedTrades)
		s.AvgPnl = s.TotalPnl / float64(s.ClosedTrades)
	}
	return s
}

package executor

import (
	"time"

	"tradeagent/exchange"
)

// Action is the caller's buy/sell decision. Combined with the trade
// type it determines the concrete intent: buy+long and sell+short open,
// sell+long and buy+short close.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// Indicators carries the market state the caller decided on. ClosePrice
// is the reference price used for sizing and as the fill-price fallback
// when the venue does not echo one.
type Indicators struct {
	ClosePrice float64
	Timestamp  time.Time // zero means now
}

// TradeResult describes a completed open or close. Close-only fields
// (ExitPrice, Pnl, ExitNotional, HoldingTime) are zero on opens.
type TradeResult struct {
	Action       string
	TradeType    exchange.TradeType
	Symbol       string
	EntryPrice   float64
	ExitPrice    float64
	Quantity     float64 // signed
	Notional     float64 // entry notional
	ExitNotional float64
	Pnl          *float64
	HoldingTime  time.Duration
	Timestamp    time.Time
	OrderID      string
	Exchange     string
}

package exchange

import "context"

// TradeType is the direction of a position.
type TradeType string

const (
	Long  TradeType = "long"
	Short TradeType = "short"
)

// Side is the order side sent to the venue. Note that side and trade type
// are independent: a short position is opened with a sell and closed with
// a buy.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderStatus is the venue's report on an order.
type OrderStatus string

const (
	StatusFilled    OrderStatus = "FILLED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusPending   OrderStatus = "PENDING"
)

// OrderRequest describes a single order submission.
type OrderRequest struct {
	Symbol    string
	Side      Side
	Quantity  float64
	Price     *float64 // nil for market orders
	OrderType string   // "market" or "limit"
	TradeType TradeType
}

// Order is the venue's response to a submitted order. Price is nil when
// the venue does not echo a fill price (signal-style endpoints); callers
// fall back to their own reference price.
type Order struct {
	OrderID string
	Symbol  string
	Side    Side
	Qty     float64
	Price   *float64
	Status  OrderStatus
}

// Adapter is the capability the executor depends on. Implementations:
// paper.Adapter (simulated fills) and okx.Client (signal trigger).
type Adapter interface {
	Name() string
	IsConnected() bool
	Connect(ctx context.Context) error
	PlaceOrder(ctx context.Context, req OrderRequest) (Order, error)
}

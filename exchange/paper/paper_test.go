package paper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeagent/exchange"
)

func TestConnectAndFill(t *testing.T) {
	t.Parallel()

	a := New()
	assert.False(t, a.IsConnected())
	require.NoError(t, a.Connect(context.Background()))
	assert.True(t, a.IsConnected())

	order, err := a.PlaceOrder(context.Background(), exchange.OrderRequest{
		Symbol:    "BTC-USD",
		Side:      exchange.Buy,
		Quantity:  0.5,
		OrderType: "market",
		TradeType: exchange.Long,
	})
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusFilled, order.Status)
	assert.NotEmpty(t, order.OrderID)
	// Market orders carry no fill price; callers use their own.
	assert.Nil(t, order.Price)
}

func TestLimitPriceEchoed(t *testing.T) {
	t.Parallel()

	a := New()
	require.NoError(t, a.Connect(context.Background()))

	limit := 43_000.0
	order, err := a.PlaceOrder(context.Background(), exchange.OrderRequest{
		Symbol:    "BTC-USD",
		Side:      exchange.Buy,
		Quantity:  0.5,
		Price:     &limit,
		OrderType: "limit",
		TradeType: exchange.Long,
	})
	require.NoError(t, err)
	require.NotNil(t, order.Price)
	assert.InDelta(t, limit, *order.Price, 1e-9)
}

func TestPlaceOrderRequiresConnection(t *testing.T) {
	t.Parallel()

	a := New()
	_, err := a.PlaceOrder(context.Background(), exchange.OrderRequest{
		Symbol: "BTC-USD", Side: exchange.Buy, Quantity: 1,
	})
	assert.Error(t, err)
}

func TestFailNextFailsOnce(t *testing.T) {
	t.Parallel()

	a := New()
	require.NoError(t, a.Connect(context.Background()))

	a.FailNext(errors.New("venue down"))

	req := exchange.OrderRequest{
		Symbol: "BTC-USD", Side: exchange.Buy, Quantity: 1,
		OrderType: "market", TradeType: exchange.Long,
	}
	_, err := a.PlaceOrder(context.Background(), req)
	require.EqualError(t, err, "venue down")

	// The failure is consumed; the next order fills normally.
	order, err := a.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusFilled, order.Status)
}

func TestNonPositiveQuantityRejected(t *testing.T) {
	t.Parallel()

	a := New()
	require.NoError(t, a.Connect(context.Background()))

	order, err := a.PlaceOrder(context.Background(), exchange.OrderRequest{
		Symbol: "BTC-USD", Side: exchange.Buy, Quantity: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusRejected, order.Status)
}

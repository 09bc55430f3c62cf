package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradeagent/config"
	"tradeagent/exchange"
	"tradeagent/exchange/paper"
	"tradeagent/executor"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted paper-trading session",
	Long: `Run a short scripted session against the paper venue.

Shows the full workflow:
  1. Open a long, then a short on a second symbol
  2. Close both at moved prices
  3. Print trade history, statistics, and the final portfolio`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	exec := executor.New(config.TradingConfig{
		InitialCapital: 10_000,
		MaxPositions:   5,
		RiskPerTrade:   0.1,
	}, paper.New())

	fmt.Println("=== Paper Trading Demo ===")
	fmt.Printf("Starting capital: $%.2f\n\n", exec.CurrentCash())

	steps := []struct {
		symbol string
		action executor.Action
		typ    exchange.TradeType
		price  float64
	}{
		{"BTC-USD", executor.Buy, exchange.Long, 43_000},
		{"ETH-USD", executor.Sell, exchange.Short, 2_300},
		{"BTC-USD", executor.Sell, exchange.Long, 44_500},
		{"ETH-USD", executor.Buy, exchange.Short, 2_200},
	}

	for _, step := range steps {
		res, err := exec.ExecuteTrade(ctx, step.symbol, step.action, step.typ,
			executor.Indicators{ClosePrice: step.price})
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Printf("  %s %s %s @ %.2f -> no action\n", step.action, step.typ, step.symbol, step.price)
			continue
		}
		if res.Pnl != nil {
			fmt.Printf("  %s %s %s @ %.2f -> pnl %+.2f\n", res.Action, res.TradeType, res.Symbol, step.price, *res.Pnl)
		} else {
			fmt.Printf("  %s %s %s @ %.2f -> notional %.2f\n", res.Action, res.TradeType, res.Symbol, step.price, res.Notional)
		}
		exec.SnapshotPortfolio(time.Now().UTC())
	}

	s := exec.PortfolioSummary()
	stats := exec.TradeStatistics()

	fmt.Println("\n=== Results ===")
	fmt.Printf("Trades: %d closed, win rate %.0f%%\n", stats.ClosedTrades, stats.WinRate*100)
	fmt.Printf("Realized PnL: %+.2f\n", s.RealizedPnl)
	fmt.Printf("Final portfolio: $%.2f (%.2f%% return)\n", s.Total, s.ReturnPct)
	return nil
}

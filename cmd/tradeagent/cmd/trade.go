package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradeagent/exchange"
	"tradeagent/executor"
)

var tradeCmd = &cobra.Command{
	Use:   "trade <symbol>",
	Short: "Execute a single trade decision",
	Long: `Execute one open or close decision against the configured venue.

The action/trade-type pair selects the intent:
  --action buy  --type long    open a long
  --action sell --type long    close the long
  --action sell --type short   open a short
  --action buy  --type short   close the short

Examples:
  tradeagent trade BTC-USD --action buy --type long --price 43250
  tradeagent trade BTC-USD --action sell --type long --price 44100`,
	Args: cobra.ExactArgs(1),
	RunE: runTrade,
}

var (
	tradeAction string
	tradeType   string
	tradePrice  float64
)

func init() {
	rootCmd.AddCommand(tradeCmd)

	tradeCmd.Flags().StringVarP(&tradeAction, "action", "a", "", "buy or sell (required)")
	tradeCmd.Flags().StringVarP(&tradeType, "type", "t", "", "long or short (required)")
	tradeCmd.Flags().Float64VarP(&tradePrice, "price", "p", 0, "current market price (required)")
	tradeCmd.MarkFlagRequired("action")
	tradeCmd.MarkFlagRequired("type")
	tradeCmd.MarkFlagRequired("price")
}

func runTrade(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exec, err := buildExecutor(cfg)
	if err != nil {
		return err
	}
	defer exec.Close()

	symbol := args[0]
	res, err := exec.ExecuteTrade(context.Background(), symbol,
		executor.Action(tradeAction), exchange.TradeType(tradeType),
		executor.Indicators{ClosePrice: tradePrice})

	var recErr *executor.ReconciliationError
	if errors.As(err, &recErr) {
		fmt.Printf("✗ RECONCILIATION REQUIRED: %v\n", recErr)
		return err
	}
	if err != nil {
		return fmt.Errorf("execute trade: %w", err)
	}
	if res == nil {
		fmt.Println("No action taken (see diagnostics).")
		return nil
	}

	fmt.Printf("✓ %s %s %s\n", res.Action, res.TradeType, res.Symbol)
	fmt.Printf("  Order: %s via %s\n", res.OrderID, res.Exchange)
	if res.Action == "closed" {
		fmt.Printf("  Entry: %.4f  Exit: %.4f  PnL: %+.2f\n", res.EntryPrice, res.ExitPrice, *res.Pnl)
		fmt.Printf("  Held: %s\n", res.HoldingTime.Round(time.Second))
	} else {
		fmt.Printf("  Entry: %.4f  Quantity: %.6f  Notional: %.2f\n", res.EntryPrice, res.Quantity, res.Notional)
	}

	s := exec.PortfolioSummary()
	fmt.Printf("  Portfolio: $%.2f (cash $%.2f)\n", s.Total, s.Cash)
	return nil
}

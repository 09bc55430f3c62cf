package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"tradeagent/tradelog"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute statistics over the persisted trade journal",
	Long: `Compute trade statistics from the SQLite journal.

Examples:
  tradeagent stats
  tradeagent stats --symbol BTC-USD
  tradeagent stats --daily`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var (
	statsDBPath string
	statsSymbol string
	statsDaily  bool
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsDBPath, "db", "d", "./tradeagent.sqlite", "path to SQLite journal DB")
	statsCmd.Flags().StringVarP(&statsSymbol, "symbol", "s", "", "restrict to one symbol")
	statsCmd.Flags().BoolVar(&statsDaily, "daily", false, "show per-day pnl breakdown")
}

func runStats(cmd *cobra.Command, args []string) error {
	j, err := tradelog.NewSQLite(statsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListAll()
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	tlog := tradelog.FromRecords(recs)

	if statsDaily {
		daily := tlog.DailyStatistics()
		days := make([]string, 0, len(daily))
		for day := range daily {
			days = append(days, day)
		}
		sort.Strings(days)

		for _, day := range days {
			ds := daily[day]
			fmt.Printf("%s  trades=%d wins=%d pnl=%+.2f\n", day, ds.Trades, ds.Wins, ds.TotalPnl)
		}
		return nil
	}

	var s tradelog.Statistics
	if statsSymbol != "" {
		s = tlog.SymbolStatistics(statsSymbol)
		fmt.Printf("Statistics for %s\n", statsSymbol)
	} else {
		s = tlog.Statistics()
		fmt.Println("Statistics (all symbols)")
	}

	fmt.Printf("  Records:       %d\n", s.Records)
	fmt.Printf("  Closed trades: %d\n", s.ClosedTrades)
	fmt.Printf("  Wins/Losses:   %d/%d (win rate %.1f%%)\n", s.Wins, s.Losses, s.WinRate*100)
	fmt.Printf("  Total PnL:     %+.2f\n", s.TotalPnl)
	fmt.Printf("  Avg PnL:       %+.2f\n", s.AvgPnl)
	fmt.Printf("  Best/Worst:    %+.2f / %+.2f\n", s.BestPnl, s.WorstPnl)
	return nil
}

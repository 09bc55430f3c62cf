package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradeagent/tradelog"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the persisted trade journal",
	Long: `Query trade records from the SQLite journal.

Subcommands:
  all    - List all recorded trades
  today  - List trades recorded today
  day    - List trades recorded on a specific day

Examples:
  tradeagent journal all
  tradeagent journal day 2026-08-01`,
}

var journalAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List all recorded trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalAll,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades recorded today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades recorded on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalAllCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./tradeagent.sqlite", "path to SQLite journal DB")
}

func runJournalAll(cmd *cobra.Command, args []string) error {
	j, err := tradelog.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListAll()
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	printRecords(recs)
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return journalForDay(time.Now().UTC().Format(time.DateOnly))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return journalForDay(args[0])
}

func journalForDay(day string) error {
	t, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	j, err := tradelog.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	printRecords(recs)
	return nil
}

func printRecords(recs []tradelog.Record) {
	if len(recs) == 0 {
		fmt.Println("No trades recorded.")
		return
	}

	for _, rec := range recs {
		pnl := "      -"
		if rec.Pnl != nil {
			pnl = fmt.Sprintf("%+.2f", *rec.Pnl)
		}
		fmt.Printf("%s  %-10s %-6s %-5s  price=%.4f qty=%.6f notional=%.2f pnl=%s cash=%.2f\n",
			rec.Timestamp.Format(time.RFC3339), rec.Symbol, rec.Action, rec.TradeType,
			rec.Price, rec.Quantity, rec.Notional, pnl, rec.CashAfter)
	}
	fmt.Printf("\n%d record(s)\n", len(recs))
}

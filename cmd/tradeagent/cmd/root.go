package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tradeagent/config"
	"tradeagent/exchange"
	"tradeagent/exchange/okx"
	"tradeagent/exchange/paper"
	"tradeagent/executor"
	"tradeagent/tradelog"
)

var rootCmd = &cobra.Command{
	Use:   "tradeagent",
	Short: "Position/cash ledger and execution core for an automated trading agent",
	Long: `Tradeagent is the accounting core of an automated trading agent.

It tracks open positions, reserves and releases cash against a fixed
capital base, computes realized profit/loss, records an immutable trade
history, and derives portfolio and trade statistics.

Orders go to a simulated paper venue by default, or to OKX's
signal-trigger endpoint when configured.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel)
	},
}

var (
	cfgPath  string
	logLevel string
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl)
}

// loadConfig loads the configured file, or defaults when none is given.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgPath)
}

// buildExecutor wires adapter, journal sink, and executor from config.
func buildExecutor(cfg *config.Config) (*executor.Executor, error) {
	var (
		adapter exchange.Adapter
		err     error
	)
	switch cfg.Exchange.Type {
	case "okx":
		timeout, _ := cfg.Exchange.ParseTimeout()
		adapter, err = okx.NewClient(okx.Config{
			Network:     cfg.Exchange.Network,
			SignalToken: cfg.Exchange.SignalToken,
			Proxy:       cfg.Exchange.Proxy,
			Timeout:     timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("okx adapter: %w", err)
		}
	default:
		adapter = paper.New()
	}

	var opts []executor.Option
	switch cfg.Journal.Type {
	case "sqlite":
		sink, err := tradelog.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		opts = append(opts, executor.WithTradeSink(sink))
	case "csv":
		sink, err := tradelog.NewCSV(cfg.Journal.TradesFile)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		opts = append(opts, executor.WithTradeSink(sink))
	}

	return executor.New(cfg.Trading, adapter, opts...), nil
}

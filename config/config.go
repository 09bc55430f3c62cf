package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete static configuration, constructed once and
// passed in; nothing re-reads it at call time.
type Config struct {
	Trading  TradingConfig  `json:"trading" yaml:"trading"`
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// TradingConfig parametrizes the accounting core.
type TradingConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	MaxPositions   int     `json:"max_positions" yaml:"max_positions"`
	RiskPerTrade   float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
}

// ExchangeConfig selects and parametrizes the order venue.
type ExchangeConfig struct {
	Type        string `json:"type" yaml:"type"`                           // "paper" or "okx"
	Network     string `json:"network,omitempty" yaml:"network,omitempty"` // "paper" or "live" (okx only)
	SignalToken string `json:"signal_token,omitempty" yaml:"signal_token,omitempty"`
	Proxy       string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Timeout     string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "10s"
}

// ParseTimeout converts the timeout string to a time.Duration; empty
// means the adapter default.
func (e ExchangeConfig) ParseTimeout() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(e.Timeout)
}

// JournalConfig selects the optional trade-record sink.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "sqlite" or "csv"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level"` // zerolog level name
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// YAML first, JSON fallback.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (.yaml/.yml extension) or
// indented JSON.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Trading.InitialCapital <= 0 {
		return fmt.Errorf("trading.initial_capital must be positive")
	}
	if c.Trading.MaxPositions <= 0 {
		return fmt.Errorf("trading.max_positions must be positive")
	}
	if c.Trading.RiskPerTrade <= 0 || c.Trading.RiskPerTrade > 1 {
		return fmt.Errorf("trading.risk_per_trade must be between 0 and 1")
	}

	switch c.Exchange.Type {
	case "paper":
	case "okx":
		if c.Exchange.Network != "paper" && c.Exchange.Network != "live" {
			return fmt.Errorf("exchange.network must be 'paper' or 'live'")
		}
		if c.Exchange.SignalToken == "" {
			return fmt.Errorf("exchange.signal_token required for okx")
		}
	default:
		return fmt.Errorf("exchange.type must be 'paper' or 'okx'")
	}
	if _, err := c.Exchange.ParseTimeout(); err != nil {
		return fmt.Errorf("exchange.timeout: %w", err)
	}

	switch c.Journal.Type {
	case "", "none":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" {
			return fmt.Errorf("journal.trades_file required for csv journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'sqlite' or 'csv'")
	}

	return nil
}

// Default returns a paper-trading configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			InitialCapital: 10000,
			MaxPositions:   5,
			RiskPerTrade:   0.1,
		},
		Exchange: ExchangeConfig{
			Type: "paper",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./tradeagent.sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Package config defines all configuration for the trading engine.
// Config is loaded from a YAML file (default: configs/config.yaml). Venue
// API credentials come from the environment only, optionally via a .env
// file; they never live in the YAML.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"crypto-trader/pkg/errs"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure. Monetary fields are decimal strings so values stay exact all
// the way into the engine.
type Config struct {
	Live           bool             `mapstructure:"live"`
	InitialBalance string           `mapstructure:"initial_balance"`
	Symbols        []string         `mapstructure:"symbols"`
	Exchange       ExchangeConfig   `mapstructure:"exchange"`
	MarketData     MarketDataConfig `mapstructure:"market_data"`
	Strategy       StrategyConfig   `mapstructure:"strategy"`
	Risk           RiskConfig       `mapstructure:"risk"`
	Logging        LoggingConfig    `mapstructure:"logging"`

	// Credentials are populated from the environment in Load.
	Credentials Credentials `mapstructure:"-"`
}

// ExchangeConfig selects the primary and secondary venues and their
// endpoints. Empty URLs select the public production endpoints.
type ExchangeConfig struct {
	Primary        string `mapstructure:"primary"`
	Secondary      string `mapstructure:"secondary"`
	BinanceBaseURL string `mapstructure:"binance_base_url"`
	BybitBaseURL   string `mapstructure:"bybit_base_url"`
	StreamURL      string `mapstructure:"stream_url"`
}

// MarketDataConfig tunes the ingestion loop.
//
//   - PollInterval: how often each symbol's ticker is polled.
//   - GapThresholdMs: forward time jumps beyond this are rejected as gaps.
//   - UseStream: ingest from the live WebSocket trade stream instead of
//     REST polling.
type MarketDataConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	GapThresholdMs uint64        `mapstructure:"gap_threshold_ms"`
	UseStream      bool          `mapstructure:"use_stream"`
}

// StrategyConfig selects and tunes the strategy. Threshold is a decimal
// string in (0, 1).
type StrategyConfig struct {
	Kind       string `mapstructure:"kind"`
	Threshold  string `mapstructure:"threshold"`
	WindowSize int    `mapstructure:"window_size"`
}

// RiskConfig selects the risk profile.
type RiskConfig struct {
	Profile string `mapstructure:"profile"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Credentials holds the optional venue API keys. Absence only disables
// authenticated endpoints; paper trading needs none of them.
type Credentials struct {
	BinanceAPIKey    string
	BinanceSecretKey string
	BybitAPIKey      string
	BybitSecretKey   string
}

// Load reads config from a YAML file. A .env file in the working directory
// is applied to the environment first (missing is fine), then the venue
// credentials are read from BINANCE_API_KEY, BINANCE_SECRET_KEY,
// BYBIT_API_KEY, and BYBIT_SECRET_KEY.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Credentials = Credentials{
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceSecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		BybitAPIKey:      os.Getenv("BYBIT_API_KEY"),
		BybitSecretKey:   os.Getenv("BYBIT_SECRET_KEY"),
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("initial_balance", "10000")
	v.SetDefault("exchange.primary", "binance")
	v.SetDefault("exchange.secondary", "bybit")
	v.SetDefault("market_data.poll_interval", "5s")
	v.SetDefault("market_data.gap_threshold_ms", 60000)
	v.SetDefault("strategy.kind", "mean_reversion")
	v.SetDefault("strategy.threshold", "0.02")
	v.SetDefault("strategy.window_size", 20)
	v.SetDefault("risk.profile", "balanced")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errs.Config("symbols must list at least one symbol")
	}
	for _, s := range c.Symbols {
		if s == "" {
			return errs.Config("symbols must not contain empty entries")
		}
	}
	if c.InitialBalance == "" {
		return errs.Config("initial_balance is required")
	}
	if c.MarketData.PollInterval <= 0 {
		return errs.Config("market_data.poll_interval must be positive")
	}
	if c.MarketData.GapThresholdMs == 0 {
		return errs.Config("market_data.gap_threshold_ms must be positive")
	}
	if c.Strategy.WindowSize <= 0 {
		return errs.Config("strategy.window_size must be positive")
	}
	if c.Exchange.Primary == c.Exchange.Secondary {
		return errs.Config("exchange.primary and exchange.secondary must differ")
	}

	// Live trading needs authenticated endpoints; paper trading does not.
	if c.Live {
		if c.Credentials.BinanceAPIKey == "" || c.Credentials.BinanceSecretKey == "" {
			return errs.Config("live trading requires BINANCE_API_KEY and BINANCE_SECRET_KEY")
		}
	}

	return nil
}

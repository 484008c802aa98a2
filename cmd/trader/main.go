// Crypto paper trader — an event-driven trading engine that ingests live
// ticker prices from Binance and Bybit, runs a mean-reversion strategy,
// gates every trade through a portfolio risk engine, and simulates fills
// against a paper book.
//
// Architecture:
//
//	main.go                  — entry point: flags, config, logger, signal handling
//	trader/trader.go         — orchestrator: wires fetchers → monitor → strategy → execution
//	marketdata/              — venue adapters, failover, dedup/gap monitor, normalizer, WS stream
//	strategy/meanreversion.go — windowed mean ± threshold signal generation
//	risk/engine.go           — pre-trade gate, equity/daily-loss tracking, kill-switch
//	execution/engine.go      — order lifecycle, fill simulation, trade record
//	events/bus.go            — typed pub/sub bus sequencing the whole pipeline
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"crypto-trader/internal/config"
	"crypto-trader/internal/trader"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "trader",
		Short:         "Event-driven crypto paper-trading engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to the YAML config file")
	return cmd
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)

	t, err := trader.New(*cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("paper trader started",
		"symbols", cfg.Symbols,
		"poll_interval", cfg.MarketData.PollInterval,
		"profile", cfg.Risk.Profile,
	)

	if err := t.Run(ctx); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package trader is the central orchestrator of the paper-trading engine.
//
// It wires together all subsystems:
//
//  1. A resilient fetcher (primary venue + failover) produces price ticks,
//     or the WebSocket stream feed does when live ingestion is enabled.
//  2. The monitor drops duplicates and rejects gaps; the normalizer rounds
//     and validates what survives.
//  3. One strategy instance per symbol turns ticks into signals.
//  4. The execution engine sizes, risk-gates, and simulates every trade,
//     publishing the full order lifecycle on the shared event bus.
//
// Lifecycle: New() → Run(ctx) → [runs until ctx is cancelled]
package trader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"crypto-trader/internal/config"
	"crypto-trader/internal/events"
	"crypto-trader/internal/execution"
	"crypto-trader/internal/marketdata"
	"crypto-trader/internal/money"
	"crypto-trader/internal/risk"
	"crypto-trader/internal/strategy"
	"crypto-trader/pkg/types"
)

// Trader owns the per-symbol ingest loops and the engines beneath them.
type Trader struct {
	cfg     config.Config
	bus     *events.Bus
	fetcher marketdata.Fetcher
	stream  *marketdata.StreamFeed // nil unless live ingestion is enabled
	engine  *execution.Engine

	// monitor state is shared by all symbol loops; monitorMu serializes it.
	monitor   *marketdata.Monitor
	monitorMu sync.Mutex

	// strategies maps symbol → its strategy instance. Each instance is
	// only ever driven by its own symbol's loop.
	strategies map[string]strategy.Strategy

	logger *slog.Logger
}

// New wires all components from config.
func New(cfg config.Config, logger *slog.Logger) (*Trader, error) {
	balance, err := money.Parse(cfg.InitialBalance)
	if err != nil {
		return nil, err
	}

	profile, err := risk.ParseProfile(cfg.Risk.Profile)
	if err != nil {
		return nil, err
	}
	limits, err := risk.LimitsFromParams(balance, profile.Params())
	if err != nil {
		return nil, err
	}
	riskEngine, err := risk.NewEngine(balance, limits, logger)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(logger)
	engine := execution.NewEngine(riskEngine, bus, logger)

	endpoints := marketdata.Endpoints{
		BinanceBaseURL: cfg.Exchange.BinanceBaseURL,
		BybitBaseURL:   cfg.Exchange.BybitBaseURL,
	}
	fetcher, err := marketdata.NewResilientPair(cfg.Exchange.Primary, cfg.Exchange.Secondary, endpoints, bus, logger)
	if err != nil {
		return nil, err
	}

	threshold, err := money.Parse(cfg.Strategy.Threshold)
	if err != nil {
		return nil, err
	}
	strategies := make(map[string]strategy.Strategy, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		strat, err := strategy.New(cfg.Strategy.Kind, threshold, cfg.Strategy.WindowSize)
		if err != nil {
			return nil, err
		}
		strategies[symbol] = strat
	}

	var stream *marketdata.StreamFeed
	if cfg.MarketData.UseStream {
		stream = marketdata.NewStreamFeed(cfg.Exchange.StreamURL, cfg.Symbols, logger)
	}

	t := &Trader{
		cfg:        cfg,
		bus:        bus,
		fetcher:    fetcher,
		stream:     stream,
		engine:     engine,
		monitor:    marketdata.NewMonitor(cfg.MarketData.GapThresholdMs),
		strategies: strategies,
		logger:     logger.With("component", "trader"),
	}
	t.subscribeObservers()

	t.logger.Info("trader wired",
		"symbols", cfg.Symbols,
		"primary", cfg.Exchange.Primary,
		"secondary", cfg.Exchange.Secondary,
		"profile", profile.Description(),
		"balance", balance,
		"stream", cfg.MarketData.UseStream,
	)
	return t, nil
}

// Bus exposes the shared event bus for additional subscribers.
func (t *Trader) Bus() *events.Bus { return t.bus }

// Engine exposes the execution engine for ops surfaces.
func (t *Trader) Engine() *execution.Engine { return t.engine }

// Run drives ingestion until ctx is cancelled: one poll loop per symbol,
// or the stream feed plus its consumer when live ingestion is enabled.
func (t *Trader) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if t.stream != nil {
		g.Go(func() error { return t.stream.Run(ctx) })
		g.Go(func() error { return t.consumeStream(ctx) })
	} else {
		for _, symbol := range t.cfg.Symbols {
			symbol := symbol
			g.Go(func() error { return t.pollLoop(ctx, symbol) })
		}
	}

	err := g.Wait()
	if ctx.Err() != nil {
		t.logger.Info("trader stopped", "snapshot", t.engine.RiskSnapshot())
		return nil
	}
	return err
}

// pollLoop fetches one symbol's ticker on the configured interval. A
// failed tick is logged and the loop keeps going; only cancellation ends
// it.
func (t *Trader) pollLoop(ctx context.Context, symbol string) error {
	ticker := time.NewTicker(t.cfg.MarketData.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			event, err := t.fetcher.FetchPrice(ctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				t.logger.Warn("fetch failed", "symbol", symbol, "error", err)
				continue
			}
			t.processTick(event)
		}
	}
}

// consumeStream feeds live ticks through the same pipeline as polling.
// Stream ticks announce themselves as PriceUpdated here, mirroring what
// the REST fetchers do internally.
func (t *Trader) consumeStream(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-t.stream.Ticks():
			t.bus.Publish(events.PriceUpdated{Tick: event})
			t.processTick(event)
		}
	}
}

// processTick runs one tick through monitor → normalizer → risk update →
// stop sweep → strategy → execution.
func (t *Trader) processTick(event types.PriceEvent) {
	t.monitorMu.Lock()
	accepted, err := t.monitor.Process(event)
	t.monitorMu.Unlock()
	if err != nil {
		t.logger.Warn("tick rejected", "symbol", event.Symbol, "error", err)
		return
	}
	if accepted == nil {
		t.logger.Debug("duplicate tick dropped", "symbol", event.Symbol)
		return
	}

	tick, err := marketdata.Normalize(*accepted)
	if err != nil {
		t.logger.Warn("tick failed validation", "symbol", event.Symbol, "error", err)
		return
	}

	if err := t.engine.UpdatePrice(tick.Symbol, tick.Price); err != nil {
		t.logger.Warn("price update failed", "symbol", tick.Symbol, "error", err)
		return
	}

	if _, err := t.engine.CloseIfStopped(tick.Symbol, tick.Price); err != nil {
		t.logger.Warn("stop sweep failed", "symbol", tick.Symbol, "error", err)
	}

	strat := t.strategies[tick.Symbol]
	if strat == nil {
		return
	}
	signal, err := strat.Signal(tick)
	if err != nil {
		t.logger.Warn("strategy failed", "symbol", tick.Symbol, "error", err)
		return
	}
	if signal == types.SignalHold {
		return
	}

	t.bus.Publish(events.SignalGenerated{
		StrategyName: strat.Name(),
		Symbol:       tick.Symbol,
		Signal:       signal,
		Price:        tick.Price,
	})

	// One position per symbol: skip entries while one is open.
	if t.engine.HasPosition(tick.Symbol) {
		return
	}

	params, err := strat.RiskParams(tick.Price)
	if err != nil {
		t.logger.Warn("risk params failed", "symbol", tick.Symbol, "error", err)
		return
	}

	trade, err := t.engine.Execute(tick.Symbol, signal, params.EntryPrice, params.StopLossDistance)
	if err != nil {
		// The engine already announced the failure on the bus.
		t.logger.Warn("execution rejected", "symbol", tick.Symbol, "error", err)
		return
	}
	if trade != nil {
		t.logger.Info("trade opened",
			"symbol", trade.Symbol,
			"signal", trade.Signal,
			"entry", trade.EntryPrice,
			"size", trade.PositionSize,
			"stop", trade.StopLoss,
		)
	}
}

// subscribeObservers attaches logging subscribers for the facts an
// operator watches in the console.
func (t *Trader) subscribeObservers() {
	t.bus.Subscribe(events.TypeTradeExecuted, func(e events.Event) {
		te := e.(events.TradeExecuted)
		t.logger.Info("TradeExecuted", "symbol", te.Symbol, "signal", te.Signal, "entry", te.EntryPrice, "size", te.PositionSize)
	})
	t.bus.Subscribe(events.TypeTradeClosed, func(e events.Event) {
		tc := e.(events.TradeClosed)
		t.logger.Info("TradeClosed", "symbol", tc.Symbol, "exit", tc.ExitPrice, "pnl", tc.PnL)
	})
	t.bus.Subscribe(events.TypeRiskHalt, func(e events.Event) {
		t.logger.Error("RiskHalt", "reason", e.(events.RiskHalt).Reason)
	})
	t.bus.Subscribe(events.TypeError, func(e events.Event) {
		t.logger.Warn("pipeline error", "message", e.(events.Error).Message)
	})
}

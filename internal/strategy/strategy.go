// Package strategy defines the signal-production contract and the
// mean-reversion reference implementation.
//
// A Strategy owns its internal state (e.g. a rolling price window) and is
// never shared across goroutines; the orchestrator creates one instance per
// symbol and drives it from that symbol's ingest loop.
package strategy

import (
	"github.com/shopspring/decimal"

	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// RiskParams is a strategy's sizing hint for the current tick: the entry
// price to use, the stop-loss distance, and a position-size hint. The risk
// engine has the final word on all three.
type RiskParams struct {
	EntryPrice       decimal.Decimal
	StopLossDistance decimal.Decimal
	PositionSizeHint decimal.Decimal
}

// Strategy produces a trading verdict per tick.
type Strategy interface {
	// Signal evaluates one tick and returns Buy, Sell, or Hold. The call
	// may mutate internal state (the tick is recorded into the window).
	Signal(event types.PriceEvent) (types.Signal, error)

	// Name identifies the strategy for logging and events.
	Name() string

	// RiskParams returns entry price, stop distance, and size hint for a
	// trade at the current price.
	RiskParams(currentPrice decimal.Decimal) (RiskParams, error)
}

// Strategy kinds accepted by New.
const (
	KindMeanReversion = "mean_reversion"
	KindMovingAverage = "moving_average"
)

// New builds a strategy by kind. MovingAverage is a recognized kind whose
// implementation has not landed; selecting it is an error rather than a
// silent fallback.
func New(kind string, threshold decimal.Decimal, windowSize int) (Strategy, error) {
	switch kind {
	case KindMeanReversion:
		return NewMeanReversion(threshold, windowSize)
	case KindMovingAverage:
		return nil, errs.Validation("MovingAverage strategy not implemented yet")
	}
	return nil, errs.Validation("unknown strategy kind: " + kind)
}

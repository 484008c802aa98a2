// Package events defines the trading event model and the shared bus that
// sequences facts across the pipeline: market ticks, strategy signals, order
// lifecycle notifications, and risk halts.
package events

import (
	"github.com/shopspring/decimal"

	"crypto-trader/pkg/types"
)

// Type is the stable tag a subscriber registers under.
type Type string

const (
	TypePriceUpdated    Type = "PriceUpdated"
	TypeSignalGenerated Type = "SignalGenerated"
	TypeTradeExecuted   Type = "TradeExecuted"
	TypeTradeClosed     Type = "TradeClosed"
	TypeOrderSubmitted  Type = "OrderSubmitted"
	TypeOrderFilled     Type = "OrderFilled"
	TypeOrderCancelled  Type = "OrderCancelled"
	TypeOrderRejected   Type = "OrderRejected"
	TypeRiskHalt        Type = "RiskHalt"
	TypeError           Type = "Error"
)

// Event is any fact published on the bus. Implementations are immutable
// value types; handlers receive them by value and must not retain pointers
// into shared state.
type Event interface {
	Type() Type
}

// PriceUpdated carries a validated market tick.
type PriceUpdated struct {
	Tick types.PriceEvent
}

func (PriceUpdated) Type() Type { return TypePriceUpdated }

// SignalGenerated records a strategy verdict on a tick.
type SignalGenerated struct {
	StrategyName string
	Symbol       string
	Signal       types.Signal
	Price        decimal.Decimal
}

func (SignalGenerated) Type() Type { return TypeSignalGenerated }

// TradeExecuted records that a position was opened from a signal.
type TradeExecuted struct {
	Symbol       string
	Signal       types.Signal
	EntryPrice   decimal.Decimal
	PositionSize decimal.Decimal
	StopLoss     decimal.Decimal
}

func (TradeExecuted) Type() Type { return TypeTradeExecuted }

// TradeClosed records a position exit and its realized PnL.
type TradeClosed struct {
	Symbol    string
	ExitPrice decimal.Decimal
	PnL       decimal.Decimal
}

func (TradeClosed) Type() Type { return TypeTradeClosed }

// OrderSubmitted announces a newly accepted order.
type OrderSubmitted struct {
	OrderID  uint64
	Symbol   string
	Side     types.Side
	Quantity decimal.Decimal
}

func (OrderSubmitted) Type() Type { return TypeOrderSubmitted }

// OrderFilled announces one (possibly partial) fill slice of an order.
type OrderFilled struct {
	OrderID  uint64
	Symbol   string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Fee      decimal.Decimal
}

func (OrderFilled) Type() Type { return TypeOrderFilled }

// OrderCancelled announces a successful cancel.
type OrderCancelled struct {
	OrderID uint64
	Symbol  string
}

func (OrderCancelled) Type() Type { return TypeOrderCancelled }

// OrderRejected announces an order turned away before reaching the book.
type OrderRejected struct {
	OrderID uint64
	Symbol  string
	Reason  string
}

func (OrderRejected) Type() Type { return TypeOrderRejected }

// RiskHalt announces a kill-switch trip. The execution engine publishes it;
// its forced liquidation runs inside its own UpdatePrice, not in a
// subscriber of this event.
type RiskHalt struct {
	Reason string
}

func (RiskHalt) Type() Type { return TypeRiskHalt }

// Error carries a non-fatal pipeline failure for observers.
type Error struct {
	Message string
}

func (Error) Type() Type { return TypeError }

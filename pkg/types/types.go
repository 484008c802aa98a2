// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the engine — order sides and
// lifecycles, strategy signals, position sides, and the market tick record.
// It has no dependencies on internal packages, so it can be imported by any
// layer.
package types

import (
	"time"

	"github.com/shopspring/decimal"

	"crypto-trader/pkg/errs"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side represents the direction of an order: BUY or SELL.
type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

// OrderType enumerates the supported order kinds.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// TimeInForce enumerates how long an order stays working.
type TimeInForce string

const (
	TIFDay TimeInForce = "DAY" // expires at end of session
	TIFGTC TimeInForce = "GTC" // good-til-cancelled
	TIFIOC TimeInForce = "IOC" // immediate-or-cancel
	TIFFOK TimeInForce = "FOK" // fill-or-kill
)

// OrderStatus tracks an order through its lifecycle.
// New → PartiallyFilled → Filled; New/PartiallyFilled → Cancelled/Rejected.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// IsTerminal reports whether the status is absorbing: a terminal order
// accepts no further fills or control operations.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// Signal is a strategy's verdict on a single tick.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// PositionSide is the direction of an open position.
type PositionSide string

const (
	Long  PositionSide = "LONG"
	Short PositionSide = "SHORT"
)

// IsLong reports whether the side profits from rising prices.
func (s PositionSide) IsLong() bool { return s == Long }

// ————————————————————————————————————————————————————————————————————————
// Market data
// ————————————————————————————————————————————————————————————————————————

// PriceEvent is a single observed market tick: last-traded price and rolling
// volume for a symbol at a point in time. Fetchers create these; downstream
// stages treat them as immutable.
type PriceEvent struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp uint64          `json:"timestamp"` // milliseconds since epoch
}

// NewPriceEvent creates a tick stamped with the current wall clock.
func NewPriceEvent(symbol string, price, volume decimal.Decimal) (PriceEvent, error) {
	now := time.Now().UnixMilli()
	if now < 0 {
		return PriceEvent{}, errs.Time("system clock before epoch")
	}
	return PriceEvent{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: uint64(now),
	}, nil
}

// NewPriceEventAt creates a tick with an explicit timestamp in epoch
// milliseconds.
func NewPriceEventAt(symbol string, price, volume decimal.Decimal, ts uint64) PriceEvent {
	return PriceEvent{Symbol: symbol, Price: price, Volume: volume, Timestamp: ts}
}

// Package execution simulates order execution against a paper-trading
// book: it turns strategy signals into orders, drives each order through
// its state machine, generates deterministic fills, and keeps the trade
// record wired to the risk engine and the event bus.
package execution

import (
	"github.com/shopspring/decimal"

	"crypto-trader/pkg/types"
)

// Order is a paper order. ID is a monotone counter allocated by the
// engine. FilledQuantity and Status evolve through fills and control
// operations, and they only move forward — FilledQuantity never decreases
// and terminal statuses are absorbing. ReplaceOrder may also change
// Quantity and Price while the order is still working.
type Order struct {
	ID             uint64
	Symbol         string
	Side           types.Side
	Type           types.OrderType
	TIF            types.TimeInForce
	Quantity       decimal.Decimal
	Price          *decimal.Decimal // nil for unpriced market orders
	FilledQuantity decimal.Decimal
	Status         types.OrderStatus
	CreatedAt      uint64 // epoch milliseconds
	UpdatedAt      uint64
}

// Fill is one execution slice of an order. Immutable.
type Fill struct {
	OrderID   uint64
	Symbol    string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Fee       decimal.Decimal
	Timestamp uint64
}

// Trade records that a position was opened as the result of a signal.
type Trade struct {
	Symbol       string
	Signal       types.Signal
	EntryPrice   decimal.Decimal
	PositionSize decimal.Decimal
	StopLoss     decimal.Decimal
	Timestamp    uint64
}

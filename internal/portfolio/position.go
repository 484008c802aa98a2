// Package portfolio tracks open positions and realized PnL. A portfolio
// holds at most one open position per symbol; the risk engine owns the
// portfolio and serializes access to it.
package portfolio

import (
	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// Position is a single open position. EntryPrice, Size, and StopLoss are
// fixed at open; only LastPrice moves, via UpdatePrice.
type Position struct {
	Symbol     string
	Side       types.PositionSide
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
	StopLoss   decimal.Decimal
	OpenedAt   uint64 // epoch milliseconds
	LastPrice  decimal.Decimal
}

// NewPosition opens a position. All monetary inputs must be strictly
// positive; LastPrice starts at the entry.
func NewPosition(symbol string, side types.PositionSide, entryPrice, size, stopLoss decimal.Decimal, openedAt uint64) (*Position, error) {
	if !entryPrice.IsPositive() || !size.IsPositive() || !stopLoss.IsPositive() {
		return nil, errs.Validation("Entry price, size, and stop loss must be positive")
	}
	return &Position{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entryPrice,
		Size:       size,
		StopLoss:   stopLoss,
		OpenedAt:   openedAt,
		LastPrice:  entryPrice,
	}, nil
}

// UpdatePrice marks the position to a new last price.
func (p *Position) UpdatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return errs.Validation("Price must be positive")
	}
	p.LastPrice = price
	return nil
}

// NotionalValue is entry price × size, exact.
func (p *Position) NotionalValue() decimal.Decimal {
	return p.EntryPrice.Mul(p.Size)
}

// UnrealizedPnL is (last − entry) × size for longs, negated for shorts,
// rounded half-to-even to 8 places.
func (p *Position) UnrealizedPnL() decimal.Decimal {
	var diff decimal.Decimal
	if p.Side.IsLong() {
		diff = p.LastPrice.Sub(p.EntryPrice)
	} else {
		diff = p.EntryPrice.Sub(p.LastPrice)
	}
	return money.Round8(diff.Mul(p.Size))
}

package risk

import (
	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
)

// CalculateStopLoss places the stop below the entry for longs and above for
// shorts. A stop at or below zero is rejected.
func CalculateStopLoss(entryPrice, stopLossDistance decimal.Decimal, isLong bool) (decimal.Decimal, error) {
	if !entryPrice.IsPositive() {
		return decimal.Zero, errs.Validation("Entry price must be positive")
	}
	if !stopLossDistance.IsPositive() {
		return decimal.Zero, errs.Validation("Stop loss distance must be positive")
	}

	var stop decimal.Decimal
	if isLong {
		stop = entryPrice.Sub(stopLossDistance)
	} else {
		stop = entryPrice.Add(stopLossDistance)
	}

	if !stop.IsPositive() {
		return decimal.Zero, errs.Validation("Stop loss price would be invalid")
	}
	return money.Round8(stop), nil
}

// IsStopHit reports whether the current price has crossed the stop: at or
// below it for longs, at or above it for shorts.
func IsStopHit(currentPrice, stopLossPrice decimal.Decimal, isLong bool) (bool, error) {
	if !currentPrice.IsPositive() || !stopLossPrice.IsPositive() {
		return false, errs.Validation("Prices must be positive")
	}

	if isLong {
		return currentPrice.LessThanOrEqual(stopLossPrice), nil
	}
	return currentPrice.GreaterThanOrEqual(stopLossPrice), nil
}

// PositionPnL computes (current − entry) × size, negated for shorts,
// rounded half-to-even to 8 places.
func PositionPnL(entryPrice, currentPrice, positionSize decimal.Decimal, isLong bool) (decimal.Decimal, error) {
	if !entryPrice.IsPositive() || !currentPrice.IsPositive() || !positionSize.IsPositive() {
		return decimal.Zero, errs.Validation("All prices and position size must be positive")
	}

	var diff decimal.Decimal
	if isLong {
		diff = currentPrice.Sub(entryPrice)
	} else {
		diff = entryPrice.Sub(currentPrice)
	}
	return money.Round8(diff.Mul(positionSize)), nil
}

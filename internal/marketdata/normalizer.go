package marketdata

import (
	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// Validate enforces the tick invariant: positive price, non-negative
// volume, non-empty symbol.
func Validate(event types.PriceEvent) error {
	if !event.Price.IsPositive() {
		return errs.Validation("Price must be positive")
	}
	if event.Volume.IsNegative() {
		return errs.Validation("Volume cannot be negative")
	}
	if event.Symbol == "" {
		return errs.Validation("Symbol cannot be empty")
	}
	return nil
}

// Normalize validates the tick and rounds its price half-to-even to the
// engine's fixed precision. Volume and timestamp pass through untouched.
func Normalize(event types.PriceEvent) (types.PriceEvent, error) {
	if err := Validate(event); err != nil {
		return types.PriceEvent{}, err
	}
	event.Price = money.Round8(event.Price)
	return event, nil
}

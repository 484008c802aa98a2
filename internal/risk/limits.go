package risk

import (
	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
)

var hundred = money.FromInt(100)

// Limits are the absolute portfolio limits derived from an account balance
// and profile params. Immutable after construction.
type Limits struct {
	MaxDailyLoss     decimal.Decimal
	MaxPositionSize  decimal.Decimal
	MaxDrawdown      decimal.Decimal
	MaxLeverage      decimal.Decimal
	MaxOpenPositions int
}

// LimitsFromParams converts the profile's percentages into absolute values
// over the account balance.
func LimitsFromParams(accountBalance decimal.Decimal, params Params) (Limits, error) {
	if !accountBalance.IsPositive() {
		return Limits{}, errs.Validation("Account balance must be positive")
	}

	maxDailyLoss, err := money.Div(accountBalance.Mul(params.MaxDailyLoss), hundred)
	if err != nil {
		return Limits{}, err
	}
	maxPositionSize, err := money.Div(accountBalance.Mul(params.MaxPositionSize), hundred)
	if err != nil {
		return Limits{}, err
	}
	maxDrawdown, err := money.Div(accountBalance.Mul(params.MaxDrawdown), hundred)
	if err != nil {
		return Limits{}, err
	}

	return NewLimits(maxDailyLoss, maxPositionSize, maxDrawdown, params.MaxLeverage, params.MaxOpenPositions)
}

// NewLimits validates and constructs absolute limits.
func NewLimits(maxDailyLoss, maxPositionSize, maxDrawdown, maxLeverage decimal.Decimal, maxOpenPositions int) (Limits, error) {
	if !maxDailyLoss.IsPositive() {
		return Limits{}, errs.Validation("Max daily loss must be positive")
	}
	if !maxPositionSize.IsPositive() {
		return Limits{}, errs.Validation("Max position size must be positive")
	}
	if maxLeverage.LessThan(money.FromInt(1)) {
		return Limits{}, errs.Validation("Max leverage must be at least 1.0")
	}
	if maxOpenPositions < 1 {
		return Limits{}, errs.Validation("Max open positions must be at least 1")
	}
	return Limits{
		MaxDailyLoss:     maxDailyLoss,
		MaxPositionSize:  maxPositionSize,
		MaxDrawdown:      maxDrawdown,
		MaxLeverage:      maxLeverage,
		MaxOpenPositions: maxOpenPositions,
	}, nil
}

// IsDailyLossExceeded reports whether the current daily loss breaches the
// limit. The input is a loss magnitude and cannot be negative.
func (l Limits) IsDailyLossExceeded(currentDailyLoss decimal.Decimal) (bool, error) {
	if currentDailyLoss.IsNegative() {
		return false, errs.Validation("Daily loss cannot be negative")
	}
	return currentDailyLoss.GreaterThan(l.MaxDailyLoss), nil
}

// IsPositionTooLarge reports whether a positive notional breaches the
// per-position cap.
func (l Limits) IsPositionTooLarge(notional decimal.Decimal) (bool, error) {
	if !notional.IsPositive() {
		return false, errs.Validation("Position size must be positive")
	}
	return notional.GreaterThan(l.MaxPositionSize), nil
}

// IsLeverageExceeded reports whether used leverage breaches the cap.
func (l Limits) IsLeverageExceeded(usedLeverage decimal.Decimal) (bool, error) {
	if !usedLeverage.IsPositive() {
		return false, errs.Validation("Leverage must be positive")
	}
	return usedLeverage.GreaterThan(l.MaxLeverage), nil
}

// CanOpenNewPosition reports whether another position fits under the
// concurrent-position cap.
func (l Limits) CanOpenNewPosition(currentOpenPositions int) bool {
	return currentOpenPositions < l.MaxOpenPositions
}

package risk

import (
	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
)

// SizeFromRisk computes position size from the risk budget:
//
//	size = (balance × riskPct/100) / stopLossDistance
//
// rounded half-to-even to 8 places. Risking 2% of a 10000 balance with a
// stop 50 away yields a size of 4.
func SizeFromRisk(accountBalance, riskPct, stopLossDistance decimal.Decimal) (decimal.Decimal, error) {
	if !accountBalance.IsPositive() {
		return decimal.Zero, errs.Validation("Account balance must be positive")
	}
	if !riskPct.IsPositive() || riskPct.GreaterThan(hundred) {
		return decimal.Zero, errs.Validation("Risk percentage must be between 0 and 100")
	}
	if !stopLossDistance.IsPositive() {
		return decimal.Zero, errs.Validation("Stop loss distance must be positive")
	}

	riskAmount, err := money.Div(accountBalance.Mul(riskPct), hundred)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Div(riskAmount, stopLossDistance)
}

// MaxSizeFromPct caps a position at a percentage of the account balance,
// rounded half-to-even to 8 places.
func MaxSizeFromPct(accountBalance, maxPositionPct decimal.Decimal) (decimal.Decimal, error) {
	if !accountBalance.IsPositive() {
		return decimal.Zero, errs.Validation("Account balance must be positive")
	}
	if !maxPositionPct.IsPositive() || maxPositionPct.GreaterThan(hundred) {
		return decimal.Zero, errs.Validation("Max position percentage must be between 0 and 100")
	}
	return money.Div(accountBalance.Mul(maxPositionPct), hundred)
}

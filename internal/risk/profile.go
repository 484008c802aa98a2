// Package risk enforces portfolio-level risk invariants: it expands a risk
// profile into numeric limits, sizes positions from risk, computes stops,
// gates every trade pre-flight, and operates the kill-switch.
package risk

import (
	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
)

// Profile is a preset risk appetite. Operators choose a profile, not raw
// numbers; Params expands it into the concrete limits.
type Profile string

const (
	Conservative Profile = "conservative"
	Balanced     Profile = "balanced"
	Aggressive   Profile = "aggressive"
)

// Params are the numeric limits a profile expands to. The percentage fields
// are over account equity at engine construction.
type Params struct {
	MaxRiskPerTrade  decimal.Decimal // % of account risked per trade
	MaxDailyLoss     decimal.Decimal // % daily loss limit
	MaxDrawdown      decimal.Decimal // % maximum drawdown (declared, not yet enforced)
	MaxPositionSize  decimal.Decimal // % of account per position
	MaxOpenPositions int             // max concurrent positions
	MaxLeverage      decimal.Decimal // maximum leverage allowed
}

// ParseProfile validates a profile name from config.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case Conservative, Balanced, Aggressive:
		return Profile(s), nil
	}
	return "", errs.Config("unknown risk profile: " + s)
}

// Params returns the limits for the profile.
func (p Profile) Params() Params {
	switch p {
	case Conservative:
		return Params{
			MaxRiskPerTrade:  money.FromInt(1),
			MaxDailyLoss:     money.FromInt(5),
			MaxDrawdown:      money.FromInt(10),
			MaxPositionSize:  money.FromInt(1),
			MaxOpenPositions: 3,
			MaxLeverage:      money.FromInt(1),
		}
	case Aggressive:
		return Params{
			MaxRiskPerTrade:  money.FromInt(3),
			MaxDailyLoss:     money.FromInt(15),
			MaxDrawdown:      money.FromInt(30),
			MaxPositionSize:  money.FromInt(5),
			MaxOpenPositions: 10,
			MaxLeverage:      money.FromInt(2),
		}
	default: // Balanced
		return Params{
			MaxRiskPerTrade:  money.FromInt(2),
			MaxDailyLoss:     money.FromInt(10),
			MaxDrawdown:      money.FromInt(20),
			MaxPositionSize:  money.FromInt(2),
			MaxOpenPositions: 5,
			MaxLeverage:      money.New(15, 1), // 1.5x
		}
	}
}

// Description is a one-line human-readable summary for startup logging.
func (p Profile) Description() string {
	switch p {
	case Conservative:
		return "Conservative (1% per trade, 5% daily limit, no leverage)"
	case Aggressive:
		return "Aggressive (3% per trade, 15% daily limit, 2x leverage)"
	default:
		return "Balanced (2% per trade, 10% daily limit, 1.5x leverage)"
	}
}

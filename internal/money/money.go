// Package money provides exact decimal arithmetic for every monetary
// quantity in the engine: prices, sizes, balances, and PnL. All values are
// shopspring decimals with fractional scale up to 8 places; binary floating
// point never touches a monetary path.
//
// Multiplication, addition, and subtraction on decimals are exact, so this
// package only adds the pieces the engine needs on top of the library:
// strict parsing (scientific notation is rejected), mantissa/scale
// construction, and division with half-to-even rounding to 8 places.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"crypto-trader/pkg/errs"
)

// Scale is the maximum fractional precision carried by monetary values.
const Scale = 8

// divPrecision is the intermediate precision used for division before the
// quotient is rounded back to Scale. Wide enough that the digits beyond
// Scale decide the banker's rounding correctly.
const divPrecision = 24

// Zero is the zero monetary value.
var Zero = decimal.Zero

// Parse converts a decimal string into an exact decimal value. Inputs in
// scientific notation are rejected: venue tickers always send plain decimal
// strings, so an exponent marker indicates a corrupt or spoofed payload.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errs.Decimal("parse "+s, err)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, errs.DecimalParse("scientific notation is not accepted: " + s)
	}
	return d, nil
}

// MustParse is Parse for trusted literals; it panics on malformed input.
// Use only with compile-time constants.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// New constructs a value from an integer mantissa and a fractional scale,
// e.g. New(12345, 2) == 123.45.
func New(mantissa int64, scale int32) decimal.Decimal {
	return decimal.New(mantissa, -scale)
}

// FromInt constructs a whole-number value.
func FromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// Div divides a by b and rounds the quotient half-to-even to Scale
// fractional digits. Division by zero is an error, never a panic.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, errs.DecimalParse("division by zero")
	}
	return a.DivRound(b, divPrecision).RoundBank(Scale), nil
}

// Round8 rounds half-to-even to Scale fractional digits. Applied at the
// normalization and PnL points, the only places precision is clamped.
func Round8(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Scale)
}

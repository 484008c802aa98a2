package execution

import (
	"time"

	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
)

// feeRate is the taker fee charged per fill at this layer: 5 bps.
var feeRate = money.MustParse("0.0005")

var two = money.FromInt(2)

// SimulateFills produces deterministic fills for an order: one full fill
// for quantities up to 1, otherwise two slices of half the quantity each
// (the second takes the rounding remainder, so the slices always conserve
// the order quantity exactly). Fees are price × quantity × 5 bps per slice.
//
// The timestamp is the wall clock in milliseconds, or 0 if the clock reads
// before the epoch; simulation itself never fails.
func SimulateFills(orderID uint64, symbol string, price, quantity decimal.Decimal) []Fill {
	var timestamp uint64
	if now := time.Now().UnixMilli(); now > 0 {
		timestamp = uint64(now)
	}

	firstQty, secondQty := quantity, decimal.Zero
	if quantity.GreaterThan(money.FromInt(1)) {
		half, err := money.Div(quantity, two)
		if err == nil {
			firstQty, secondQty = half, quantity.Sub(half)
		}
	}

	var fills []Fill
	for _, qty := range []decimal.Decimal{firstQty, secondQty} {
		if !qty.IsPositive() {
			continue
		}
		fills = append(fills, Fill{
			OrderID:   orderID,
			Symbol:    symbol,
			Price:     price,
			Quantity:  qty,
			Fee:       money.Round8(price.Mul(qty).Mul(feeRate)),
			Timestamp: timestamp,
		})
	}
	return fills
}

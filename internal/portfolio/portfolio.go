package portfolio

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// reconcileTolerance is the exact-decimal size difference above which an
// internal/external comparison is reported as a break.
var reconcileTolerance = money.MustParse("0.0001")

// ClosedPosition is one entry of a bulk close: the symbol, the price it was
// closed at, and the realized PnL.
type ClosedPosition struct {
	Symbol    string
	ExitPrice decimal.Decimal
	PnL       decimal.Decimal
}

// Portfolio is the set of open positions plus the realized PnL ledger.
// At most one open position exists per symbol.
type Portfolio struct {
	positions   map[string]*Position
	realizedPnL decimal.Decimal
}

// New creates an empty portfolio.
func New() *Portfolio {
	return &Portfolio{positions: make(map[string]*Position)}
}

// OpenPosition opens a position for a symbol. Opening over an existing
// position is a risk error, never a merge.
func (pf *Portfolio) OpenPosition(symbol string, side types.PositionSide, entryPrice, size, stopLoss decimal.Decimal, openedAt uint64) error {
	if _, exists := pf.positions[symbol]; exists {
		return errs.Riskf("Position already open for %s", symbol)
	}

	pos, err := NewPosition(symbol, side, entryPrice, size, stopLoss, openedAt)
	if err != nil {
		return err
	}
	pf.positions[symbol] = pos
	return nil
}

// ClosePosition closes the symbol's position at the exit price, adds the
// realized PnL to the ledger, and returns it.
func (pf *Portfolio) ClosePosition(symbol string, exitPrice decimal.Decimal) (decimal.Decimal, error) {
	pos, ok := pf.positions[symbol]
	if !ok {
		return decimal.Zero, errs.Riskf("No open position for %s", symbol)
	}

	if err := pos.UpdatePrice(exitPrice); err != nil {
		return decimal.Zero, err
	}
	pnl := pos.UnrealizedPnL()
	pf.realizedPnL = pf.realizedPnL.Add(pnl)
	delete(pf.positions, symbol)
	return pnl, nil
}

// UpdatePrice marks the symbol's position, if any, to the new price.
func (pf *Portfolio) UpdatePrice(symbol string, price decimal.Decimal) error {
	if pos, ok := pf.positions[symbol]; ok {
		return pos.UpdatePrice(price)
	}
	return nil
}

// Position returns the open position for a symbol, or nil.
func (pf *Portfolio) Position(symbol string) *Position {
	return pf.positions[symbol]
}

// OpenPositions returns the number of open positions.
func (pf *Portfolio) OpenPositions() int {
	return len(pf.positions)
}

// Symbols returns the open symbols in sorted order.
func (pf *Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(pf.positions))
	for s := range pf.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Exposure is the sum of open notionals.
func (pf *Portfolio) Exposure() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range pf.positions {
		total = total.Add(pos.NotionalValue())
	}
	return total
}

// UnrealizedPnL is the sum of open positions' unrealized PnL.
func (pf *Portfolio) UnrealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range pf.positions {
		total = total.Add(pos.UnrealizedPnL())
	}
	return total
}

// RealizedPnL returns the realized PnL ledger.
func (pf *Portfolio) RealizedPnL() decimal.Decimal {
	return pf.realizedPnL
}

// CloseAllAtLast drains every position at its last recorded price,
// accumulating realized PnL. Entries come back in sorted symbol order so a
// liquidation report is deterministic.
func (pf *Portfolio) CloseAllAtLast() []ClosedPosition {
	results := make([]ClosedPosition, 0, len(pf.positions))
	for _, symbol := range pf.Symbols() {
		pos := pf.positions[symbol]
		pnl := pos.UnrealizedPnL()
		pf.realizedPnL = pf.realizedPnL.Add(pnl)
		results = append(results, ClosedPosition{Symbol: symbol, ExitPrice: pos.LastPrice, PnL: pnl})
		delete(pf.positions, symbol)
	}
	return results
}

// Reconcile compares internal position sizes against an external snapshot
// and returns one message per break: size differences beyond the tolerance,
// and external non-zero positions the portfolio does not know about.
func (pf *Portfolio) Reconcile(external map[string]decimal.Decimal) []string {
	var breaks []string

	for _, symbol := range pf.Symbols() {
		internalQty := pf.positions[symbol].Size
		externalQty := external[symbol]
		if internalQty.Sub(externalQty).Abs().GreaterThan(reconcileTolerance) {
			breaks = append(breaks, fmt.Sprintf(
				"Position break for %s: internal=%s, external=%s",
				symbol, internalQty, externalQty))
		}
	}

	externalSymbols := make([]string, 0, len(external))
	for s := range external {
		externalSymbols = append(externalSymbols, s)
	}
	sort.Strings(externalSymbols)
	for _, symbol := range externalSymbols {
		qty := external[symbol]
		if _, ok := pf.positions[symbol]; !ok && !qty.IsZero() {
			breaks = append(breaks, fmt.Sprintf(
				"External position not in portfolio: %s qty=%s", symbol, qty))
		}
	}

	return breaks
}

package risk

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/internal/portfolio"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// Engine is the central risk gatekeeper. It owns the portfolio, tracks
// balance, equity, peak equity, and daily loss, and operates the
// kill-switch. Once tripped, the kill-switch stays active until explicit
// deactivation and every pre-trade check short-circuits.
//
// The engine is single-owner: callers serialize access externally (the
// execution engine holds it behind its own mutex).
type Engine struct {
	accountBalance   decimal.Decimal
	portfolio        *portfolio.Portfolio
	limits           Limits
	killSwitch       bool
	killSwitchReason string
	dailyLoss        decimal.Decimal
	peakEquity       decimal.Decimal
	logger           *slog.Logger
}

// Snapshot is a consistent view of the engine's risk state for logging and
// ops surfaces.
type Snapshot struct {
	AccountBalance   decimal.Decimal
	Equity           decimal.Decimal
	Exposure         decimal.Decimal
	UnrealizedPnL    decimal.Decimal
	RealizedPnL      decimal.Decimal
	DailyLoss        decimal.Decimal
	PeakEquity       decimal.Decimal
	Drawdown         decimal.Decimal
	OpenPositions    int
	KillSwitchActive bool
	KillSwitchReason string
}

// NewEngine creates a risk engine over a fresh portfolio.
func NewEngine(accountBalance decimal.Decimal, limits Limits, logger *slog.Logger) (*Engine, error) {
	if !accountBalance.IsPositive() {
		return nil, errs.Validation("Account balance must be positive")
	}
	return &Engine{
		accountBalance: accountBalance,
		portfolio:      portfolio.New(),
		limits:         limits,
		dailyLoss:      decimal.Zero,
		peakEquity:     accountBalance,
		logger:         logger.With("component", "risk"),
	}, nil
}

// AccountBalance returns the cash balance (realized PnL applied).
func (e *Engine) AccountBalance() decimal.Decimal { return e.accountBalance }

// Equity is balance plus unrealized PnL across open positions.
func (e *Engine) Equity() decimal.Decimal {
	return e.accountBalance.Add(e.portfolio.UnrealizedPnL())
}

// OpenPositions returns the open position count.
func (e *Engine) OpenPositions() int { return e.portfolio.OpenPositions() }

// Portfolio exposes the underlying portfolio for position lookups. Callers
// must hold the same external serialization as for every other method.
func (e *Engine) Portfolio() *portfolio.Portfolio { return e.portfolio }

// DailyLoss returns the current daily loss magnitude.
func (e *Engine) DailyLoss() decimal.Decimal { return e.dailyLoss }

// PeakEquity returns the highest equity observed.
func (e *Engine) PeakEquity() decimal.Decimal { return e.peakEquity }

// Drawdown is peak equity minus current equity.
func (e *Engine) Drawdown() decimal.Decimal {
	return e.peakEquity.Sub(e.Equity())
}

// Limits returns the absolute limits the engine enforces.
func (e *Engine) Limits() Limits { return e.limits }

// IsKillSwitchActive reports whether trading is halted.
func (e *Engine) IsKillSwitchActive() bool { return e.killSwitch }

// KillSwitchReason returns the reason recorded at the first activation, or
// "" when the switch is armed.
func (e *Engine) KillSwitchReason() string { return e.killSwitchReason }

// ActivateKillSwitch trips the switch. The reason of the first activation
// is preserved; later activations while tripped do not overwrite it.
func (e *Engine) ActivateKillSwitch(reason string) {
	if e.killSwitch {
		return
	}
	e.killSwitch = true
	e.killSwitchReason = reason
	e.logger.Error("KILL SWITCH", "reason", reason)
}

// DeactivateKillSwitch re-arms trading. Explicit operator action only.
func (e *Engine) DeactivateKillSwitch() {
	e.killSwitch = false
	e.killSwitchReason = ""
	e.logger.Info("kill switch deactivated")
}

// UpdatePrice marks the symbol's position to the new price and refreshes
// risk state. If the refresh breaches the daily-loss limit the kill-switch
// trips; callers observe it via IsKillSwitchActive.
func (e *Engine) UpdatePrice(symbol string, price decimal.Decimal) error {
	if err := e.portfolio.UpdatePrice(symbol, price); err != nil {
		return err
	}
	e.updateRiskState()
	return nil
}

// PreTradeValidate runs the ordered pre-trade checks. Several failures both
// return a Risk error and trip the kill-switch; the two effects always
// happen together.
func (e *Engine) PreTradeValidate(symbol string, side types.PositionSide, entryPrice, positionSize, stopLossDistance decimal.Decimal) error {
	_ = symbol
	_ = side

	if e.killSwitch {
		return errs.Risk("Kill-switch active; trading halted")
	}

	if !entryPrice.IsPositive() || !positionSize.IsPositive() || !stopLossDistance.IsPositive() {
		return errs.Validation("Entry price, position size, and stop loss distance must be positive")
	}

	if !e.limits.CanOpenNewPosition(e.portfolio.OpenPositions()) {
		const msg = "Max open positions reached"
		e.ActivateKillSwitch(msg)
		return errs.Risk(msg)
	}

	notional := entryPrice.Mul(positionSize)
	tooLarge, err := e.limits.IsPositionTooLarge(notional)
	if err != nil {
		return err
	}
	if tooLarge {
		return errs.Risk("Position notional exceeds limit")
	}

	equity := e.Equity()
	if !equity.IsPositive() {
		const msg = "Equity depleted"
		e.ActivateKillSwitch(msg)
		return errs.Risk(msg)
	}

	projectedExposure := e.portfolio.Exposure().Add(notional)
	usedLeverage, err := money.Div(projectedExposure, equity)
	if err != nil {
		return err
	}
	exceeded, err := e.limits.IsLeverageExceeded(usedLeverage)
	if err != nil {
		return err
	}
	if exceeded {
		return errs.Risk("Leverage exceeds limit")
	}

	e.updateRiskState()
	lossExceeded, err := e.limits.IsDailyLossExceeded(e.dailyLoss)
	if err != nil {
		return err
	}
	if lossExceeded {
		const msg = "Daily loss limit exceeded"
		e.ActivateKillSwitch(msg)
		return errs.Risk(msg)
	}

	return nil
}

// RecordTradeOpen opens the position in the portfolio.
func (e *Engine) RecordTradeOpen(symbol string, side types.PositionSide, entryPrice, positionSize, stopLoss decimal.Decimal, openedAt uint64) error {
	return e.portfolio.OpenPosition(symbol, side, entryPrice, positionSize, stopLoss, openedAt)
}

// RecordTradeClose closes the position at the exit price, applies the
// realized PnL to the balance, and refreshes risk state.
func (e *Engine) RecordTradeClose(symbol string, exitPrice decimal.Decimal) (decimal.Decimal, error) {
	pnl, err := e.portfolio.ClosePosition(symbol, exitPrice)
	if err != nil {
		return decimal.Zero, err
	}
	e.accountBalance = e.accountBalance.Add(pnl)
	e.updateRiskState()
	return pnl, nil
}

// LiquidateAll drains every position at its last known price, applies each
// PnL to the balance, and refreshes risk state.
func (e *Engine) LiquidateAll() []portfolio.ClosedPosition {
	results := e.portfolio.CloseAllAtLast()
	for _, closed := range results {
		e.accountBalance = e.accountBalance.Add(closed.PnL)
	}
	e.updateRiskState()
	return results
}

// Snapshot returns the current aggregate risk state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		AccountBalance:   e.accountBalance,
		Equity:           e.Equity(),
		Exposure:         e.portfolio.Exposure(),
		UnrealizedPnL:    e.portfolio.UnrealizedPnL(),
		RealizedPnL:      e.portfolio.RealizedPnL(),
		DailyLoss:        e.dailyLoss,
		PeakEquity:       e.peakEquity,
		Drawdown:         e.Drawdown(),
		OpenPositions:    e.portfolio.OpenPositions(),
		KillSwitchActive: e.killSwitch,
		KillSwitchReason: e.killSwitchReason,
	}
}

// updateRiskState refreshes peak equity and daily loss from the live
// equity, tripping the kill-switch when the loss breaches the limit. The
// daily loss is the gap between balance and equity whenever equity sits
// below balance; it resets to zero the moment equity recovers.
func (e *Engine) updateRiskState() {
	equity := e.Equity()
	if equity.GreaterThan(e.peakEquity) {
		e.peakEquity = equity
	}

	if equity.LessThan(e.accountBalance) {
		e.dailyLoss = e.accountBalance.Sub(equity).Abs()
	} else {
		e.dailyLoss = decimal.Zero
	}

	if exceeded, err := e.limits.IsDailyLossExceeded(e.dailyLoss); err == nil && exceeded {
		e.ActivateKillSwitch("Daily loss limit exceeded")
	}
}

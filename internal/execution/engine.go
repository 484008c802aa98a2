package execution

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"crypto-trader/internal/events"
	"crypto-trader/internal/money"
	"crypto-trader/internal/risk"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// executionRiskPct is the risk budget used to size every trade: a fixed 2%
// of the account balance, independent of the profile's per-trade cap. The
// profile still bounds the resulting notional through the risk engine.
var executionRiskPct = money.FromInt(2)

// Engine owns the paper book: orders, fills, and the trade record. Every
// trade is gated by the risk engine, and every state change is announced on
// the event bus.
//
// All public methods serialize on an internal mutex; the risk engine is
// only ever touched under it.
type Engine struct {
	mu          sync.Mutex
	risk        *risk.Engine
	bus         *events.Bus
	orders      map[uint64]*Order
	fills       []Fill
	trades      []Trade
	nextOrderID uint64
	logger      *slog.Logger
}

// NewEngine creates an execution engine over a risk engine and bus.
func NewEngine(riskEngine *risk.Engine, bus *events.Bus, logger *slog.Logger) *Engine {
	return &Engine{
		risk:   riskEngine,
		bus:    bus,
		orders: make(map[uint64]*Order),
		logger: logger.With("component", "execution"),
	}
}

// Execute turns a signal into an order, runs it through the risk gate and
// the fill simulator, and records the resulting trade. Hold is a no-op. A
// rejected pre-trade check publishes RiskHalt (when the kill-switch is now
// active) and Error before returning an execution error.
func (e *Engine) Execute(symbol string, signal types.Signal, entryPrice, stopLossDistance decimal.Decimal) (*Trade, error) {
	if signal == types.SignalHold {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	size, err := risk.SizeFromRisk(e.risk.AccountBalance(), executionRiskPct, stopLossDistance)
	if err != nil {
		return nil, err
	}

	side, posSide := types.BUY, types.Long
	if signal == types.SignalSell {
		side, posSide = types.SELL, types.Short
	}

	if err := e.risk.PreTradeValidate(symbol, posSide, entryPrice, size, stopLossDistance); err != nil {
		msg := err.Error()
		if e.risk.IsKillSwitchActive() {
			e.bus.Publish(events.RiskHalt{Reason: e.risk.KillSwitchReason()})
		}
		e.bus.Publish(events.Error{Message: msg})
		return nil, errs.Execution(msg)
	}

	stopLoss, err := risk.CalculateStopLoss(entryPrice, stopLossDistance, posSide.IsLong())
	if err != nil {
		return nil, err
	}

	orderID, err := e.submitOrderLocked(symbol, side, types.OrderTypeMarket, types.TIFIOC, size, &entryPrice)
	if err != nil {
		return nil, err
	}

	return e.processFillsLocked(orderID, entryPrice, stopLoss, posSide, signal)
}

// SubmitOrder allocates the next order ID, books the order as New, and
// publishes OrderSubmitted. Price may be nil for unpriced market orders.
func (e *Engine) SubmitOrder(symbol string, side types.Side, orderType types.OrderType, tif types.TimeInForce, quantity decimal.Decimal, price *decimal.Decimal) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitOrderLocked(symbol, side, orderType, tif, quantity, price)
}

func (e *Engine) submitOrderLocked(symbol string, side types.Side, orderType types.OrderType, tif types.TimeInForce, quantity decimal.Decimal, price *decimal.Decimal) (uint64, error) {
	if !quantity.IsPositive() {
		return 0, errs.Validation("Order quantity must be positive")
	}

	e.nextOrderID++
	now := nowMillis()
	order := &Order{
		ID:             e.nextOrderID,
		Symbol:         symbol,
		Side:           side,
		Type:           orderType,
		TIF:            tif,
		Quantity:       quantity,
		Price:          price,
		FilledQuantity: decimal.Zero,
		Status:         types.OrderStatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	e.orders[order.ID] = order

	e.bus.Publish(events.OrderSubmitted{
		OrderID:  order.ID,
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
	})
	return order.ID, nil
}

// CancelOrder moves a working order to Cancelled and publishes
// OrderCancelled. Terminal orders cannot be cancelled.
func (e *Engine) CancelOrder(orderID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok {
		return errs.Executionf("order %d not found", orderID)
	}
	if order.Status.IsTerminal() {
		return errs.Executionf("order %d is terminal (%s)", orderID, order.Status)
	}

	order.Status = types.OrderStatusCancelled
	order.UpdatedAt = nowMillis()
	e.bus.Publish(events.OrderCancelled{OrderID: orderID, Symbol: order.Symbol})
	return nil
}

// ReplaceOrder updates quantity and price on a working order. No event is
// published: a replace is private state for paper trading.
func (e *Engine) ReplaceOrder(orderID uint64, newQuantity decimal.Decimal, newPrice *decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok {
		return errs.Executionf("order %d not found", orderID)
	}
	if order.Status.IsTerminal() {
		return errs.Executionf("order %d is terminal (%s)", orderID, order.Status)
	}
	if !newQuantity.IsPositive() {
		return errs.Validation("Order quantity must be positive")
	}
	if newQuantity.LessThan(order.FilledQuantity) {
		return errs.Validation("Order quantity cannot drop below filled quantity")
	}

	order.Quantity = newQuantity
	if newPrice != nil {
		order.Price = newPrice
	}
	order.UpdatedAt = nowMillis()
	return nil
}

// UpdatePrice forwards a tick to the risk engine. If the tick trips the
// kill-switch, the engine broadcasts RiskHalt and force-liquidates every
// position, publishing TradeClosed per entry.
func (e *Engine) UpdatePrice(symbol string, price decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasActive := e.risk.IsKillSwitchActive()
	if err := e.risk.UpdatePrice(symbol, price); err != nil {
		return err
	}

	if !e.risk.IsKillSwitchActive() {
		return nil
	}

	// RiskHalt announces the Armed → Tripped transition exactly once;
	// liquidation runs whenever the switch is active and exposure remains.
	if !wasActive {
		e.bus.Publish(events.RiskHalt{Reason: e.risk.KillSwitchReason()})
	}
	if e.risk.OpenPositions() > 0 {
		for _, closed := range e.risk.LiquidateAll() {
			e.bus.Publish(events.TradeClosed{
				Symbol:    closed.Symbol,
				ExitPrice: closed.ExitPrice,
				PnL:       closed.PnL,
			})
		}
	}
	return nil
}

// CloseIfStopped closes the symbol's position when the current price has
// crossed its stop, publishing TradeClosed. Reports whether a close
// happened.
func (e *Engine) CloseIfStopped(symbol string, currentPrice decimal.Decimal) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := e.risk.Portfolio().Position(symbol)
	if pos == nil {
		return false, nil
	}

	hit, err := risk.IsStopHit(currentPrice, pos.StopLoss, pos.Side.IsLong())
	if err != nil || !hit {
		return false, err
	}

	pnl, err := e.risk.RecordTradeClose(symbol, currentPrice)
	if err != nil {
		return false, err
	}

	e.logger.Info("stop loss hit", "symbol", symbol, "exit", currentPrice, "pnl", pnl)
	e.bus.Publish(events.TradeClosed{Symbol: symbol, ExitPrice: currentPrice, PnL: pnl})
	return true, nil
}

// ClosePosition closes the symbol's position at the given price through
// the risk engine and publishes TradeClosed.
func (e *Engine) ClosePosition(symbol string, exitPrice decimal.Decimal) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pnl, err := e.risk.RecordTradeClose(symbol, exitPrice)
	if err != nil {
		return decimal.Zero, err
	}
	e.bus.Publish(events.TradeClosed{Symbol: symbol, ExitPrice: exitPrice, PnL: pnl})
	return pnl, nil
}

// processFillsLocked runs the simulator, applies each fill to the order,
// and books the trade when anything filled.
func (e *Engine) processFillsLocked(orderID uint64, entryPrice, stopLoss decimal.Decimal, posSide types.PositionSide, signal types.Signal) (*Trade, error) {
	order := e.orders[orderID]

	fills := SimulateFills(orderID, order.Symbol, entryPrice, order.Quantity)
	totalFilled := decimal.Zero
	for _, fill := range fills {
		e.fills = append(e.fills, fill)
		order.FilledQuantity = order.FilledQuantity.Add(fill.Quantity)
		totalFilled = totalFilled.Add(fill.Quantity)
		e.bus.Publish(events.OrderFilled{
			OrderID:  fill.OrderID,
			Symbol:   fill.Symbol,
			Price:    fill.Price,
			Quantity: fill.Quantity,
			Fee:      fill.Fee,
		})
	}

	order.UpdatedAt = nowMillis()
	switch {
	case order.FilledQuantity.GreaterThanOrEqual(order.Quantity):
		order.Status = types.OrderStatusFilled
	case order.FilledQuantity.IsPositive():
		order.Status = types.OrderStatusPartiallyFilled
	}

	if !totalFilled.IsPositive() {
		return nil, nil
	}

	trade := Trade{
		Symbol:       order.Symbol,
		Signal:       signal,
		EntryPrice:   entryPrice,
		PositionSize: totalFilled,
		StopLoss:     stopLoss,
		Timestamp:    nowMillis(),
	}
	e.trades = append(e.trades, trade)

	if err := e.risk.RecordTradeOpen(order.Symbol, posSide, entryPrice, totalFilled, stopLoss, trade.Timestamp); err != nil {
		return nil, err
	}

	e.bus.Publish(events.TradeExecuted{
		Symbol:       trade.Symbol,
		Signal:       trade.Signal,
		EntryPrice:   trade.EntryPrice,
		PositionSize: trade.PositionSize,
		StopLoss:     trade.StopLoss,
	})
	return &trade, nil
}

// Order returns a copy of the order with the given ID.
func (e *Engine) Order(orderID uint64) (Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *order, true
}

// Orders returns copies of all orders sorted by ID.
func (e *Engine) Orders() []Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Order, 0, len(e.orders))
	for _, order := range e.orders {
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fills returns a copy of all fills in arrival order.
func (e *Engine) Fills() []Fill {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Fill(nil), e.fills...)
}

// Trades returns a copy of the trade record in arrival order.
func (e *Engine) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Trade(nil), e.trades...)
}

// RiskSnapshot returns the risk engine's current state under the engine's
// serialization.
func (e *Engine) RiskSnapshot() risk.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.risk.Snapshot()
}

// nowMillis is the wall clock in epoch milliseconds, 0 on clock anomaly.
func nowMillis() uint64 {
	if now := time.Now().UnixMilli(); now > 0 {
		return uint64(now)
	}
	return 0
}

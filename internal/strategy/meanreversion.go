package strategy

import (
	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// defaultStopDistancePct is the stop-loss distance as a fraction of entry
// price used by the default RiskParams.
var defaultStopDistancePct = money.MustParse("0.02")

// MeanReversion trades deviations from a rolling mean: buy when price dips
// below the window mean by more than the threshold, sell when it stretches
// above, hold otherwise. Until the window has filled, every tick is a Hold.
type MeanReversion struct {
	name       string
	threshold  decimal.Decimal // relative deviation that arms a signal, in (0, 1)
	windowSize int
	prices     []decimal.Decimal
}

// NewMeanReversion creates the strategy with a deviation threshold in
// (0, 1) and a positive window size.
func NewMeanReversion(threshold decimal.Decimal, windowSize int) (*MeanReversion, error) {
	if !threshold.IsPositive() || threshold.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errs.Validation("Threshold must be between 0 and 1")
	}
	if windowSize <= 0 {
		return nil, errs.Validation("Window size must be greater than 0")
	}
	return &MeanReversion{
		name:       "MeanReversion",
		threshold:  threshold,
		windowSize: windowSize,
		prices:     make([]decimal.Decimal, 0, windowSize),
	}, nil
}

// Signal evaluates the tick against the current window, then records the
// tick's price into the window (evaluate-first keeps a freshly filled
// window from judging a price against itself).
func (s *MeanReversion) Signal(event types.PriceEvent) (types.Signal, error) {
	defer s.observe(event.Price)

	if len(s.prices) < s.windowSize {
		return types.SignalHold, nil
	}

	mean, err := s.mean()
	if err != nil {
		return types.SignalHold, err
	}

	deviation, err := money.Div(event.Price.Sub(mean).Abs(), mean)
	if err != nil {
		return types.SignalHold, err
	}

	switch {
	case event.Price.LessThan(mean) && deviation.GreaterThan(s.threshold):
		return types.SignalBuy, nil
	case event.Price.GreaterThan(mean) && deviation.GreaterThan(s.threshold):
		return types.SignalSell, nil
	default:
		return types.SignalHold, nil
	}
}

// Name identifies the strategy.
func (s *MeanReversion) Name() string { return s.name }

// RiskParams returns the simple defaults: enter at the current price with a
// 2%-of-price stop distance and a one-unit-notional size hint.
func (s *MeanReversion) RiskParams(currentPrice decimal.Decimal) (RiskParams, error) {
	if !currentPrice.IsPositive() {
		return RiskParams{}, errs.Validation("Price must be positive")
	}
	return RiskParams{
		EntryPrice:       currentPrice,
		StopLossDistance: currentPrice.Mul(defaultStopDistancePct),
		PositionSizeHint: currentPrice,
	}, nil
}

// observe appends the price, evicting the oldest once the window is full.
func (s *MeanReversion) observe(price decimal.Decimal) {
	if len(s.prices) == s.windowSize {
		s.prices = append(s.prices[1:], price)
		return
	}
	s.prices = append(s.prices, price)
}

func (s *MeanReversion) mean() (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range s.prices {
		sum = sum.Add(p)
	}
	return money.Div(sum, decimal.NewFromInt(int64(len(s.prices))))
}

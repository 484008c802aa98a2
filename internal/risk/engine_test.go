package risk

import (
	"io"
	"log/slog"
	"testing"

	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newBalancedEngine builds an engine with a 10000 balance under the
// Balanced profile: daily loss 1000, position cap 200, leverage 1.5x,
// 5 open positions.
func newBalancedEngine(t *testing.T) *Engine {
	t.Helper()
	limits, err := LimitsFromParams(d("10000"), Balanced.Params())
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(d("10000"), limits, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNewEngineRejectsNonPositiveBalance(t *testing.T) {
	t.Parallel()

	limits, err := NewLimits(d("1000"), d("200"), d("2000"), d("1.5"), 5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(d("0"), limits, testLogger()); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("want validation error, got %v", err)
	}
}

func TestPreTradeValidateAccepts(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	if err := e.PreTradeValidate("BTCUSDT", types.Long, d("100"), d("1"), d("2")); err != nil {
		t.Errorf("in-limit trade should validate: %v", err)
	}
	if e.IsKillSwitchActive() {
		t.Error("validation success must not trip the kill-switch")
	}
}

func TestPreTradeValidateInputChecks(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	err := e.PreTradeValidate("BTCUSDT", types.Long, d("0"), d("1"), d("2"))
	if !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("want validation error, got %v", err)
	}
	if e.IsKillSwitchActive() {
		t.Error("input validation failures must not trip the kill-switch")
	}
}

func TestPreTradeValidateNotionalCap(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	// Notional 100 × 3 = 300 > the 200 cap.
	err := e.PreTradeValidate("BTCUSDT", types.Long, d("100"), d("3"), d("2"))
	if !errs.IsKind(err, errs.KindRisk) {
		t.Fatalf("want risk error, got %v", err)
	}
	if e.IsKillSwitchActive() {
		t.Error("notional breach alone does not trip the kill-switch")
	}
}

func TestPreTradeValidatePositionCountTripsKillSwitch(t *testing.T) {
	t.Parallel()

	limits, err := NewLimits(d("1000"), d("200"), d("2000"), d("1.5"), 1)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(d("10000"), limits, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("100"), d("1"), d("98"), 1000); err != nil {
		t.Fatal(err)
	}

	err = e.PreTradeValidate("ETHUSDT", types.Long, d("50"), d("1"), d("1"))
	if !errs.IsKind(err, errs.KindRisk) {
		t.Fatalf("want risk error, got %v", err)
	}
	if !e.IsKillSwitchActive() {
		t.Error("position-count breach must trip the kill-switch")
	}
	if e.KillSwitchReason() != "Max open positions reached" {
		t.Errorf("reason = %q", e.KillSwitchReason())
	}
}

func TestPreTradeValidateDailyLossTrip(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	// Hold a position marked 1200 under water. The mark goes through the
	// portfolio directly, skipping the engine's own refresh, so the
	// pre-trade path performs the trip itself.
	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("100"), d("20"), d("90"), 1000); err != nil {
		t.Fatal(err)
	}
	if err := e.Portfolio().UpdatePrice("BTCUSDT", d("40")); err != nil {
		t.Fatal(err)
	}

	err := e.PreTradeValidate("ETHUSDT", types.Long, d("50"), d("1"), d("1"))
	if !errs.IsKind(err, errs.KindRisk) {
		t.Fatalf("want risk error, got %v", err)
	}
	if err.Error() != "Risk management error: Daily loss limit exceeded" {
		t.Errorf("error = %v, want daily loss message", err)
	}
	if !e.IsKillSwitchActive() {
		t.Error("daily-loss breach must trip the kill-switch")
	}
}

func TestKillSwitchShortCircuitsAndSticks(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	e.ActivateKillSwitch("manual halt")
	err := e.PreTradeValidate("BTCUSDT", types.Long, d("100"), d("1"), d("2"))
	if !errs.IsKind(err, errs.KindRisk) {
		t.Fatalf("want risk error while halted, got %v", err)
	}

	// First reason is preserved across later activations.
	e.ActivateKillSwitch("second reason")
	if e.KillSwitchReason() != "manual halt" {
		t.Errorf("reason = %q, want the first activation's", e.KillSwitchReason())
	}

	e.DeactivateKillSwitch()
	if e.IsKillSwitchActive() || e.KillSwitchReason() != "" {
		t.Error("deactivation should fully re-arm")
	}
	if err := e.PreTradeValidate("BTCUSDT", types.Long, d("100"), d("1"), d("2")); err != nil {
		t.Errorf("trading should resume after deactivation: %v", err)
	}
}

func TestUpdatePriceTripsOnDailyLossBreach(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("10000"), d("0.2"), d("9000"), 1000); err != nil {
		t.Fatal(err)
	}

	// Crash the price so the mark-to-market loss tops the 1000 limit.
	if err := e.UpdatePrice("BTCUSDT", d("4000")); err != nil {
		t.Fatal(err)
	}

	// Loss = 0.2 × 6000 = 1200 > the 1000 limit.
	if !e.DailyLoss().Equal(d("1200")) {
		t.Errorf("daily loss = %s, want 1200", e.DailyLoss())
	}
	if !e.IsKillSwitchActive() {
		t.Error("daily-loss breach on a price update must trip the kill-switch")
	}
	if e.KillSwitchReason() != "Daily loss limit exceeded" {
		t.Errorf("reason = %q", e.KillSwitchReason())
	}
}

func TestDailyLossResetsWhenEquityRecovers(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("100"), d("1"), d("90"), 1000); err != nil {
		t.Fatal(err)
	}

	if err := e.UpdatePrice("BTCUSDT", d("95")); err != nil {
		t.Fatal(err)
	}
	if !e.DailyLoss().Equal(d("5")) {
		t.Errorf("daily loss = %s, want 5", e.DailyLoss())
	}

	if err := e.UpdatePrice("BTCUSDT", d("101")); err != nil {
		t.Fatal(err)
	}
	if !e.DailyLoss().IsZero() {
		t.Errorf("daily loss = %s, want 0 once equity ≥ balance", e.DailyLoss())
	}
}

func TestPeakEquityIsMonotone(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("100"), d("1"), d("90"), 1000); err != nil {
		t.Fatal(err)
	}

	if err := e.UpdatePrice("BTCUSDT", d("150")); err != nil {
		t.Fatal(err)
	}
	if !e.PeakEquity().Equal(d("10050")) {
		t.Errorf("peak = %s, want 10050", e.PeakEquity())
	}

	if err := e.UpdatePrice("BTCUSDT", d("120")); err != nil {
		t.Fatal(err)
	}
	if !e.PeakEquity().Equal(d("10050")) {
		t.Errorf("peak = %s, want unchanged 10050", e.PeakEquity())
	}
	if !e.Drawdown().Equal(d("30")) {
		t.Errorf("drawdown = %s, want 30", e.Drawdown())
	}
}

func TestRecordTradeCloseAppliesPnLToBalance(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("100"), d("2"), d("90"), 1000); err != nil {
		t.Fatal(err)
	}

	pnl, err := e.RecordTradeClose("BTCUSDT", d("110"))
	if err != nil {
		t.Fatalf("RecordTradeClose: %v", err)
	}
	if !pnl.Equal(d("20")) {
		t.Errorf("pnl = %s, want 20", pnl)
	}
	if !e.AccountBalance().Equal(d("10020")) {
		t.Errorf("balance = %s, want 10020", e.AccountBalance())
	}
	if e.OpenPositions() != 0 {
		t.Error("closed position should leave the book")
	}
}

func TestLiquidateAll(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("100"), d("1"), d("90"), 1000); err != nil {
		t.Fatal(err)
	}
	if err := e.RecordTradeOpen("ETHUSDT", types.Short, d("50"), d("2"), d("55"), 1000); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdatePrice("BTCUSDT", d("95")); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdatePrice("ETHUSDT", d("48")); err != nil {
		t.Fatal(err)
	}

	closed := e.LiquidateAll()
	if len(closed) != 2 {
		t.Fatalf("closed %d, want 2", len(closed))
	}
	// BTC: −5, ETH short: +4 → balance 10000 − 5 + 4.
	if !e.AccountBalance().Equal(d("9999")) {
		t.Errorf("balance = %s, want 9999", e.AccountBalance())
	}
	if e.OpenPositions() != 0 {
		t.Error("liquidation should drain the book")
	}
}

func TestExposureMonotoneUnderOpens(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	prev := e.Portfolio().Exposure()
	symbols := []string{"AAAUSDT", "BBBUSDT", "CCCUSDT"}
	for _, s := range symbols {
		if err := e.PreTradeValidate(s, types.Long, d("10"), d("1"), d("1")); err != nil {
			t.Fatalf("validate %s: %v", s, err)
		}
		if err := e.RecordTradeOpen(s, types.Long, d("10"), d("1"), d("9"), 1000); err != nil {
			t.Fatalf("open %s: %v", s, err)
		}
		cur := e.Portfolio().Exposure()
		if cur.LessThan(prev) {
			t.Fatalf("exposure decreased: %s → %s", prev, cur)
		}
		prev = cur
		if e.OpenPositions() > e.Limits().MaxOpenPositions {
			t.Fatal("open positions exceeded the cap")
		}
	}
}

func TestSnapshotConsistency(t *testing.T) {
	t.Parallel()
	e := newBalancedEngine(t)

	if err := e.RecordTradeOpen("BTCUSDT", types.Long, d("100"), d("1"), d("90"), 1000); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdatePrice("BTCUSDT", d("110")); err != nil {
		t.Fatal(err)
	}

	snap := e.Snapshot()
	if !snap.Equity.Equal(d("10010")) {
		t.Errorf("snapshot equity = %s, want 10010", snap.Equity)
	}
	if !snap.Exposure.Equal(d("100")) {
		t.Errorf("snapshot exposure = %s, want 100", snap.Exposure)
	}
	if snap.OpenPositions != 1 || snap.KillSwitchActive {
		t.Errorf("snapshot = %+v", snap)
	}
}

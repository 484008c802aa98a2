package marketdata

import (
	"testing"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

func tick(symbol, price string, ts uint64) types.PriceEvent {
	return types.NewPriceEventAt(symbol, money.MustParse(price), money.FromInt(1), ts)
}

func TestMonitorAcceptsFirstTick(t *testing.T) {
	t.Parallel()
	m := NewMonitor(60000)

	got, err := m.Process(tick("BTCUSDT", "50000", 1000))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got == nil {
		t.Fatal("first tick for a symbol should be accepted")
	}
}

func TestMonitorDropsDuplicate(t *testing.T) {
	t.Parallel()
	m := NewMonitor(60000)

	first := tick("BTCUSDT", "50000", 1000)
	if got, err := m.Process(first); err != nil || got == nil {
		t.Fatalf("first Process = (%v, %v), want accepted", got, err)
	}

	// Same price, same timestamp: a retransmission.
	got, err := m.Process(tick("BTCUSDT", "50000", 1000))
	if err != nil {
		t.Fatalf("duplicate Process: %v", err)
	}
	if got != nil {
		t.Error("duplicate should return nil")
	}

	// State is unchanged: a fresh in-range tick still measures from t=1000.
	if got, err := m.Process(tick("BTCUSDT", "50001", 2000)); err != nil || got == nil {
		t.Errorf("follow-up tick = (%v, %v), want accepted", got, err)
	}
}

func TestMonitorRejectsGap(t *testing.T) {
	t.Parallel()
	m := NewMonitor(60000)

	if _, err := m.Process(tick("BTCUSDT", "50000", 1000)); err != nil {
		t.Fatal(err)
	}

	_, err := m.Process(tick("BTCUSDT", "50100", 70000))
	if !errs.IsKind(err, errs.KindMarketData) {
		t.Fatalf("gap should fail with a market-data error, got %v", err)
	}

	// The gap must not advance state: a tick within range of the ORIGINAL
	// record is accepted, one within range of the rejected tick is not.
	if got, err := m.Process(tick("BTCUSDT", "50050", 30000)); err != nil || got == nil {
		t.Errorf("tick in range of retained state = (%v, %v), want accepted", got, err)
	}
}

func TestMonitorExactThresholdIsNotAGap(t *testing.T) {
	t.Parallel()
	m := NewMonitor(60000)

	if _, err := m.Process(tick("BTCUSDT", "50000", 1000)); err != nil {
		t.Fatal(err)
	}
	if got, err := m.Process(tick("BTCUSDT", "50100", 61000)); err != nil || got == nil {
		t.Errorf("delta == threshold should be accepted, got (%v, %v)", got, err)
	}
}

func TestMonitorAcceptsLateCorrection(t *testing.T) {
	t.Parallel()
	m := NewMonitor(60000)

	if _, err := m.Process(tick("BTCUSDT", "50000", 1000)); err != nil {
		t.Fatal(err)
	}

	// Same timestamp but a different price is not a duplicate.
	got, err := m.Process(tick("BTCUSDT", "50005", 1000))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got == nil {
		t.Error("price change at the same timestamp should be accepted")
	}
}

func TestMonitorTracksSymbolsIndependently(t *testing.T) {
	t.Parallel()
	m := NewMonitor(60000)

	if _, err := m.Process(tick("BTCUSDT", "50000", 1000)); err != nil {
		t.Fatal(err)
	}

	// A first ETH tick far in the future is fine: no prior record.
	if got, err := m.Process(tick("ETHUSDT", "3000", 500000)); err != nil || got == nil {
		t.Errorf("other symbol's first tick = (%v, %v), want accepted", got, err)
	}
}

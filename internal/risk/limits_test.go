package risk

import (
	"testing"

	"crypto-trader/pkg/errs"
)

func TestProfileParams(t *testing.T) {
	t.Parallel()

	balanced := Balanced.Params()
	if !balanced.MaxRiskPerTrade.Equal(d("2")) {
		t.Errorf("balanced risk per trade = %s, want 2", balanced.MaxRiskPerTrade)
	}
	if !balanced.MaxDailyLoss.Equal(d("10")) {
		t.Errorf("balanced daily loss = %s, want 10", balanced.MaxDailyLoss)
	}
	if !balanced.MaxLeverage.Equal(d("1.5")) {
		t.Errorf("balanced leverage = %s, want 1.5", balanced.MaxLeverage)
	}
	if balanced.MaxOpenPositions != 5 {
		t.Errorf("balanced max open = %d, want 5", balanced.MaxOpenPositions)
	}

	if Conservative.Params().MaxOpenPositions != 3 {
		t.Error("conservative should allow 3 positions")
	}
	if Aggressive.Params().MaxOpenPositions != 10 {
		t.Error("aggressive should allow 10 positions")
	}
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"conservative", "balanced", "aggressive"} {
		if _, err := ParseProfile(name); err != nil {
			t.Errorf("ParseProfile(%q): %v", name, err)
		}
	}
	if _, err := ParseProfile("yolo"); !errs.IsKind(err, errs.KindConfig) {
		t.Errorf("unknown profile should be a config error, got %v", err)
	}
}

func TestLimitsFromParams(t *testing.T) {
	t.Parallel()

	limits, err := LimitsFromParams(d("10000"), Balanced.Params())
	if err != nil {
		t.Fatalf("LimitsFromParams: %v", err)
	}

	if !limits.MaxDailyLoss.Equal(d("1000")) {
		t.Errorf("max daily loss = %s, want 1000 (10%% of 10000)", limits.MaxDailyLoss)
	}
	if !limits.MaxPositionSize.Equal(d("200")) {
		t.Errorf("max position size = %s, want 200 (2%% of 10000)", limits.MaxPositionSize)
	}
	if !limits.MaxDrawdown.Equal(d("2000")) {
		t.Errorf("max drawdown = %s, want 2000", limits.MaxDrawdown)
	}
	if limits.MaxOpenPositions != 5 {
		t.Errorf("max open = %d, want 5", limits.MaxOpenPositions)
	}

	if _, err := LimitsFromParams(d("0"), Balanced.Params()); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("zero balance should be rejected, got %v", err)
	}
}

func TestNewLimitsValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                           string
		dailyLoss, posSize, lev string
		maxOpen                        int
	}{
		{"non-positive daily loss", "0", "200", "1.5", 5},
		{"non-positive position size", "1000", "-1", "1.5", 5},
		{"leverage below one", "1000", "200", "0.5", 5},
		{"zero open positions", "1000", "200", "1.5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLimits(d(tt.dailyLoss), d(tt.posSize), d("2000"), d(tt.lev), tt.maxOpen)
			if !errs.IsKind(err, errs.KindValidation) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}
}

func TestLimitPredicates(t *testing.T) {
	t.Parallel()

	limits, err := NewLimits(d("1000"), d("200"), d("2000"), d("1.5"), 2)
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := limits.IsDailyLossExceeded(d("1000")); got {
		t.Error("loss equal to the limit is not a breach")
	}
	if got, _ := limits.IsDailyLossExceeded(d("1000.00000001")); !got {
		t.Error("loss above the limit is a breach")
	}
	if _, err := limits.IsDailyLossExceeded(d("-1")); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("negative loss should be rejected, got %v", err)
	}

	if got, _ := limits.IsPositionTooLarge(d("200")); got {
		t.Error("notional at the cap is allowed")
	}
	if got, _ := limits.IsPositionTooLarge(d("201")); !got {
		t.Error("notional above the cap is too large")
	}

	if got, _ := limits.IsLeverageExceeded(d("1.5")); got {
		t.Error("leverage at the cap is allowed")
	}
	if got, _ := limits.IsLeverageExceeded(d("1.51")); !got {
		t.Error("leverage above the cap is a breach")
	}

	if !limits.CanOpenNewPosition(1) {
		t.Error("1 of 2 slots used should allow opening")
	}
	if limits.CanOpenNewPosition(2) {
		t.Error("2 of 2 slots used should block opening")
	}
}

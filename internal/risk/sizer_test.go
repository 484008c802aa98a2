package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
)

func d(s string) decimal.Decimal { return money.MustParse(s) }

func TestSizeFromRisk(t *testing.T) {
	t.Parallel()

	// 2% of 10000 = 200 at risk; stop 50 away → 4 units.
	size, err := SizeFromRisk(d("10000"), d("2"), d("50"))
	if err != nil {
		t.Fatalf("SizeFromRisk: %v", err)
	}
	if !size.Equal(d("4")) {
		t.Errorf("size = %s, want 4", size)
	}
}

func TestSizeFromRiskRoundsToEightPlaces(t *testing.T) {
	t.Parallel()

	// 100 at risk over a stop of 3 → 33.33333333 (banker's at 8 places).
	size, err := SizeFromRisk(d("10000"), d("1"), d("3"))
	if err != nil {
		t.Fatalf("SizeFromRisk: %v", err)
	}
	if size.String() != "33.33333333" {
		t.Errorf("size = %s, want 33.33333333", size)
	}
}

func TestSizeFromRiskValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                     string
		balance, riskPct, stopDistance string
	}{
		{"zero balance", "0", "2", "50"},
		{"negative balance", "-1", "2", "50"},
		{"zero risk", "10000", "0", "50"},
		{"risk above 100", "10000", "101", "50"},
		{"zero stop", "10000", "2", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SizeFromRisk(d(tt.balance), d(tt.riskPct), d(tt.stopDistance))
			if !errs.IsKind(err, errs.KindValidation) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}
}

func TestMaxSizeFromPct(t *testing.T) {
	t.Parallel()

	size, err := MaxSizeFromPct(d("10000"), d("2"))
	if err != nil {
		t.Fatalf("MaxSizeFromPct: %v", err)
	}
	if !size.Equal(d("200")) {
		t.Errorf("max size = %s, want 200", size)
	}

	if _, err := MaxSizeFromPct(d("10000"), d("150")); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("pct above 100 should be rejected, got %v", err)
	}
}

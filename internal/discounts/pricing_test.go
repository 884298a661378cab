package discounts

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

func TestParsePlanMonths(t *testing.T) {
	cases := []struct {
		label string
		want  int
	}{
		{"1_month", 1},
		{"3_month", 3},
		{"12-months", 12},
		{"monthly", 1},
		{"", 1},
		{"gold_6m_plan", 6},
	}
	for _, tc := range cases {
		if got := ParsePlanMonths(tc.label); got != tc.want {
			t.Errorf("ParsePlanMonths(%q) = %d, want %d", tc.label, got, tc.want)
		}
	}
}

func TestQuotePercent(t *testing.T) {
	code := &models.DiscountCode{
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(20),
	}
	amount := decimal.NewFromInt(100000)

	discount, final, percent := Quote(code, amount)
	if !discount.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("discount = %s, want 20000", discount)
	}
	if !final.Equal(decimal.NewFromInt(80000)) {
		t.Fatalf("final = %s, want 80000", final)
	}
	if percent != 20 {
		t.Fatalf("percent = %d, want 20", percent)
	}
}

func TestQuotePercentFloorsFractionalValue(t *testing.T) {
	code := &models.DiscountCode{
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.RequireFromString("15.9"),
	}
	discount, _, percent := Quote(code, decimal.NewFromInt(1000))
	if percent != 15 {
		t.Fatalf("percent = %d, want 15", percent)
	}
	if !discount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("discount = %s, want 150", discount)
	}
}

func TestQuoteFixedCappedAtAmount(t *testing.T) {
	code := &models.DiscountCode{
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(50000),
	}
	amount := decimal.NewFromInt(30000)

	discount, final, percent := Quote(code, amount)
	if !discount.Equal(amount) {
		t.Fatalf("discount = %s, want capped at 30000", discount)
	}
	if !final.IsZero() {
		t.Fatalf("final = %s, want 0", final)
	}
	if percent != 100 {
		t.Fatalf("percent = %d, want 100", percent)
	}
}

func TestQuoteFixedZeroAmount(t *testing.T) {
	code := &models.DiscountCode{
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(500),
	}
	discount, final, percent := Quote(code, decimal.Zero)
	if !discount.IsZero() || !final.IsZero() {
		t.Fatalf("discount = %s final = %s, want both 0", discount, final)
	}
	if percent != 0 {
		t.Fatalf("percent = %d, want 0", percent)
	}
}

func TestCheckWindowOrder(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	before := now.Add(24 * time.Hour)
	after := now.Add(-24 * time.Hour)

	notStarted := &models.DiscountCode{ValidFrom: &before, MaxUses: 1, UsedCount: 1}
	if err := CheckWindow(notStarted, now); !errors.Is(err, ErrCodeNotStarted) {
		t.Fatalf("expected ErrCodeNotStarted, got %v", err)
	}

	expired := &models.DiscountCode{ValidUntil: &after, MaxUses: 1, UsedCount: 1}
	if err := CheckWindow(expired, now); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	exhausted := &models.DiscountCode{MaxUses: 3, UsedCount: 3}
	if err := CheckWindow(exhausted, now); !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got %v", err)
	}

	unlimited := &models.DiscountCode{MaxUses: 0, UsedCount: 99}
	if err := CheckWindow(unlimited, now); err != nil {
		t.Fatalf("expected nil for unlimited code, got %v", err)
	}
}

func TestCheckPlanBounds(t *testing.T) {
	code := &models.DiscountCode{MinMonths: 3, MaxMonths: 6}

	err := CheckPlan(code, "1_month")
	var planErr *PlanNotEligibleError
	if !errors.As(err, &planErr) {
		t.Fatalf("expected PlanNotEligibleError, got %v", err)
	}
	if planErr.MinMonths != 3 || planErr.MaxMonths != 6 {
		t.Fatalf("bounds = %d..%d, want 3..6", planErr.MinMonths, planErr.MaxMonths)
	}

	if err := CheckPlan(code, "3_month"); err != nil {
		t.Fatalf("expected 3_month to be eligible, got %v", err)
	}
	if err := CheckPlan(code, "6_month"); err != nil {
		t.Fatalf("expected 6_month to be eligible, got %v", err)
	}
}

package discounts

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

// Eligibility failures, reported in a fixed order so the user always sees
// the first applicable reason.
var (
	ErrInvalidCode      = errors.New("discount code not found")
	ErrCodeNotStarted   = errors.New("discount code is not active yet")
	ErrCodeExpired      = errors.New("discount code has expired")
	ErrCodeExhausted    = errors.New("discount code has reached its usage limit")
	ErrUserLimitReached = errors.New("you have already used this discount code")
)

// PlanNotEligibleError reports the allowed duration bounds of the code.
type PlanNotEligibleError struct {
	MinMonths int
	MaxMonths int
}

func (e *PlanNotEligibleError) Error() string {
	return fmt.Sprintf("discount code is only valid for plans between %d and %d months", e.MinMonths, e.MaxMonths)
}

var planMonthsRe = regexp.MustCompile(`\d+`)

// ParsePlanMonths extracts the duration in months from a plan label such as
// "3_month" or "12-months". The first run of digits wins; labels without
// digits count as one month.
func ParsePlanMonths(planLabel string) int {
	m := planMonthsRe.FindString(planLabel)
	if m == "" {
		return 1
	}
	months, err := strconv.Atoi(m)
	if err != nil || months < 1 {
		return 1
	}
	return months
}

// CheckWindow verifies the validity window and global exhaustion of a code
// against the given instant.
func CheckWindow(code *models.DiscountCode, now time.Time) error {
	if code.ValidFrom != nil && now.Before(*code.ValidFrom) {
		return ErrCodeNotStarted
	}
	if code.ValidUntil != nil && now.After(*code.ValidUntil) {
		return ErrCodeExpired
	}
	if code.MaxUses > 0 && code.UsedCount >= code.MaxUses {
		return ErrCodeExhausted
	}
	return nil
}

// CheckPlan verifies the plan duration against the code's month bounds.
func CheckPlan(code *models.DiscountCode, planLabel string) error {
	months := ParsePlanMonths(planLabel)
	if months < code.MinMonths || months > code.MaxMonths {
		return &PlanNotEligibleError{MinMonths: code.MinMonths, MaxMonths: code.MaxMonths}
	}
	return nil
}

var oneHundred = decimal.NewFromInt(100)

// Quote computes the discounted price for an eligible code. It never writes.
func Quote(code *models.DiscountCode, amount decimal.Decimal) (discountAmount, finalAmount decimal.Decimal, percent int) {
	switch code.DiscountType {
	case enums.DiscountTypeFixed:
		discountAmount = code.DiscountValue
		if discountAmount.GreaterThan(amount) {
			discountAmount = amount
		}
		if amount.IsPositive() {
			percent = int(discountAmount.Div(amount).Mul(oneHundred).Round(0).IntPart())
		}
	default:
		percent = int(code.DiscountValue.Floor().IntPart())
		discountAmount = amount.Mul(decimal.NewFromInt(int64(percent))).Div(oneHundred).Round(2)
	}

	finalAmount = amount.Sub(discountAmount)
	if finalAmount.IsNegative() {
		finalAmount = decimal.Zero
	}
	return discountAmount, finalAmount, percent
}

package discounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
)

// PricingOutcome is the result of a successful eligibility check. It carries
// everything a purchase needs to snapshot the discount onto the subscription.
type PricingOutcome struct {
	DiscountCodeID  uuid.UUID       `json:"discount_code_id"`
	Code            string          `json:"code"`
	Description     string          `json:"description"`
	DiscountPercent int             `json:"discount_percent"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
}

// CreateCodeDTO carries a new code definition.
type CreateCodeDTO struct {
	Code          string
	Description   string
	DiscountType  string
	DiscountValue decimal.Decimal
	MaxUses       int
	MinMonths     int
	MaxMonths     int
	PerUserLimit  int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
}

// UpdateCodeDTO carries a partial update; nil fields are left untouched.
type UpdateCodeDTO struct {
	Code          *string
	Description   *string
	DiscountType  *string
	DiscountValue *decimal.Decimal
	MaxUses       *int
	MinMonths     *int
	MaxMonths     *int
	PerUserLimit  *int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	IsActive      *bool
}

// CodeStatsDTO aggregates a code's ledger history.
type CodeStatsDTO struct {
	TotalUses     int64                  `json:"total_uses"`
	TotalDiscount decimal.Decimal        `json:"total_discount"`
	TotalRevenue  decimal.Decimal        `json:"total_revenue"`
	DistinctUsers int64                  `json:"distinct_users"`
	RecentUsages  []models.DiscountUsage `json:"recent_usages"`
}

package subscriptions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

// RequestDTO carries a new purchase request.
type RequestDTO struct {
	PlanType     string
	Amount       decimal.Decimal
	PaymentProof string
	TxHash       string
	DiscountCode string
}

// UpdateStatusDTO carries an explicit admin status override.
type UpdateStatusDTO struct {
	Status    string
	AdminNote *string
}

// SubscriptionDTO is the JSON shape of a subscription row.
type SubscriptionDTO struct {
	ID              uuid.UUID                 `json:"id"`
	UserID          uuid.UUID                 `json:"user_id"`
	PlanType        string                    `json:"plan_type"`
	Amount          decimal.Decimal           `json:"amount"`
	OriginalAmount  decimal.Decimal           `json:"original_amount"`
	DiscountCode    *string                   `json:"discount_code,omitempty"`
	DiscountAmount  decimal.Decimal           `json:"discount_amount"`
	DiscountPercent int                       `json:"discount_percent"`
	Status          enums.SubscriptionStatus  `json:"status"`
	AdminNote       *string                   `json:"admin_note,omitempty"`
	PreviousStatus  *enums.SubscriptionStatus `json:"previous_status,omitempty"`
	IsRenewal       bool                      `json:"is_renewal"`
	ApprovedAt      *time.Time                `json:"approved_at,omitempty"`
	StartedAt       *time.Time                `json:"started_at,omitempty"`
	ExpiresAt       *time.Time                `json:"expires_at,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// StatusSummaryDTO answers "where does this user stand" in one call.
type StatusSummaryDTO struct {
	HasActive    bool             `json:"has_active"`
	Active       *SubscriptionDTO `json:"active,omitempty"`
	Pending      *SubscriptionDTO `json:"pending,omitempty"`
	LastRejected *SubscriptionDTO `json:"last_rejected,omitempty"`
}

// AdminListFilter narrows the admin listing.
type AdminListFilter struct {
	Status *enums.SubscriptionStatus
	Cursor string
	Limit  int
}

// SubscriptionsPageDTO is one page of the admin listing.
type SubscriptionsPageDTO struct {
	Items      []SubscriptionDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// StatsDTO aggregates the admin dashboard numbers.
type StatsDTO struct {
	TotalsByStatus map[string]int64 `json:"totals_by_status"`
	ActiveCount    int64            `json:"active_count"`
	TodayRequests  int64            `json:"today_requests"`
	RecentRevenue  decimal.Decimal  `json:"recent_revenue"`
}

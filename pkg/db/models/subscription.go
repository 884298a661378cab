package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

// Subscription is a manually-verified subscription purchase. The discount
// snapshot fields (DiscountCode, DiscountAmount, DiscountPercent) are
// denormalized so the row stays meaningful after the code definition is
// deleted; DiscountCodeID is the referential link used by the ledger.
type Subscription struct {
	ID              uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	PlanType        string                    `gorm:"column:plan_type;not null;default:'monthly'"`
	Amount          decimal.Decimal           `gorm:"column:amount;type:numeric(14,2);not null"`
	OriginalAmount  decimal.Decimal           `gorm:"column:original_amount;type:numeric(14,2);not null"`
	DiscountCodeID  *uuid.UUID                `gorm:"column:discount_code_id;type:uuid;index"`
	DiscountCode    *string                   `gorm:"column:discount_code"`
	DiscountAmount  decimal.Decimal           `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	DiscountPercent int                       `gorm:"column:discount_percent;not null;default:0"`
	PaymentProof    string                    `gorm:"column:payment_proof"`
	TxHash          *string                   `gorm:"column:tx_hash;uniqueIndex"`
	Status          enums.SubscriptionStatus  `gorm:"column:status;not null;default:'pending';index"`
	AdminNote       *string                   `gorm:"column:admin_note"`
	PreviousStatus  *enums.SubscriptionStatus `gorm:"column:previous_status"`
	PreviousNote    *string                   `gorm:"column:previous_note"`
	ApprovedBy      *uuid.UUID                `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time                `gorm:"column:approved_at"`
	StartedAt       *time.Time                `gorm:"column:started_at"`
	ExpiresAt       *time.Time                `gorm:"column:expires_at;index"`
	IsRenewal       bool                      `gorm:"column:is_renewal;not null;default:false"`
	ReminderSentAt  *time.Time                `gorm:"column:reminder_sent_at"`
	WinbackSentAt   *time.Time                `gorm:"column:winback_sent_at"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

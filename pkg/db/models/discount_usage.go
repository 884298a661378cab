package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountUsage is one ledger entry: a single discounted purchase.
// Entries are append-only; they are deleted only when the purchase is
// rejected or permanently removed, never mutated in place.
type DiscountUsage struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DiscountCodeID uuid.UUID       `gorm:"column:discount_code_id;type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	SubscriptionID *uuid.UUID      `gorm:"column:subscription_id;type:uuid;index"`
	OriginalAmount decimal.Decimal `gorm:"column:original_amount;type:numeric(14,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(14,2);not null"`
	FinalAmount    decimal.Decimal `gorm:"column:final_amount;type:numeric(14,2);not null"`
	UsedAt         time.Time       `gorm:"column:used_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

// DiscountCode defines a promotional code and its usage constraints.
// UsedCount is denormalized: it must always equal the number of ledger
// entries whose linked subscription is pending or approved, and is
// recomputed by the ledger service after every usage-affecting write.
type DiscountCode struct {
	ID            uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string                   `gorm:"column:code;not null;uniqueIndex"`
	Description   string                   `gorm:"column:description"`
	DiscountType  enums.DiscountType       `gorm:"column:discount_type;not null;default:'percent'"`
	DiscountValue decimal.Decimal          `gorm:"column:discount_value;type:numeric(14,2);not null"`
	MaxUses       int                      `gorm:"column:max_uses;not null;default:0"`
	UsedCount     int                      `gorm:"column:used_count;not null;default:0"`
	MinMonths     int                      `gorm:"column:min_months;not null;default:1"`
	MaxMonths     int                      `gorm:"column:max_months;not null;default:12"`
	PerUserLimit  int                      `gorm:"column:per_user_limit;not null;default:0"`
	ValidFrom     *time.Time               `gorm:"column:valid_from"`
	ValidUntil    *time.Time               `gorm:"column:valid_until"`
	IsActive      bool                     `gorm:"column:is_active;not null;default:true"`
	Status        enums.DiscountCodeStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

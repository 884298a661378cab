package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

// DeviceToken stores one FCM registration token. A token is globally unique;
// re-registration by another user reassigns it.
type DeviceToken struct {
	ID        uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Token     string               `gorm:"column:token;not null;uniqueIndex"`
	Platform  enums.DevicePlatform `gorm:"column:platform;not null;default:'web'"`
	IsActive  bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

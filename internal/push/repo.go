package push

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
)

// Repository handles device-token persistence.
type Repository interface {
	FindByToken(ctx context.Context, token string) (*models.DeviceToken, error)
	Save(ctx context.Context, record *models.DeviceToken) error
	Create(ctx context.Context, record *models.DeviceToken) error
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error)
	DeactivateToken(ctx context.Context, token string) error
	DeactivateOldest(ctx context.Context, userID uuid.UUID, keep int) error
	DeleteByUserAndToken(ctx context.Context, userID uuid.UUID, token string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a device-token repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.DeviceToken, error) {
	var record models.DeviceToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Save(ctx context.Context, record *models.DeviceToken) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) Create(ctx context.Context, record *models.DeviceToken) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	var records []models.DeviceToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) DeactivateToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.DeviceToken{}).
		Where("token = ?", token).
		UpdateColumn("is_active", false).Error
}

// DeactivateOldest keeps the newest `keep` active tokens for a user and
// deactivates the rest.
func (r *repository) DeactivateOldest(ctx context.Context, userID uuid.UUID, keep int) error {
	active, err := r.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(active) <= keep {
		return nil
	}
	var stale []uuid.UUID
	for _, record := range active[keep:] {
		stale = append(stale, record.ID)
	}
	return r.db.WithContext(ctx).
		Model(&models.DeviceToken{}).
		Where("id IN ?", stale).
		UpdateColumn("is_active", false).Error
}

func (r *repository) DeleteByUserAndToken(ctx context.Context, userID uuid.UUID, token string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.DeviceToken{})
	return res.RowsAffected, res.Error
}

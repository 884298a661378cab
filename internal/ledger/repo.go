package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

// Repository handles usage-ledger persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Insert(ctx context.Context, entry *models.DiscountUsage) error
	DeleteByKeys(ctx context.Context, codeID, userID, subscriptionID uuid.UUID) (int64, error)
	DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) (int64, error)
	FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.DiscountUsage, error)
	CountActiveByCode(ctx context.Context, codeID uuid.UUID) (int64, error)
	SetUsedCount(ctx context.Context, codeID uuid.UUID, count int64) error
	CodeIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, entry *models.DiscountUsage) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) DeleteByKeys(ctx context.Context, codeID, userID, subscriptionID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("discount_code_id = ? AND user_id = ? AND subscription_id = ?", codeID, userID, subscriptionID).
		Delete(&models.DiscountUsage{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Delete(&models.DiscountUsage{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.DiscountUsage, error) {
	var entry models.DiscountUsage
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountActiveByCode counts ledger entries whose linked subscription is
// pending or approved. This join is the source of truth for used_count.
func (r *repository) CountActiveByCode(ctx context.Context, codeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscountUsage{}).
		Joins("JOIN subscriptions ON subscriptions.id = discount_usages.subscription_id").
		Where("discount_usages.discount_code_id = ?", codeID).
		Where("subscriptions.status IN ?", []enums.SubscriptionStatus{enums.SubscriptionStatusPending, enums.SubscriptionStatusApproved}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) SetUsedCount(ctx context.Context, codeID uuid.UUID, count int64) error {
	return r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ?", codeID).
		UpdateColumn("used_count", count).Error
}

func (r *repository) CodeIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("status <> ?", enums.DiscountCodeStatusTrashed).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

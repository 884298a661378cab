package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
	"github.com/dmagan/asadmindset-admin/pkg/pagination"
)

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error)
	FindLastRejectedByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindByTxHash(ctx context.Context, txHash string) (*models.Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error)
	ListAdmin(ctx context.Context, filter AdminListFilter) ([]models.Subscription, error)
	ListExpiredDue(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error)
	ListDueForReminder(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]models.Subscription, error)
	ListWinbackCandidates(ctx context.Context, oldest, newest time.Time, limit int) ([]models.Subscription, error)
	Stats(ctx context.Context, now time.Time) (StatsDTO, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a subscriptions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Subscription{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.SubscriptionStatusPending).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindActiveByUser returns the user's approved subscription that has not run
// out yet, preferring the latest expiry.
func (r *repository) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)", userID, enums.SubscriptionStatusApproved, now).
		Order("expires_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindLastRejectedByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.SubscriptionStatusRejected).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindByTxHash(ctx context.Context, txHash string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("tx_hash = ?", txHash).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, enums.SubscriptionStatusTrashed).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListAdmin(ctx context.Context, filter AdminListFilter) ([]models.Subscription, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if cursor, err := pagination.ParseCursor(filter.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var subs []models.Subscription
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListExpiredDue(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", enums.SubscriptionStatusApproved, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListDueForReminder(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent_at IS NULL", enums.SubscriptionStatusApproved).
		Where("expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?", now, now.Add(lead)).
		Order("expires_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListWinbackCandidates(ctx context.Context, oldest, newest time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND winback_sent_at IS NULL", enums.SubscriptionStatusExpired).
		Where("expires_at IS NOT NULL AND expires_at >= ? AND expires_at <= ?", oldest, newest).
		Order("expires_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

type revenueRow struct {
	Total decimal.NullDecimal
}

func (r *repository) Stats(ctx context.Context, now time.Time) (StatsDTO, error) {
	stats := StatsDTO{
		TotalsByStatus: map[string]int64{},
		RecentRevenue:  decimal.Zero,
	}

	type statusRow struct {
		Status string
		Total  int64
	}
	var rows []statusRow
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return StatsDTO{}, err
	}
	for _, row := range rows {
		stats.TotalsByStatus[row.Status] = row.Total
	}

	err = r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND (expires_at IS NULL OR expires_at > ?)", enums.SubscriptionStatusApproved, now).
		Count(&stats.ActiveCount).Error
	if err != nil {
		return StatsDTO{}, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("created_at >= ?", dayStart).
		Count(&stats.TodayRequests).Error
	if err != nil {
		return StatsDTO{}, err
	}

	var revenue revenueRow
	err = r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("SUM(amount) AS total").
		Where("status = ? AND approved_at >= ?", enums.SubscriptionStatusApproved, now.AddDate(0, 0, -30)).
		Scan(&revenue).Error
	if err != nil {
		return StatsDTO{}, err
	}
	if revenue.Total.Valid {
		stats.RecentRevenue = revenue.Total.Decimal
	}

	return stats, nil
}

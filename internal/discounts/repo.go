package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

// Repository handles discount-code persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, code *models.DiscountCode) error
	Update(ctx context.Context, code *models.DiscountCode) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	FindUsableByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	List(ctx context.Context, includeTrashed bool) ([]models.DiscountCode, error)
	ConsumeSlot(ctx context.Context, id uuid.UUID) (bool, error)
	CountActiveUsagesByUser(ctx context.Context, codeID, userID uuid.UUID) (int64, error)
	DeleteUsagesByCode(ctx context.Context, codeID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, codeID uuid.UUID, recentLimit int) (CodeStatsDTO, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discount-code repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, code *models.DiscountCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) Update(ctx context.Context, code *models.DiscountCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.db.WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// FindByCode matches the normalized code string against every stored
// definition, trashed ones included. Used for uniqueness checks.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var record models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindUsableByCode matches only definitions a purchase may apply: active and
// not trashed.
func (r *repository) FindUsableByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var record models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ? AND status <> ?", strings.ToUpper(code), true, enums.DiscountCodeStatusTrashed).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, includeTrashed bool) ([]models.DiscountCode, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if !includeTrashed {
		query = query.Where("status <> ?", enums.DiscountCodeStatusTrashed)
	}
	var codes []models.DiscountCode
	if err := query.Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// ConsumeSlot atomically claims one usage slot. Returns false when the code
// is already exhausted; the compare-and-swap form keeps two concurrent
// purchases from both taking the last slot.
func (r *repository) ConsumeSlot(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND (max_uses = 0 OR used_count < max_uses)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountActiveUsagesByUser counts the user's ledger entries whose linked
// subscription still occupies a slot.
func (r *repository) CountActiveUsagesByUser(ctx context.Context, codeID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscountUsage{}).
		Joins("JOIN subscriptions ON subscriptions.id = discount_usages.subscription_id").
		Where("discount_usages.discount_code_id = ? AND discount_usages.user_id = ?", codeID, userID).
		Where("subscriptions.status IN ?", []enums.SubscriptionStatus{enums.SubscriptionStatusPending, enums.SubscriptionStatusApproved}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) DeleteUsagesByCode(ctx context.Context, codeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("discount_code_id = ?", codeID).
		Delete(&models.DiscountUsage{}).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.DiscountCode{}, "id = ?", id).Error
}

type statsRow struct {
	TotalUses     int64
	TotalDiscount decimal.NullDecimal
	TotalRevenue  decimal.NullDecimal
	DistinctUsers int64
}

func (r *repository) Stats(ctx context.Context, codeID uuid.UUID, recentLimit int) (CodeStatsDTO, error) {
	var row statsRow
	err := r.db.WithContext(ctx).
		Model(&models.DiscountUsage{}).
		Select(
			"COUNT(*) AS total_uses, " +
				"SUM(discount_amount) AS total_discount, " +
				"SUM(final_amount) AS total_revenue, " +
				"COUNT(DISTINCT user_id) AS distinct_users",
		).
		Where("discount_code_id = ?", codeID).
		Scan(&row).Error
	if err != nil {
		return CodeStatsDTO{}, err
	}

	if recentLimit <= 0 {
		recentLimit = 10
	}
	var recent []models.DiscountUsage
	err = r.db.WithContext(ctx).
		Where("discount_code_id = ?", codeID).
		Order("used_at DESC").
		Limit(recentLimit).
		Find(&recent).Error
	if err != nil {
		return CodeStatsDTO{}, err
	}

	stats := CodeStatsDTO{
		TotalUses:     row.TotalUses,
		TotalDiscount: decimal.Zero,
		TotalRevenue:  decimal.Zero,
		DistinctUsers: row.DistinctUsers,
		RecentUsages:  recent,
	}
	if row.TotalDiscount.Valid {
		stats.TotalDiscount = row.TotalDiscount.Decimal
	}
	if row.TotalRevenue.Valid {
		stats.TotalRevenue = row.TotalRevenue.Decimal
	}
	return stats, nil
}

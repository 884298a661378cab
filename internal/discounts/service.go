package discounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/pkg/db"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the discount-code registry and the eligibility engine.
type Service interface {
	ApplyDiscount(ctx context.Context, code string, userID uuid.UUID, amount decimal.Decimal, planLabel string) (PricingOutcome, error)
	CreateCode(ctx context.Context, dto CreateCodeDTO) (*models.DiscountCode, error)
	UpdateCode(ctx context.Context, id uuid.UUID, dto UpdateCodeDTO) (*models.DiscountCode, error)
	GetCode(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	ListCodes(ctx context.Context, includeTrashed bool) ([]models.DiscountCode, error)
	TrashCode(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	RestoreCode(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	PermanentlyDeleteCode(ctx context.Context, id uuid.UUID) error
	CodeStats(ctx context.Context, id uuid.UUID) (CodeStatsDTO, error)
}

// ServiceParams groups dependencies for the discounts service.
type ServiceParams struct {
	Repo Repository
	Tx   txRunner
	Now  func() time.Time
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds a discounts service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discounts repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, tx: params.Tx, now: now}, nil
}

// Evaluate runs the full eligibility check for a code against the given
// repository, which may be transaction-bound. The checks run in a fixed
// order so only the first failing reason is ever reported. No writes.
func Evaluate(ctx context.Context, repo Repository, code string, userID uuid.UUID, amount decimal.Decimal, planLabel string, now time.Time) (PricingOutcome, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrInvalidCode, ErrInvalidCode.Error())
	}

	record, err := repo.FindUsableByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrInvalidCode, ErrInvalidCode.Error())
		}
		return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}

	if err := CheckWindow(record, now); err != nil {
		return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	if record.PerUserLimit > 0 {
		used, err := repo.CountActiveUsagesByUser(ctx, record.ID, userID)
		if err != nil {
			return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user discount usage")
		}
		if used >= int64(record.PerUserLimit) {
			return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrUserLimitReached, ErrUserLimitReached.Error())
		}
	}

	if err := CheckPlan(record, planLabel); err != nil {
		var planErr *PlanNotEligibleError
		if errors.As(err, &planErr) {
			return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).
				WithDetails(map[string]int{"min_months": planErr.MinMonths, "max_months": planErr.MaxMonths})
		}
		return PricingOutcome{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	discountAmount, finalAmount, percent := Quote(record, amount)
	return PricingOutcome{
		DiscountCodeID:  record.ID,
		Code:            record.Code,
		Description:     record.Description,
		DiscountPercent: percent,
		OriginalAmount:  amount,
		DiscountAmount:  discountAmount,
		FinalAmount:     finalAmount,
	}, nil
}

// ApplyDiscount quotes a code for a candidate purchase without side effects.
func (s *service) ApplyDiscount(ctx context.Context, code string, userID uuid.UUID, amount decimal.Decimal, planLabel string) (PricingOutcome, error) {
	if userID == uuid.Nil {
		return PricingOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if amount.IsNegative() {
		return PricingOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	return Evaluate(ctx, s.repo, code, userID, amount, planLabel, s.now())
}

// CreateCode validates, normalizes and persists a new code definition.
func (s *service) CreateCode(ctx context.Context, dto CreateCodeDTO) (*models.DiscountCode, error) {
	normalized, err := normalizeCode(dto.Code)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCodeAvailable(ctx, normalized, uuid.Nil); err != nil {
		return nil, err
	}

	record := &models.DiscountCode{
		ID:            uuid.New(),
		Code:          normalized,
		Description:   strings.TrimSpace(dto.Description),
		DiscountType:  enums.ParseDiscountType(dto.DiscountType),
		DiscountValue: clampNonNegative(dto.DiscountValue),
		MaxUses:       clampMin(dto.MaxUses, 0),
		MinMonths:     clampMin(dto.MinMonths, 1),
		MaxMonths:     clampMonths(dto.MaxMonths),
		PerUserLimit:  clampMin(dto.PerUserLimit, 0),
		ValidFrom:     dto.ValidFrom,
		ValidUntil:    dto.ValidUntil,
		IsActive:      true,
		Status:        enums.DiscountCodeStatusActive,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsUniqueViolation(err, "idx_discount_codes_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "discount code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount code")
	}
	return record, nil
}

// UpdateCode merges non-nil fields into the stored definition.
func (s *service) UpdateCode(ctx context.Context, id uuid.UUID, dto UpdateCodeDTO) (*models.DiscountCode, error) {
	record, err := s.loadCode(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Code != nil {
		normalized, err := normalizeCode(*dto.Code)
		if err != nil {
			return nil, err
		}
		if normalized != record.Code {
			if err := s.ensureCodeAvailable(ctx, normalized, record.ID); err != nil {
				return nil, err
			}
			record.Code = normalized
		}
	}
	if dto.Description != nil {
		record.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.DiscountType != nil {
		record.DiscountType = enums.ParseDiscountType(*dto.DiscountType)
	}
	if dto.DiscountValue != nil {
		record.DiscountValue = clampNonNegative(*dto.DiscountValue)
	}
	if dto.MaxUses != nil {
		record.MaxUses = clampMin(*dto.MaxUses, 0)
	}
	if dto.MinMonths != nil {
		record.MinMonths = clampMin(*dto.MinMonths, 1)
	}
	if dto.MaxMonths != nil {
		record.MaxMonths = clampMonths(*dto.MaxMonths)
	}
	if dto.PerUserLimit != nil {
		record.PerUserLimit = clampMin(*dto.PerUserLimit, 0)
	}
	if dto.ValidFrom != nil {
		record.ValidFrom = dto.ValidFrom
	}
	if dto.ValidUntil != nil {
		record.ValidUntil = dto.ValidUntil
	}
	if dto.IsActive != nil {
		record.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount code")
	}
	return record, nil
}

func (s *service) GetCode(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	return s.loadCode(ctx, id)
}

func (s *service) ListCodes(ctx context.Context, includeTrashed bool) ([]models.DiscountCode, error) {
	codes, err := s.repo.List(ctx, includeTrashed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discount codes")
	}
	return codes, nil
}

// TrashCode soft-deletes a definition; purchases can no longer see it but
// its ledger history stays intact.
func (s *service) TrashCode(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	record, err := s.loadCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == enums.DiscountCodeStatusTrashed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "discount code is already trashed")
	}
	record.Status = enums.DiscountCodeStatusTrashed
	record.IsActive = false
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "trash discount code")
	}
	return record, nil
}

func (s *service) RestoreCode(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	record, err := s.loadCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != enums.DiscountCodeStatusTrashed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "discount code is not trashed")
	}
	record.Status = enums.DiscountCodeStatusActive
	record.IsActive = true
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore discount code")
	}
	return record, nil
}

// PermanentlyDeleteCode removes a trashed definition and its ledger rows in
// one transaction. Ledger rows go first to respect referential integrity.
// Subscriptions keep their denormalized snapshot and are never touched.
func (s *service) PermanentlyDeleteCode(ctx context.Context, id uuid.UUID) error {
	record, err := s.loadCode(ctx, id)
	if err != nil {
		return err
	}
	if record.Status != enums.DiscountCodeStatusTrashed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only trashed discount codes can be permanently deleted")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteUsagesByCode(ctx, record.ID); err != nil {
			return err
		}
		return repo.Delete(ctx, record.ID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "permanently delete discount code")
	}
	return nil
}

func (s *service) CodeStats(ctx context.Context, id uuid.UUID) (CodeStatsDTO, error) {
	if _, err := s.loadCode(ctx, id); err != nil {
		return CodeStatsDTO{}, err
	}
	stats, err := s.repo.Stats(ctx, id, 10)
	if err != nil {
		return CodeStatsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code stats")
	}
	return stats, nil
}

func (s *service) loadCode(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}
	return record, nil
}

func (s *service) ensureCodeAvailable(ctx context.Context, code string, selfID uuid.UUID) error {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check discount code uniqueness")
	}
	if existing.ID != selfID {
		return pkgerrors.New(pkgerrors.CodeConflict, "discount code already exists")
	}
	return nil
}

func normalizeCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) < 3 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "discount code must be at least 3 characters")
	}
	return normalized, nil
}

func clampMin(value, floor int) int {
	if value < floor {
		return floor
	}
	return value
}

func clampMonths(value int) int {
	if value < 1 {
		return 12
	}
	if value > 12 {
		return 12
	}
	return value
}

func clampNonNegative(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

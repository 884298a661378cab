package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
)

// RecordUsageDTO carries one ledger insert.
type RecordUsageDTO struct {
	DiscountCodeID uuid.UUID
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// Service is the standalone audit surface over the ledger. Writes that must
// share a transaction with subscription state (record, revert, per-code
// sync) go through the free functions against a tx-bound Repository instead.
type Service interface {
	SyncAll(ctx context.Context) (int, error)
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo Repository
}

type service struct {
	repo Repository
}

// NewService builds a ledger service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// Record inserts one ledger entry through the given repository, which may be
// transaction-bound. Entries are append-only.
func Record(ctx context.Context, repo Repository, dto RecordUsageDTO) (*models.DiscountUsage, error) {
	if dto.DiscountCodeID == uuid.Nil || dto.UserID == uuid.Nil || dto.SubscriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code id, user id and subscription id are required")
	}
	entry := &models.DiscountUsage{
		ID:             uuid.New(),
		DiscountCodeID: dto.DiscountCodeID,
		UserID:         dto.UserID,
		SubscriptionID: &dto.SubscriptionID,
		OriginalAmount: dto.OriginalAmount,
		DiscountAmount: dto.DiscountAmount,
		FinalAmount:    dto.FinalAmount,
	}
	if err := repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert usage entry: %w", err)
	}
	return entry, nil
}

// Sync recomputes used_count for one code from the ledger join and writes it
// back. Idempotent: re-running it always produces the same count.
func Sync(ctx context.Context, repo Repository, codeID uuid.UUID) (int64, error) {
	count, err := repo.CountActiveByCode(ctx, codeID)
	if err != nil {
		return 0, fmt.Errorf("count active usages: %w", err)
	}
	if err := repo.SetUsedCount(ctx, codeID, count); err != nil {
		return 0, fmt.Errorf("write used_count: %w", err)
	}
	return count, nil
}

// SyncAll reconciles every code's counter. Used by the periodic audit. A
// failing code does not stop the sweep; failures are combined and returned
// alongside the count of codes that did reconcile.
func (s *service) SyncAll(ctx context.Context) (int, error) {
	ids, err := s.repo.CodeIDs(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discount code ids")
	}
	synced := 0
	var errs []error
	for _, id := range ids {
		if _, err := Sync(ctx, s.repo, id); err != nil {
			errs = append(errs, fmt.Errorf("sync code %s: %w", id, err))
			continue
		}
		synced++
	}
	return synced, multierr.Combine(errs...)
}

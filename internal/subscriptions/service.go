package subscriptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/internal/discounts"
	"github.com/dmagan/asadmindset-admin/internal/ledger"
	"github.com/dmagan/asadmindset-admin/pkg/config"
	"github.com/dmagan/asadmindset-admin/pkg/db"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier delivers best-effort notifications for lifecycle events. Calls
// must never block beyond their own timeouts and must swallow failures;
// a successful state change is never rolled back because a message failed.
type Notifier interface {
	SubscriptionRequested(ctx context.Context, sub *models.Subscription)
	SubscriptionApproved(ctx context.Context, sub *models.Subscription)
	SubscriptionRejected(ctx context.Context, sub *models.Subscription)
	SubscriptionExpired(ctx context.Context, sub *models.Subscription)
	RenewalReminder(ctx context.Context, sub *models.Subscription)
	WinBack(ctx context.Context, sub *models.Subscription)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) SubscriptionRequested(context.Context, *models.Subscription) {}
func (NopNotifier) SubscriptionApproved(context.Context, *models.Subscription)  {}
func (NopNotifier) SubscriptionRejected(context.Context, *models.Subscription)  {}
func (NopNotifier) SubscriptionExpired(context.Context, *models.Subscription)   {}
func (NopNotifier) RenewalReminder(context.Context, *models.Subscription)       {}
func (NopNotifier) WinBack(context.Context, *models.Subscription)               {}

// Service drives the subscription lifecycle.
type Service interface {
	Request(ctx context.Context, userID uuid.UUID, dto RequestDTO) (*models.Subscription, error)
	Approve(ctx context.Context, id, adminID uuid.UUID, note *string) (*models.Subscription, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, note *string) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, dto UpdateStatusDTO) (*models.Subscription, error)
	Trash(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	Restore(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	PermanentDelete(ctx context.Context, id uuid.UUID) error
	Status(ctx context.Context, userID uuid.UUID) (StatusSummaryDTO, error)
	History(ctx context.Context, userID uuid.UUID) ([]SubscriptionDTO, error)
	AdminList(ctx context.Context, filter AdminListFilter) (SubscriptionsPageDTO, error)
	AdminGet(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	Stats(ctx context.Context) (StatsDTO, error)
	ExpireDue(ctx context.Context) (int, error)
	SendRenewalReminders(ctx context.Context) (int, error)
	SendWinBacks(ctx context.Context) (int, error)
}

// ServiceParams groups dependencies for the subscriptions service.
type ServiceParams struct {
	Repo         Repository
	DiscountRepo discounts.Repository
	LedgerRepo   ledger.Repository
	Tx           txRunner
	Notifier     Notifier
	Billing      config.BillingConfig
	Now          func() time.Time
}

type service struct {
	repo         Repository
	discountRepo discounts.Repository
	ledgerRepo   ledger.Repository
	tx           txRunner
	notifier     Notifier
	billing      config.BillingConfig
	now          func() time.Time
}

// NewService builds a subscriptions service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscriptions repo is required")
	}
	if params.DiscountRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discounts repo is required")
	}
	if params.LedgerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	billing := params.Billing
	if billing.DefaultDurationDays <= 0 {
		billing.DefaultDurationDays = 30
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		discountRepo: params.DiscountRepo,
		ledgerRepo:   params.LedgerRepo,
		tx:           params.Tx,
		notifier:     notifier,
		billing:      billing,
		now:          now,
	}, nil
}

// Request creates a pending subscription, applying and consuming a discount
// slot atomically when a code is attached.
func (s *service) Request(ctx context.Context, userID uuid.UUID, dto RequestDTO) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	planType := strings.TrimSpace(dto.PlanType)
	if planType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan type is required")
	}
	if dto.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	proof := strings.TrimSpace(dto.PaymentProof)
	txHash := strings.TrimSpace(dto.TxHash)
	if proof == "" && txHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment proof or transaction hash is required")
	}

	if _, err := s.repo.FindPendingByUser(ctx, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending subscription request already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending request")
	}

	// Friendly pre-check; the unique index is the real guard.
	if txHash != "" {
		if _, err := s.repo.FindByTxHash(ctx, txHash); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "transaction hash has already been used")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check transaction hash")
		}
	}

	now := s.now()
	isRenewal := false
	if _, err := s.repo.FindActiveByUser(ctx, userID, now); err == nil {
		isRenewal = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscription")
	}

	sub := &models.Subscription{
		ID:             uuid.New(),
		UserID:         userID,
		PlanType:       planType,
		Amount:         dto.Amount,
		OriginalAmount: dto.Amount,
		PaymentProof:   proof,
		Status:         enums.SubscriptionStatusPending,
		IsRenewal:      isRenewal,
	}
	if txHash != "" {
		sub.TxHash = &txHash
	}

	code := strings.TrimSpace(dto.DiscountCode)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		discountRepo := s.discountRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		if code != "" {
			outcome, err := discounts.Evaluate(ctx, discountRepo, code, userID, dto.Amount, planType, now)
			if err != nil {
				return err
			}

			// CAS guards the last slot against a concurrent purchase.
			claimed, err := discountRepo.ConsumeSlot(ctx, outcome.DiscountCodeID)
			if err != nil {
				return err
			}
			if !claimed {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, discounts.ErrCodeExhausted, discounts.ErrCodeExhausted.Error())
			}

			sub.Amount = outcome.FinalAmount
			sub.DiscountCodeID = &outcome.DiscountCodeID
			sub.DiscountCode = &outcome.Code
			sub.DiscountAmount = outcome.DiscountAmount
			sub.DiscountPercent = outcome.DiscountPercent
		}

		if err := repo.Create(ctx, sub); err != nil {
			return err
		}

		if sub.DiscountCodeID != nil {
			if _, err := ledger.Record(ctx, ledgerRepo, ledger.RecordUsageDTO{
				DiscountCodeID: *sub.DiscountCodeID,
				UserID:         userID,
				SubscriptionID: sub.ID,
				OriginalAmount: sub.OriginalAmount,
				DiscountAmount: sub.DiscountAmount,
				FinalAmount:    sub.Amount,
			}); err != nil {
				return err
			}
			if _, err := ledger.Sync(ctx, ledgerRepo, *sub.DiscountCodeID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsUniqueViolation(err, "idx_subscriptions_tx_hash") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "transaction hash has already been used")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription request")
	}

	s.notifier.SubscriptionRequested(ctx, sub)
	return sub, nil
}

// Approve activates a pending subscription. A renewal extends from the
// user's existing expiry instead of from now.
func (s *service) Approve(ctx context.Context, id, adminID uuid.UUID, note *string) (*models.Subscription, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != enums.SubscriptionStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending subscriptions can be approved")
	}

	now := s.now()
	start := now
	if existing, err := s.repo.FindActiveByUser(ctx, sub.UserID, now); err == nil {
		if existing.ExpiresAt != nil && existing.ExpiresAt.After(start) {
			start = *existing.ExpiresAt
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscription")
	}

	expires := start.AddDate(0, 0, s.durationDays(sub.PlanType))
	sub.Status = enums.SubscriptionStatusApproved
	sub.ApprovedBy = &adminID
	sub.ApprovedAt = &now
	sub.StartedAt = &now
	sub.ExpiresAt = &expires
	if note != nil {
		sub.AdminNote = note
	}

	if err := s.persistWithSync(ctx, sub); err != nil {
		return nil, err
	}
	s.notifier.SubscriptionApproved(ctx, sub)
	return sub, nil
}

// Reject declines a pending subscription and frees its discount slot.
func (s *service) Reject(ctx context.Context, id, adminID uuid.UUID, note *string) (*models.Subscription, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != enums.SubscriptionStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending subscriptions can be rejected")
	}

	sub.Status = enums.SubscriptionStatusRejected
	sub.ApprovedBy = &adminID
	if note != nil {
		sub.AdminNote = note
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		if err := repo.Update(ctx, sub); err != nil {
			return err
		}
		if sub.DiscountCodeID != nil {
			if _, err := ledgerRepo.DeleteByKeys(ctx, *sub.DiscountCodeID, sub.UserID, sub.ID); err != nil {
				return err
			}
			if _, err := ledger.Sync(ctx, ledgerRepo, *sub.DiscountCodeID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject subscription")
	}

	s.notifier.SubscriptionRejected(ctx, sub)
	return sub, nil
}

// UpdateStatus is the admin override for explicit status edits. Trashing
// goes through Trash/Restore so previous-state recovery stays intact.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, dto UpdateStatusDTO) (*models.Subscription, error) {
	target, err := enums.ParseSubscriptionStatus(dto.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription status")
	}
	if target == enums.SubscriptionStatusTrashed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the trash operation to soft-delete")
	}

	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == enums.SubscriptionStatusTrashed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "restore the subscription before changing its status")
	}
	if sub.Status == target {
		if dto.AdminNote != nil {
			sub.AdminNote = dto.AdminNote
			if err := s.repo.Update(ctx, sub); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
			}
		}
		return sub, nil
	}

	now := s.now()
	previous := sub.Status
	sub.Status = target
	if dto.AdminNote != nil {
		sub.AdminNote = dto.AdminNote
	}
	if target == enums.SubscriptionStatusApproved && sub.ApprovedAt == nil {
		expires := now.AddDate(0, 0, s.durationDays(sub.PlanType))
		sub.ApprovedAt = &now
		sub.StartedAt = &now
		sub.ExpiresAt = &expires
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		if err := repo.Update(ctx, sub); err != nil {
			return err
		}
		if sub.DiscountCodeID == nil {
			return nil
		}

		switch {
		case target == enums.SubscriptionStatusRejected:
			if _, err := ledgerRepo.DeleteByKeys(ctx, *sub.DiscountCodeID, sub.UserID, sub.ID); err != nil {
				return err
			}
		case target.CountsTowardDiscountUsage() && !previous.CountsTowardDiscountUsage():
			// Re-entering a counted status after a rejection removed the
			// ledger row: rebuild it from the snapshot.
			if _, err := ledgerRepo.FindBySubscription(ctx, sub.ID); errors.Is(err, gorm.ErrRecordNotFound) {
				if _, err := ledger.Record(ctx, ledgerRepo, ledger.RecordUsageDTO{
					DiscountCodeID: *sub.DiscountCodeID,
					UserID:         sub.UserID,
					SubscriptionID: sub.ID,
					OriginalAmount: sub.OriginalAmount,
					DiscountAmount: sub.DiscountAmount,
					FinalAmount:    sub.Amount,
				}); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
		}

		_, err := ledger.Sync(ctx, ledgerRepo, *sub.DiscountCodeID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription status")
	}

	switch target {
	case enums.SubscriptionStatusApproved:
		s.notifier.SubscriptionApproved(ctx, sub)
	case enums.SubscriptionStatusRejected:
		s.notifier.SubscriptionRejected(ctx, sub)
	case enums.SubscriptionStatusExpired:
		s.notifier.SubscriptionExpired(ctx, sub)
	}
	return sub, nil
}

// Trash soft-deletes, remembering the prior status and note for Restore.
func (s *service) Trash(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == enums.SubscriptionStatusTrashed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is already trashed")
	}

	previous := sub.Status
	sub.PreviousStatus = &previous
	sub.PreviousNote = sub.AdminNote
	sub.Status = enums.SubscriptionStatusTrashed

	if err := s.persistWithSync(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Restore brings a trashed subscription back to its previous status.
func (s *service) Restore(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != enums.SubscriptionStatusTrashed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is not trashed")
	}

	restored := enums.SubscriptionStatusPending
	if sub.PreviousStatus != nil {
		restored = *sub.PreviousStatus
	}
	sub.Status = restored
	sub.AdminNote = sub.PreviousNote
	sub.PreviousStatus = nil
	sub.PreviousNote = nil

	if err := s.persistWithSync(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// PermanentDelete removes a trashed subscription and its ledger row.
func (s *service) PermanentDelete(ctx context.Context, id uuid.UUID) error {
	sub, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status != enums.SubscriptionStatusTrashed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only trashed subscriptions can be permanently deleted")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		if _, err := ledgerRepo.DeleteBySubscription(ctx, sub.ID); err != nil {
			return err
		}
		if err := repo.Delete(ctx, sub.ID); err != nil {
			return err
		}
		if sub.DiscountCodeID != nil {
			if _, err := ledger.Sync(ctx, ledgerRepo, *sub.DiscountCodeID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "permanently delete subscription")
	}
	return nil
}

// Status summarizes the caller's standing in one response.
func (s *service) Status(ctx context.Context, userID uuid.UUID) (StatusSummaryDTO, error) {
	if userID == uuid.Nil {
		return StatusSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	summary := StatusSummaryDTO{}
	now := s.now()

	if active, err := s.repo.FindActiveByUser(ctx, userID, now); err == nil {
		dto := ToDTO(active)
		summary.HasActive = true
		summary.Active = &dto
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return StatusSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active subscription")
	}

	if pending, err := s.repo.FindPendingByUser(ctx, userID); err == nil {
		dto := ToDTO(pending)
		summary.Pending = &dto
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return StatusSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending subscription")
	}

	if rejected, err := s.repo.FindLastRejectedByUser(ctx, userID); err == nil {
		dto := ToDTO(rejected)
		summary.LastRejected = &dto
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return StatusSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rejected subscription")
	}

	return summary, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]SubscriptionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	return ToDTOs(subs), nil
}

func (s *service) AdminList(ctx context.Context, filter AdminListFilter) (SubscriptionsPageDTO, error) {
	limit := pagination.NormalizeLimit(filter.Limit)
	subs, err := s.repo.ListAdmin(ctx, filter)
	if err != nil {
		return SubscriptionsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	page := SubscriptionsPageDTO{}
	if len(subs) > limit {
		last := subs[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		subs = subs[:limit]
	}
	page.Items = ToDTOs(subs)
	return page, nil
}

func (s *service) AdminGet(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return s.load(ctx, id)
}

func (s *service) Stats(ctx context.Context) (StatsDTO, error) {
	stats, err := s.repo.Stats(ctx, s.now())
	if err != nil {
		return StatsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription stats")
	}
	return stats, nil
}

const maintenanceBatchSize = 500

// ExpireDue flips overdue approved subscriptions to expired and reconciles
// the counters of any codes they carry. Safe to run repeatedly.
func (s *service) ExpireDue(ctx context.Context) (int, error) {
	due, err := s.repo.ListExpiredDue(ctx, s.now(), maintenanceBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired subscriptions")
	}

	expired := 0
	for i := range due {
		sub := &due[i]
		sub.Status = enums.SubscriptionStatusExpired
		if err := s.persistWithSync(ctx, sub); err != nil {
			return expired, err
		}
		expired++
		s.notifier.SubscriptionExpired(ctx, sub)
	}
	return expired, nil
}

// SendRenewalReminders nudges users whose subscription runs out soon.
func (s *service) SendRenewalReminders(ctx context.Context) (int, error) {
	now := s.now()
	lead := time.Duration(s.billing.ReminderLeadDays) * 24 * time.Hour
	due, err := s.repo.ListDueForReminder(ctx, now, lead, maintenanceBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reminder candidates")
	}

	sent := 0
	for i := range due {
		sub := &due[i]
		s.notifier.RenewalReminder(ctx, sub)
		sub.ReminderSentAt = &now
		if err := s.repo.Update(ctx, sub); err != nil {
			return sent, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reminder sent")
		}
		sent++
	}
	return sent, nil
}

// SendWinBacks nudges users whose subscription lapsed recently.
func (s *service) SendWinBacks(ctx context.Context) (int, error) {
	now := s.now()
	newest := now.AddDate(0, 0, -s.billing.WinbackAfterDays)
	oldest := now.AddDate(0, 0, -s.billing.WinbackWindowDays)
	due, err := s.repo.ListWinbackCandidates(ctx, oldest, newest, maintenanceBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list win-back candidates")
	}

	sent := 0
	for i := range due {
		sub := &due[i]
		s.notifier.WinBack(ctx, sub)
		sub.WinbackSentAt = &now
		if err := s.repo.Update(ctx, sub); err != nil {
			return sent, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark win-back sent")
		}
		sent++
	}
	return sent, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return sub, nil
}

// persistWithSync saves the subscription and reconciles its code's counter
// in one transaction.
func (s *service) persistWithSync(ctx context.Context, sub *models.Subscription) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, sub); err != nil {
			return err
		}
		if sub.DiscountCodeID != nil {
			if _, err := ledger.Sync(ctx, s.ledgerRepo.WithTx(tx), *sub.DiscountCodeID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}
	return nil
}

func (s *service) durationDays(planType string) int {
	return discounts.ParsePlanMonths(planType) * s.billing.DefaultDurationDays
}

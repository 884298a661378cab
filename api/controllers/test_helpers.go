package controllers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/dmagan/asadmindset-admin/internal/discounts"
	subsvc "github.com/dmagan/asadmindset-admin/internal/subscriptions"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
	"github.com/shopspring/decimal"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

// stubSubscriptionService lets each test pin the handful of methods it
// cares about; everything else fails loudly.
type stubSubscriptionService struct {
	requestFn func(ctx context.Context, userID uuid.UUID, dto subsvc.RequestDTO) (*models.Subscription, error)
	approveFn func(ctx context.Context, id, adminID uuid.UUID, note *string) (*models.Subscription, error)
	statusFn  func(ctx context.Context, userID uuid.UUID) (subsvc.StatusSummaryDTO, error)
	listFn    func(ctx context.Context, filter subsvc.AdminListFilter) (subsvc.SubscriptionsPageDTO, error)
}

func notStubbed() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not stubbed")
}

func (s *stubSubscriptionService) Request(ctx context.Context, userID uuid.UUID, dto subsvc.RequestDTO) (*models.Subscription, error) {
	if s.requestFn == nil {
		return nil, notStubbed()
	}
	return s.requestFn(ctx, userID, dto)
}

func (s *stubSubscriptionService) Approve(ctx context.Context, id, adminID uuid.UUID, note *string) (*models.Subscription, error) {
	if s.approveFn == nil {
		return nil, notStubbed()
	}
	return s.approveFn(ctx, id, adminID, note)
}

func (s *stubSubscriptionService) Reject(context.Context, uuid.UUID, uuid.UUID, *string) (*models.Subscription, error) {
	return nil, notStubbed()
}

func (s *stubSubscriptionService) UpdateStatus(context.Context, uuid.UUID, subsvc.UpdateStatusDTO) (*models.Subscription, error) {
	return nil, notStubbed()
}

func (s *stubSubscriptionService) Trash(context.Context, uuid.UUID) (*models.Subscription, error) {
	return nil, notStubbed()
}

func (s *stubSubscriptionService) Restore(context.Context, uuid.UUID) (*models.Subscription, error) {
	return nil, notStubbed()
}

func (s *stubSubscriptionService) PermanentDelete(context.Context, uuid.UUID) error {
	return notStubbed()
}

func (s *stubSubscriptionService) Status(ctx context.Context, userID uuid.UUID) (subsvc.StatusSummaryDTO, error) {
	if s.statusFn == nil {
		return subsvc.StatusSummaryDTO{}, notStubbed()
	}
	return s.statusFn(ctx, userID)
}

func (s *stubSubscriptionService) History(context.Context, uuid.UUID) ([]subsvc.SubscriptionDTO, error) {
	return nil, notStubbed()
}

func (s *stubSubscriptionService) AdminList(ctx context.Context, filter subsvc.AdminListFilter) (subsvc.SubscriptionsPageDTO, error) {
	if s.listFn == nil {
		return subsvc.SubscriptionsPageDTO{}, notStubbed()
	}
	return s.listFn(ctx, filter)
}

func (s *stubSubscriptionService) AdminGet(context.Context, uuid.UUID) (*models.Subscription, error) {
	return nil, notStubbed()
}

func (s *stubSubscriptionService) Stats(context.Context) (subsvc.StatsDTO, error) {
	return subsvc.StatsDTO{}, notStubbed()
}

func (s *stubSubscriptionService) ExpireDue(context.Context) (int, error) { return 0, notStubbed() }

func (s *stubSubscriptionService) SendRenewalReminders(context.Context) (int, error) {
	return 0, notStubbed()
}

func (s *stubSubscriptionService) SendWinBacks(context.Context) (int, error) {
	return 0, notStubbed()
}

// stubDiscountService mirrors the same pattern for the discount surface.
type stubDiscountService struct {
	applyFn  func(ctx context.Context, code string, userID uuid.UUID, amount decimal.Decimal, planLabel string) (discounts.PricingOutcome, error)
	createFn func(ctx context.Context, dto discounts.CreateCodeDTO) (*models.DiscountCode, error)
}

func (s *stubDiscountService) ApplyDiscount(ctx context.Context, code string, userID uuid.UUID, amount decimal.Decimal, planLabel string) (discounts.PricingOutcome, error) {
	if s.applyFn == nil {
		return discounts.PricingOutcome{}, notStubbed()
	}
	return s.applyFn(ctx, code, userID, amount, planLabel)
}

func (s *stubDiscountService) CreateCode(ctx context.Context, dto discounts.CreateCodeDTO) (*models.DiscountCode, error) {
	if s.createFn == nil {
		return nil, notStubbed()
	}
	return s.createFn(ctx, dto)
}

func (s *stubDiscountService) UpdateCode(context.Context, uuid.UUID, discounts.UpdateCodeDTO) (*models.DiscountCode, error) {
	return nil, notStubbed()
}

func (s *stubDiscountService) GetCode(context.Context, uuid.UUID) (*models.DiscountCode, error) {
	return nil, notStubbed()
}

func (s *stubDiscountService) ListCodes(context.Context, bool) ([]models.DiscountCode, error) {
	return nil, notStubbed()
}

func (s *stubDiscountService) TrashCode(context.Context, uuid.UUID) (*models.DiscountCode, error) {
	return nil, notStubbed()
}

func (s *stubDiscountService) RestoreCode(context.Context, uuid.UUID) (*models.DiscountCode, error) {
	return nil, notStubbed()
}

func (s *stubDiscountService) PermanentlyDeleteCode(context.Context, uuid.UUID) error {
	return notStubbed()
}

func (s *stubDiscountService) CodeStats(context.Context, uuid.UUID) (discounts.CodeStatsDTO, error) {
	return discounts.CodeStatsDTO{}, notStubbed()
}

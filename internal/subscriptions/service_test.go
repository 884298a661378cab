package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagan/asadmindset-admin/internal/discounts"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
)

func TestRequestRequiresProofOrTxHash(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.svc.Request(context.Background(), uuid.New(), RequestDTO{
		PlanType: "1_month",
		Amount:   decimal.NewFromInt(1000),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRequestWithDiscountSnapshotsAndConsumesSlot(t *testing.T) {
	h := newTestHarness(t)
	code := h.createCode(t, nil)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType:     "1_month",
		Amount:       decimal.NewFromInt(100000),
		PaymentProof: "receipt.png",
		DiscountCode: "save20",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.SubscriptionStatusPending, sub.Status)
	assert.True(t, sub.Amount.Equal(decimal.NewFromInt(80000)), "amount = %s", sub.Amount)
	assert.True(t, sub.OriginalAmount.Equal(decimal.NewFromInt(100000)))
	assert.True(t, sub.DiscountAmount.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, 20, sub.DiscountPercent)
	require.NotNil(t, sub.DiscountCode)
	assert.Equal(t, "SAVE20", *sub.DiscountCode)
	require.NotNil(t, sub.DiscountCodeID)
	assert.Equal(t, code.ID, *sub.DiscountCodeID)

	assert.Equal(t, 1, h.usedCount(t, code.ID))
	assert.Equal(t, int64(1), h.ledgerRows(t, code.ID))
	assert.Equal(t, 1, h.notifier.count("requested"))
}

func TestRequestRejectsSecondPendingRequest(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	_, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png",
	})
	require.NoError(t, err)

	_, err = h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "b.png",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRequestRejectsDuplicateTxHash(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.svc.Request(context.Background(), uuid.New(), RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), TxHash: "0xabc",
	})
	require.NoError(t, err)

	_, err = h.svc.Request(context.Background(), uuid.New(), RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), TxHash: "0xabc",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestPerUserLimitFreedByRejection(t *testing.T) {
	h := newTestHarness(t)
	h.createCode(t, func(c *models.DiscountCode) { c.PerUserLimit = 1 })
	userID := uuid.New()

	first, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err)

	// Reject the pending request so a second attempt is even reachable,
	// then verify the limit check itself.
	_, err = h.svc.Reject(context.Background(), first.ID, uuid.New(), nil)
	require.NoError(t, err)

	second, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "b.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err, "rejected purchase must free the per-user slot")

	_, err = h.svc.Approve(context.Background(), second.ID, uuid.New(), nil)
	require.NoError(t, err)

	// Slot occupied by the approved purchase: third attempt fails.
	_, err = h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "c.png", DiscountCode: "SAVE20",
	})
	assert.ErrorIs(t, err, discounts.ErrUserLimitReached)
}

func TestRejectFreesUsageSlot(t *testing.T) {
	h := newTestHarness(t)
	code := h.createCode(t, nil)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.usedCount(t, code.ID))

	note := "payment not received"
	rejected, err := h.svc.Reject(context.Background(), sub.ID, uuid.New(), &note)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusRejected, rejected.Status)

	assert.Equal(t, 0, h.usedCount(t, code.ID))
	assert.Equal(t, int64(0), h.ledgerRows(t, code.ID))
	assert.Equal(t, 1, h.notifier.count("rejected"))
}

func TestCodeExhaustedAfterMaxUses(t *testing.T) {
	h := newTestHarness(t)
	h.createCode(t, func(c *models.DiscountCode) { c.MaxUses = 1 })

	_, err := h.svc.Request(context.Background(), uuid.New(), RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err)

	_, err = h.svc.Request(context.Background(), uuid.New(), RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "b.png", DiscountCode: "SAVE20",
	})
	assert.ErrorIs(t, err, discounts.ErrCodeExhausted)
}

func TestApproveOnlyFromPending(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png",
	})
	require.NoError(t, err)

	approved, err := h.svc.Approve(context.Background(), sub.ID, uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusApproved, approved.Status)
	require.NotNil(t, approved.ExpiresAt)
	assert.Equal(t, h.now.AddDate(0, 0, 30), approved.ExpiresAt.UTC())

	_, err = h.svc.Approve(context.Background(), sub.ID, uuid.New(), nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestApproveRenewalExtendsFromExistingExpiry(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	first, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png",
	})
	require.NoError(t, err)
	first, err = h.svc.Approve(context.Background(), first.ID, uuid.New(), nil)
	require.NoError(t, err)
	firstExpiry := *first.ExpiresAt

	renewal, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "3_month", Amount: decimal.NewFromInt(2500), PaymentProof: "b.png",
	})
	require.NoError(t, err)
	assert.True(t, renewal.IsRenewal)

	renewal, err = h.svc.Approve(context.Background(), renewal.ID, uuid.New(), nil)
	require.NoError(t, err)
	require.NotNil(t, renewal.ExpiresAt)
	assert.Equal(t, firstExpiry.AddDate(0, 0, 90).UTC(), renewal.ExpiresAt.UTC(),
		"renewal must extend from the existing expiry, not from now")
}

func TestTrashRestoreRoundTrip(t *testing.T) {
	h := newTestHarness(t)
	code := h.createCode(t, nil)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err)

	note := "looks good"
	sub, err = h.svc.Approve(context.Background(), sub.ID, uuid.New(), &note)
	require.NoError(t, err)
	require.Equal(t, 1, h.usedCount(t, code.ID))

	trashed, err := h.svc.Trash(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusTrashed, trashed.Status)
	require.NotNil(t, trashed.PreviousStatus)
	assert.Equal(t, enums.SubscriptionStatusApproved, *trashed.PreviousStatus)
	assert.Equal(t, 0, h.usedCount(t, code.ID), "trashed subscriptions do not occupy a slot")

	restored, err := h.svc.Restore(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusApproved, restored.Status)
	require.NotNil(t, restored.AdminNote)
	assert.Equal(t, note, *restored.AdminNote)
	assert.Nil(t, restored.PreviousStatus)
	assert.Equal(t, 1, h.usedCount(t, code.ID), "restored approval counts again")
	assert.Equal(t, int64(1), h.ledgerRows(t, code.ID), "ledger rows survive trash/restore")
}

func TestPermanentDeleteOnlyFromTrashed(t *testing.T) {
	h := newTestHarness(t)
	code := h.createCode(t, nil)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err)

	err = h.svc.PermanentDelete(context.Background(), sub.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = h.svc.Trash(context.Background(), sub.ID)
	require.NoError(t, err)
	require.NoError(t, h.svc.PermanentDelete(context.Background(), sub.ID))

	assert.Equal(t, int64(0), h.ledgerRows(t, code.ID))
	assert.Equal(t, 0, h.usedCount(t, code.ID))

	_, err = h.svc.AdminGet(context.Background(), sub.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateStatusRebuildsLedgerEntryAfterRejection(t *testing.T) {
	h := newTestHarness(t)
	code := h.createCode(t, nil)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err)

	_, err = h.svc.Reject(context.Background(), sub.ID, uuid.New(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, h.usedCount(t, code.ID))

	updated, err := h.svc.UpdateStatus(context.Background(), sub.ID, UpdateStatusDTO{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusApproved, updated.Status)
	assert.Equal(t, 1, h.usedCount(t, code.ID), "re-approval must rebuild the ledger entry")
	assert.Equal(t, int64(1), h.ledgerRows(t, code.ID))
}

func TestUpdateStatusGuards(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png",
	})
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), sub.ID, UpdateStatusDTO{Status: "bogus"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = h.svc.UpdateStatus(context.Background(), sub.ID, UpdateStatusDTO{Status: "trashed"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = h.svc.Trash(context.Background(), sub.ID)
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(context.Background(), sub.ID, UpdateStatusDTO{Status: "approved"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestStatusSummary(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	summary, err := h.svc.Status(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, summary.HasActive)
	assert.Nil(t, summary.Pending)

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png",
	})
	require.NoError(t, err)

	summary, err = h.svc.Status(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, summary.Pending)
	assert.Equal(t, sub.ID, summary.Pending.ID)

	_, err = h.svc.Approve(context.Background(), sub.ID, uuid.New(), nil)
	require.NoError(t, err)

	summary, err = h.svc.Status(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, summary.HasActive)
	require.NotNil(t, summary.Active)
	assert.Equal(t, sub.ID, summary.Active.ID)
	assert.Nil(t, summary.Pending)
}

func TestExpireDueFreesSlotsAndNotifies(t *testing.T) {
	h := newTestHarness(t)
	code := h.createCode(t, nil)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png", DiscountCode: "SAVE20",
	})
	require.NoError(t, err)
	_, err = h.svc.Approve(context.Background(), sub.ID, uuid.New(), nil)
	require.NoError(t, err)

	// Push the expiry into the past.
	past := h.now.Add(-time.Hour)
	require.NoError(t, h.db.Model(&models.Subscription{}).
		Where("id = ?", sub.ID).Update("expires_at", past).Error)

	expired, err := h.svc.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, h.usedCount(t, code.ID))
	assert.Equal(t, 1, h.notifier.count("expired"))

	// Second run finds nothing.
	expired, err = h.svc.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestSendRenewalRemindersMarksRows(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png",
	})
	require.NoError(t, err)
	_, err = h.svc.Approve(context.Background(), sub.ID, uuid.New(), nil)
	require.NoError(t, err)

	soon := h.now.Add(48 * time.Hour)
	require.NoError(t, h.db.Model(&models.Subscription{}).
		Where("id = ?", sub.ID).Update("expires_at", soon).Error)

	sent, err := h.svc.SendRenewalReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, h.notifier.count("reminder"))

	sent, err = h.svc.SendRenewalReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent, "reminded rows must not be picked up again")
}

func TestSendWinBacksTargetsRecentlyLapsed(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(1000), PaymentProof: "a.png",
	})
	require.NoError(t, err)
	_, err = h.svc.Approve(context.Background(), sub.ID, uuid.New(), nil)
	require.NoError(t, err)

	lapsed := h.now.AddDate(0, 0, -10)
	require.NoError(t, h.db.Model(&models.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{"status": enums.SubscriptionStatusExpired, "expires_at": lapsed}).Error)

	sent, err := h.svc.SendWinBacks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, h.notifier.count("winback"))

	sent, err = h.svc.SendWinBacks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestAdminListPaginates(t *testing.T) {
	h := newTestHarness(t)

	for i := 0; i < 4; i++ {
		created := h.now.Add(time.Duration(i) * time.Minute)
		sub := &models.Subscription{
			ID:             uuid.New(),
			UserID:         uuid.New(),
			PlanType:       "1_month",
			Amount:         decimal.NewFromInt(1000),
			OriginalAmount: decimal.NewFromInt(1000),
			Status:         enums.SubscriptionStatusPending,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		require.NoError(t, h.db.Create(sub).Error)
	}

	page, err := h.svc.AdminList(context.Background(), AdminListFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.NotEmpty(t, page.NextCursor)

	rest, err := h.svc.AdminList(context.Background(), AdminListFilter{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)

	for _, item := range page.Items {
		assert.NotEqual(t, rest.Items[0].ID, item.ID)
	}
}

func TestStatsAggregates(t *testing.T) {
	h := newTestHarness(t)
	userID := uuid.New()

	sub, err := h.svc.Request(context.Background(), userID, RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(5000), PaymentProof: "a.png",
	})
	require.NoError(t, err)
	_, err = h.svc.Approve(context.Background(), sub.ID, uuid.New(), nil)
	require.NoError(t, err)

	_, err = h.svc.Request(context.Background(), uuid.New(), RequestDTO{
		PlanType: "1_month", Amount: decimal.NewFromInt(3000), PaymentProof: "b.png",
	})
	require.NoError(t, err)

	stats, err := h.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalsByStatus["approved"])
	assert.Equal(t, int64(1), stats.TotalsByStatus["pending"])
	assert.Equal(t, int64(1), stats.ActiveCount)
	assert.True(t, stats.RecentRevenue.Equal(decimal.NewFromInt(5000)), "revenue = %s", stats.RecentRevenue)
}

func TestLoadUnknownSubscription(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.svc.AdminGet(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.False(t, errors.Is(err, discounts.ErrInvalidCode))
}

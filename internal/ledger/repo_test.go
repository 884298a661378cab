package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	codes := `
CREATE TABLE IF NOT EXISTS discount_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  discount_type TEXT NOT NULL DEFAULT 'percent',
  discount_value NUMERIC NOT NULL DEFAULT 0,
  max_uses INTEGER NOT NULL DEFAULT 0,
  used_count INTEGER NOT NULL DEFAULT 0,
  min_months INTEGER NOT NULL DEFAULT 1,
  max_months INTEGER NOT NULL DEFAULT 12,
  per_user_limit INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME,
  valid_until DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`
	subscriptions := `
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  plan_type TEXT NOT NULL DEFAULT 'monthly',
  amount NUMERIC NOT NULL DEFAULT 0,
  original_amount NUMERIC NOT NULL DEFAULT 0,
  discount_code_id TEXT,
  discount_code TEXT,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  payment_proof TEXT NOT NULL DEFAULT '',
  tx_hash TEXT UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  admin_note TEXT,
  previous_status TEXT,
  previous_note TEXT,
  approved_by TEXT,
  approved_at DATETIME,
  started_at DATETIME,
  expires_at DATETIME,
  is_renewal INTEGER NOT NULL DEFAULT 0,
  reminder_sent_at DATETIME,
  winback_sent_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	usages := `
CREATE TABLE IF NOT EXISTS discount_usages (
  id TEXT PRIMARY KEY,
  discount_code_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  subscription_id TEXT,
  original_amount NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  final_amount NUMERIC NOT NULL DEFAULT 0,
  used_at DATETIME
);`

	for _, ddl := range []string{codes, subscriptions, usages} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func mustCreateCode(t *testing.T, tx *gorm.DB) *models.DiscountCode {
	t.Helper()
	code := &models.DiscountCode{
		ID:            uuid.New(),
		Code:          "LEDGER-" + uuid.NewString()[:8],
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
		Status:        enums.DiscountCodeStatusActive,
		MinMonths:     1,
		MaxMonths:     12,
	}
	require.NoError(t, tx.Create(code).Error)
	return code
}

func mustCreateSubscription(t *testing.T, tx *gorm.DB, userID uuid.UUID, status enums.SubscriptionStatus) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		ID:             uuid.New(),
		UserID:         userID,
		PlanType:       "1_month",
		Amount:         decimal.NewFromInt(900),
		OriginalAmount: decimal.NewFromInt(1000),
		Status:         status,
	}
	require.NoError(t, tx.Create(sub).Error)
	return sub
}

func mustRecord(t *testing.T, repo Repository, codeID, userID, subID uuid.UUID) {
	t.Helper()
	_, err := Record(context.Background(), repo, RecordUsageDTO{
		DiscountCodeID: codeID,
		UserID:         userID,
		SubscriptionID: subID,
		OriginalAmount: decimal.NewFromInt(1000),
		DiscountAmount: decimal.NewFromInt(100),
		FinalAmount:    decimal.NewFromInt(900),
	})
	require.NoError(t, err)
}

func TestCountActiveByCodeOnlyCountsPendingAndApproved(t *testing.T) {
	conn := setupLedgerTestDB(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()

	code := mustCreateCode(t, tx)
	userA := uuid.New()
	userB := uuid.New()

	pending := mustCreateSubscription(t, tx, userA, enums.SubscriptionStatusPending)
	approved := mustCreateSubscription(t, tx, userB, enums.SubscriptionStatusApproved)
	rejected := mustCreateSubscription(t, tx, userA, enums.SubscriptionStatusRejected)
	trashed := mustCreateSubscription(t, tx, userB, enums.SubscriptionStatusTrashed)

	mustRecord(t, repo, code.ID, userA, pending.ID)
	mustRecord(t, repo, code.ID, userB, approved.ID)
	mustRecord(t, repo, code.ID, userA, rejected.ID)
	mustRecord(t, repo, code.ID, userB, trashed.ID)

	count, err := repo.CountActiveByCode(ctx, code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSyncIsIdempotent(t *testing.T) {
	conn := setupLedgerTestDB(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()

	code := mustCreateCode(t, tx)
	user := uuid.New()
	sub := mustCreateSubscription(t, tx, user, enums.SubscriptionStatusPending)
	mustRecord(t, repo, code.ID, user, sub.ID)

	// Drift the counter on purpose; every sync must converge on the join.
	require.NoError(t, repo.SetUsedCount(ctx, code.ID, 42))

	for i := 0; i < 3; i++ {
		count, err := Sync(ctx, repo, code.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	}

	var stored models.DiscountCode
	require.NoError(t, tx.First(&stored, "id = ?", code.ID).Error)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestSyncTracksStatusTransitions(t *testing.T) {
	conn := setupLedgerTestDB(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()

	code := mustCreateCode(t, tx)
	user := uuid.New()
	sub := mustCreateSubscription(t, tx, user, enums.SubscriptionStatusPending)
	mustRecord(t, repo, code.ID, user, sub.ID)

	count, err := Sync(ctx, repo, code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Approval keeps the slot occupied.
	require.NoError(t, tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).
		Update("status", enums.SubscriptionStatusApproved).Error)
	count, err = Sync(ctx, repo, code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Trashing frees it; restoring to approved takes it back.
	require.NoError(t, tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).
		Update("status", enums.SubscriptionStatusTrashed).Error)
	count, err = Sync(ctx, repo, code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).
		Update("status", enums.SubscriptionStatusApproved).Error)
	count, err = Sync(ctx, repo, code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteByKeysRemovesSingleEntry(t *testing.T) {
	conn := setupLedgerTestDB(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()

	code := mustCreateCode(t, tx)
	user := uuid.New()
	first := mustCreateSubscription(t, tx, user, enums.SubscriptionStatusPending)
	second := mustCreateSubscription(t, tx, user, enums.SubscriptionStatusPending)
	mustRecord(t, repo, code.ID, user, first.ID)
	mustRecord(t, repo, code.ID, user, second.ID)

	affected, err := repo.DeleteByKeys(ctx, code.ID, user, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	count, err := Sync(ctx, repo, code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Deleting an already-removed entry is a no-op, not an error.
	affected, err = repo.DeleteByKeys(ctx, code.ID, user, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestCodeIDsSkipsTrashedCodes(t *testing.T) {
	conn := setupLedgerTestDB(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()

	live := mustCreateCode(t, tx)
	trashed := mustCreateCode(t, tx)
	require.NoError(t, tx.Model(&models.DiscountCode{}).
		Where("id = ?", trashed.ID).
		Update("status", enums.DiscountCodeStatusTrashed).Error)

	ids, err := repo.CodeIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{live.ID}, ids)
}

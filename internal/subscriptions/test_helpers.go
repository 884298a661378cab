package subscriptions

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/internal/discounts"
	"github.com/dmagan/asadmindset-admin/internal/ledger"
	"github.com/dmagan/asadmindset-admin/pkg/config"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
)

func setupSubscriptionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE discount_codes (
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
);`, `
CREATE TABLE subscriptions (
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
);`, `
CREATE TABLE discount_usages (
  id TEXT PRIMARY KEY,
  discount_code_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  subscription_id TEXT,
  original_amount NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  final_amount NUMERIC NOT NULL DEFAULT 0,
  used_at DATETIME
);`}

	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// recordingNotifier counts lifecycle events per kind.
type recordingNotifier struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{counts: map[string]int{}}
}

func (n *recordingNotifier) bump(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counts[event]++
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.counts[event]
}

func (n *recordingNotifier) SubscriptionRequested(context.Context, *models.Subscription) {
	n.bump("requested")
}
func (n *recordingNotifier) SubscriptionApproved(context.Context, *models.Subscription) {
	n.bump("approved")
}
func (n *recordingNotifier) SubscriptionRejected(context.Context, *models.Subscription) {
	n.bump("rejected")
}
func (n *recordingNotifier) SubscriptionExpired(context.Context, *models.Subscription) {
	n.bump("expired")
}
func (n *recordingNotifier) RenewalReminder(context.Context, *models.Subscription) {
	n.bump("reminder")
}
func (n *recordingNotifier) WinBack(context.Context, *models.Subscription) {
	n.bump("winback")
}

type testHarness struct {
	db       *gorm.DB
	svc      Service
	notifier *recordingNotifier
	now      time.Time
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	db := setupSubscriptionsTestDB(t)
	notifier := newRecordingNotifier()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(db),
		DiscountRepo: discounts.NewRepository(db),
		LedgerRepo:   ledger.NewRepository(db),
		Tx:           gormTxRunner{db: db},
		Notifier:     notifier,
		Billing:      config.BillingConfig{DefaultDurationDays: 30, ReminderLeadDays: 3, WinbackAfterDays: 7, WinbackWindowDays: 30},
		Now:          func() time.Time { return now },
	})
	require.NoError(t, err)

	return &testHarness{db: db, svc: svc, notifier: notifier, now: now}
}

func (h *testHarness) createCode(t *testing.T, mutate func(*models.DiscountCode)) *models.DiscountCode {
	t.Helper()
	code := &models.DiscountCode{
		ID:            uuid.New(),
		Code:          "SAVE20",
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(20),
		MinMonths:     1,
		MaxMonths:     12,
		IsActive:      true,
		Status:        enums.DiscountCodeStatusActive,
	}
	if mutate != nil {
		mutate(code)
	}
	require.NoError(t, h.db.Create(code).Error)
	return code
}

func (h *testHarness) usedCount(t *testing.T, codeID uuid.UUID) int {
	t.Helper()
	var code models.DiscountCode
	require.NoError(t, h.db.First(&code, "id = ?", codeID).Error)
	return code.UsedCount
}

func (h *testHarness) ledgerRows(t *testing.T, codeID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.DiscountUsage{}).
		Where("discount_code_id = ?", codeID).Count(&count).Error)
	return count
}

package cron

import (
	"context"
	"errors"
	"testing"
)

type fakeMaintenanceRunner struct {
	expired   int
	reminded  int
	wonBack   int
	expireErr error
}

func (f *fakeMaintenanceRunner) ExpireDue(context.Context) (int, error) {
	f.expired++
	return f.expired, f.expireErr
}

func (f *fakeMaintenanceRunner) SendRenewalReminders(context.Context) (int, error) {
	f.reminded++
	return f.reminded, nil
}

func (f *fakeMaintenanceRunner) SendWinBacks(context.Context) (int, error) {
	f.wonBack++
	return f.wonBack, nil
}

type fakeCounterSyncer struct {
	calls int
	err   error
}

func (f *fakeCounterSyncer) SyncAll(context.Context) (int, error) {
	f.calls++
	return 7, f.err
}

func TestLifecycleJobsDelegateToService(t *testing.T) {
	runner := &fakeMaintenanceRunner{}
	params := SubscriptionJobParams{Logger: cronTestLogger(), Runner: runner}

	builders := []struct {
		build func(SubscriptionJobParams) (Job, error)
		name  string
	}{
		{NewSubscriptionExpiryJob, "subscription-expiry"},
		{NewRenewalReminderJob, "renewal-reminder"},
		{NewWinBackJob, "win-back"},
	}
	for _, b := range builders {
		job, err := b.build(params)
		if err != nil {
			t.Fatalf("build %s: %v", b.name, err)
		}
		if job.Name() != b.name {
			t.Fatalf("expected name %s, got %s", b.name, job.Name())
		}
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("%s Run: %v", b.name, err)
		}
	}
	if runner.expired != 1 || runner.reminded != 1 || runner.wonBack != 1 {
		t.Fatalf("expected each service method called once, got %d/%d/%d",
			runner.expired, runner.reminded, runner.wonBack)
	}
}

func TestLifecycleJobPropagatesErrors(t *testing.T) {
	runner := &fakeMaintenanceRunner{expireErr: errors.New("db down")}
	job, err := NewSubscriptionExpiryJob(SubscriptionJobParams{Logger: cronTestLogger(), Runner: runner})
	if err != nil {
		t.Fatalf("NewSubscriptionExpiryJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDiscountAuditJobSyncsCounters(t *testing.T) {
	syncer := &fakeCounterSyncer{}
	job, err := NewDiscountAuditJob(DiscountAuditJobParams{Logger: cronTestLogger(), Ledger: syncer})
	if err != nil {
		t.Fatalf("NewDiscountAuditJob: %v", err)
	}
	if job.Name() != "discount-counter-audit" {
		t.Fatalf("unexpected name %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if syncer.calls != 1 {
		t.Fatalf("expected one sync, got %d", syncer.calls)
	}

	syncer.err = errors.New("query failed")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestJobConstructorsValidateDeps(t *testing.T) {
	if _, err := NewSubscriptionExpiryJob(SubscriptionJobParams{Logger: cronTestLogger()}); err == nil {
		t.Fatal("expected error for missing runner")
	}
	if _, err := NewDiscountAuditJob(DiscountAuditJobParams{Ledger: &fakeCounterSyncer{}}); err == nil {
		t.Fatal("expected error for missing logger")
	}
}

package cron

import (
	"context"
	"fmt"

	"github.com/dmagan/asadmindset-admin/pkg/logger"
	"github.com/dmagan/asadmindset-admin/pkg/metrics"
)

// maintenanceRunner is the slice of the subscription service the lifecycle
// jobs call. Each method walks its candidate set, persists the transition
// and notifies the affected users, returning how many rows it touched.
type maintenanceRunner interface {
	ExpireDue(ctx context.Context) (int, error)
	SendRenewalReminders(ctx context.Context) (int, error)
	SendWinBacks(ctx context.Context) (int, error)
}

// SubscriptionJobParams configure the three subscription lifecycle jobs.
type SubscriptionJobParams struct {
	Logger *logger.Logger
	Runner maintenanceRunner
	// Metrics is optional; a nil value skips row accounting.
	Metrics *metrics.CronJobMetrics
}

func newLifecycleJob(params SubscriptionJobParams, name, doneMsg string, run func(context.Context) (int, error)) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	return &lifecycleJob{
		logg:    params.Logger,
		mets:    params.Metrics,
		name:    name,
		doneMsg: doneMsg,
		run:     run,
	}, nil
}

// NewSubscriptionExpiryJob flips approved subscriptions whose window has
// closed to expired.
func NewSubscriptionExpiryJob(params SubscriptionJobParams) (Job, error) {
	return newLifecycleJob(params, "subscription-expiry", "subscription expiry loop complete",
		func(ctx context.Context) (int, error) { return params.Runner.ExpireDue(ctx) })
}

// NewRenewalReminderJob notifies users whose subscription runs out soon.
func NewRenewalReminderJob(params SubscriptionJobParams) (Job, error) {
	return newLifecycleJob(params, "renewal-reminder", "renewal reminder loop complete",
		func(ctx context.Context) (int, error) { return params.Runner.SendRenewalReminders(ctx) })
}

// NewWinBackJob nudges users whose subscription lapsed recently.
func NewWinBackJob(params SubscriptionJobParams) (Job, error) {
	return newLifecycleJob(params, "win-back", "win-back loop complete",
		func(ctx context.Context) (int, error) { return params.Runner.SendWinBacks(ctx) })
}

type lifecycleJob struct {
	logg    *logger.Logger
	mets    *metrics.CronJobMetrics
	name    string
	doneMsg string
	run     func(context.Context) (int, error)
}

func (j *lifecycleJob) Name() string { return j.name }

func (j *lifecycleJob) Run(ctx context.Context) error {
	count, err := j.run(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.mets.AddProcessed(j.name, count)
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, j.doneMsg)
	return nil
}

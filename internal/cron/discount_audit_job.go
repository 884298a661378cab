package cron

import (
	"context"
	"fmt"

	"github.com/dmagan/asadmindset-admin/pkg/logger"
	"github.com/dmagan/asadmindset-admin/pkg/metrics"
)

// counterSyncer recomputes every discount code's usage counter from the
// ledger rows so drift from failed requests or manual edits heals itself.
type counterSyncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// DiscountAuditJobParams configure the periodic counter reconciliation.
type DiscountAuditJobParams struct {
	Logger *logger.Logger
	Ledger counterSyncer
	// Metrics is optional; a nil value skips row accounting.
	Metrics *metrics.CronJobMetrics
}

// NewDiscountAuditJob builds the counter reconciliation cron job.
func NewDiscountAuditJob(params DiscountAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &discountAuditJob{
		logg:   params.Logger,
		mets:   params.Metrics,
		ledger: params.Ledger,
	}, nil
}

type discountAuditJob struct {
	logg   *logger.Logger
	mets   *metrics.CronJobMetrics
	ledger counterSyncer
}

func (j *discountAuditJob) Name() string { return "discount-counter-audit" }

func (j *discountAuditJob) Run(ctx context.Context) error {
	count, err := j.ledger.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("discount counter audit: %w", err)
	}
	j.mets.AddProcessed(j.Name(), count)
	logCtx := j.logg.WithFields(ctx, map[string]any{"codes": count})
	j.logg.Info(logCtx, "discount counter audit complete")
	return nil
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmagan/asadmindset-admin/internal/cron"
	"github.com/dmagan/asadmindset-admin/internal/discounts"
	"github.com/dmagan/asadmindset-admin/internal/ledger"
	"github.com/dmagan/asadmindset-admin/internal/notifications"
	"github.com/dmagan/asadmindset-admin/internal/push"
	"github.com/dmagan/asadmindset-admin/internal/subscriptions"
	"github.com/dmagan/asadmindset-admin/pkg/config"
	"github.com/dmagan/asadmindset-admin/pkg/db"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
	"github.com/dmagan/asadmindset-admin/pkg/metrics"
	"github.com/dmagan/asadmindset-admin/pkg/migrate"
	"github.com/dmagan/asadmindset-admin/pkg/realtime"
	"github.com/dmagan/asadmindset-admin/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	discountRepo := discounts.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())

	ledgerService, err := ledger.NewService(ledger.ServiceParams{Repo: ledgerRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	notifier, err := buildNotifier(context.Background(), cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:         subscriptionRepo,
		DiscountRepo: discountRepo,
		LedgerRepo:   ledgerRepo,
		Tx:           dbClient,
		Notifier:     notifier,
		Billing:      cfg.Billing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	if err := registerJobs(registry, logg, metricsCollector, subscriptionService, ledgerService); err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func registerJobs(registry *cron.Registry, logg *logger.Logger, mets *metrics.CronJobMetrics, subs subscriptions.Service, ledg ledger.Service) error {
	subParams := cron.SubscriptionJobParams{Logger: logg, Runner: subs, Metrics: mets}
	expiry, err := cron.NewSubscriptionExpiryJob(subParams)
	if err != nil {
		return err
	}
	reminder, err := cron.NewRenewalReminderJob(subParams)
	if err != nil {
		return err
	}
	winback, err := cron.NewWinBackJob(subParams)
	if err != nil {
		return err
	}
	audit, err := cron.NewDiscountAuditJob(cron.DiscountAuditJobParams{Logger: logg, Ledger: ledg, Metrics: mets})
	if err != nil {
		return err
	}

	registry.Register(expiry)
	registry.Register(reminder)
	registry.Register(winback)
	registry.Register(audit)
	return nil
}

// buildNotifier mirrors the api wiring so expiry, reminder and win-back jobs
// can reach users. Missing Pusher or FCM credentials degrade to no-ops.
func buildNotifier(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*notifications.Notifier, error) {
	var relay realtime.Publisher
	if cfg.Pusher.Enabled() {
		client, err := realtime.NewClient(realtime.Options{
			AppID:   cfg.Pusher.AppID,
			Key:     cfg.Pusher.Key,
			Secret:  cfg.Pusher.Secret,
			Cluster: cfg.Pusher.Cluster,
			Timeout: cfg.Pusher.Timeout,
		})
		if err != nil {
			return nil, err
		}
		relay = client
	}

	var sender push.Sender
	if cfg.FCM.Enabled() {
		fcmClient, err := push.NewFCMClient(ctx, push.FCMOptions{
			ProjectID:       cfg.FCM.ProjectID,
			CredentialsJSON: cfg.FCM.CredentialsJSON,
			Timeout:         cfg.FCM.Timeout,
		})
		if err != nil {
			return nil, err
		}
		sender = fcmClient
	}

	pushService, err := push.NewService(push.ServiceParams{
		Repo:             push.NewRepository(dbClient.DB()),
		Sender:           sender,
		Logger:           logg,
		MaxTokensPerUser: cfg.FCM.MaxTokensPerUser,
	})
	if err != nil {
		return nil, err
	}

	return notifications.NewNotifier(notifications.NotifierParams{
		Relay:  relay,
		Push:   pushService,
		Logger: logg,
	})
}

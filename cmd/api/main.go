package main

import (
	"context"
	"net/http"
	"os"

	"github.com/dmagan/asadmindset-admin/api/routes"
	"github.com/dmagan/asadmindset-admin/internal/discounts"
	"github.com/dmagan/asadmindset-admin/internal/ledger"
	"github.com/dmagan/asadmindset-admin/internal/notifications"
	"github.com/dmagan/asadmindset-admin/internal/push"
	"github.com/dmagan/asadmindset-admin/internal/subscriptions"
	"github.com/dmagan/asadmindset-admin/pkg/config"
	"github.com/dmagan/asadmindset-admin/pkg/db"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
	"github.com/dmagan/asadmindset-admin/pkg/migrate"
	"github.com/dmagan/asadmindset-admin/pkg/realtime"
	"github.com/dmagan/asadmindset-admin/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	discountService, err := discounts.NewService(discounts.ServiceParams{
		Repo: discountRepo,
		Tx:   dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create discounts service", err)
		os.Exit(1)
	}

	pushService, err := buildPushService(context.Background(), cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create push service", err)
		os.Exit(1)
	}

	notifier, err := buildNotifier(cfg, logg, pushService)
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

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DBPinger:      dbClient,
			RedisPinger:   redisClient,
			Discounts:     discountService,
			Subscriptions: subscriptionService,
			Push:          pushService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildPushService wires FCM delivery when credentials are configured and
// falls back to bookkeeping-only mode otherwise.
func buildPushService(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (push.Service, error) {
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
	} else {
		logg.Warn(ctx, "fcm not configured, push delivery disabled")
	}

	return push.NewService(push.ServiceParams{
		Repo:             push.NewRepository(dbClient.DB()),
		Sender:           sender,
		Logger:           logg,
		MaxTokensPerUser: cfg.FCM.MaxTokensPerUser,
	})
}

// buildNotifier wires the realtime relay when Pusher credentials are present.
// A missing relay still produces a working notifier: push notifications go
// out and realtime events are dropped.
func buildNotifier(cfg *config.Config, logg *logger.Logger, pushService push.Service) (*notifications.Notifier, error) {
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
	} else {
		logg.Warn(context.Background(), "pusher not configured, realtime events disabled")
	}

	return notifications.NewNotifier(notifications.NotifierParams{
		Relay:  relay,
		Push:   pushService,
		Logger: logg,
	})
}

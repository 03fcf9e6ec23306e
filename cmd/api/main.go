package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/playabars/playabars-backend/api/controllers"
	"github.com/playabars/playabars-backend/api/routes"
	"github.com/playabars/playabars-backend/internal/bars"
	"github.com/playabars/playabars-backend/internal/connect"
	"github.com/playabars/playabars-backend/internal/fees"
	"github.com/playabars/playabars-backend/internal/payments"
	"github.com/playabars/playabars-backend/internal/subscriptions"
	"github.com/playabars/playabars-backend/internal/teardown"
	stripewebhooks "github.com/playabars/playabars-backend/internal/webhooks/stripe"
	"github.com/playabars/playabars-backend/pkg/config"
	"github.com/playabars/playabars-backend/pkg/db"
	"github.com/playabars/playabars-backend/pkg/logger"
	"github.com/playabars/playabars-backend/pkg/migrate"
	"github.com/playabars/playabars-backend/pkg/redis"
	pkgstripe "github.com/playabars/playabars-backend/pkg/stripe"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	barsRepo := bars.NewRepository(dbClient.DB())

	connectService, err := connect.NewService(connect.ServiceParams{
		Client:        connect.NewStripeClient(stripeClient),
		Bars:          barsRepo,
		Logger:        logg,
		PublicBaseURL: cfg.App.PublicBaseURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create connect service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Client:         payments.NewStripeClient(stripeClient),
		Destinations:   connectService,
		Logger:         logg,
		FeePolicy:      fees.Policy{RateBasisPoints: cfg.Stripe.PlatformFeeBps},
		RequestTimeout: cfg.Stripe.RequestTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:   subscriptions.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhooks.NewService(stripewebhooks.ServiceParams{
		Subscriptions: subscriptionService,
		Guard:         redisClient,
		Logger:        logg,
		SigningSecret: stripeClient.SigningSecret(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	teardownService, err := teardown.NewService(teardown.ServiceParams{
		Bars:     barsRepo,
		Accounts: connectService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create teardown service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config: cfg,
			Logger: logg,
			Redis:  redisClient,
			Probes: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Connect:        connectService,
			AccountDeleter: connectService,
			Teardown:       teardownService,
			Payments:       paymentService,
			StripeWebhook:  webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

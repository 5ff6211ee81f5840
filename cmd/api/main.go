package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opsdeskhq/opsdesk-backend/api/routes"
	"github.com/opsdeskhq/opsdesk-backend/internal/inventory"
	"github.com/opsdeskhq/opsdesk-backend/internal/notifications"
	"github.com/opsdeskhq/opsdesk-backend/internal/recruitment"
	"github.com/opsdeskhq/opsdesk-backend/pkg/config"
	"github.com/opsdeskhq/opsdesk-backend/pkg/db"
	"github.com/opsdeskhq/opsdesk-backend/pkg/events"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
	"github.com/opsdeskhq/opsdesk-backend/pkg/metrics"
	"github.com/opsdeskhq/opsdesk-backend/pkg/migrate"
	"github.com/opsdeskhq/opsdesk-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	meter := metrics.New(registry)
	bus := events.NewBus()

	recruitmentService, err := recruitment.NewService(recruitment.ServiceParams{
		Repo:           recruitment.NewRepository(dbClient.DB()),
		Jobs:           recruitment.NewJobRepository(dbClient.DB()),
		Bus:            bus,
		Metrics:        meter,
		IDPrefix:       cfg.Recruitment.IDPrefix,
		SequenceDigits: cfg.Recruitment.SequenceDigits,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create recruitment service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:    inventory.NewRepository(dbClient.DB()),
		Bus:     bus,
		Metrics: meter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo: notificationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	if _, err := notifications.RegisterWriter(notifications.WriterParams{
		Repo:        notificationsRepo,
		Log:         logg,
		Bus:         bus,
		OnSubmitted: cfg.Recruitment.NotifyOnSubmitted,
		OnLowStock:  cfg.Inventory.NotifyOnLowStock,
	}); err != nil {
		logg.Error(context.Background(), "failed to register notification writer", err)
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
			Config:          cfg,
			Logger:          logg,
			Metrics:         meter,
			DBPinger:        dbClient,
			RedisPinger:     redisClient,
			Idempotency:     redisClient,
			Recruitment:     recruitmentService,
			Inventory:       inventoryService,
			Notifications:   notificationsService,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

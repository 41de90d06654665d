package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/agrimandi/agrimandi-backend/internal/cron"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	"github.com/agrimandi/agrimandi-backend/internal/orders"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/metrics"
	"github.com/agrimandi/agrimandi-backend/pkg/redis"
)

const lockKeyFormat = "am:cron-worker:lock:%s"

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cronMetrics := metrics.NewCronJobMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	orderTTLJob, err := cron.NewOrderTTLJob(cron.OrderTTLJobParams{
		Logger:  logg,
		DB:      dbClient,
		Orders:  ordersRepo,
		TTLDays: cfg.Cron.OrderTTLDays,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order ttl job", err)
		os.Exit(1)
	}

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:        logg,
		Notifications: notificationsRepo,
		RetentionDays: cfg.Cron.NotificationRetentionDays,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, fmt.Sprintf(lockKeyFormat, cfg.App.Env), 2*cfg.Cron.Interval)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(orderTTLJob, cleanupJob),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(runCtx, "starting cron worker")

	if err := service.Run(runCtx); err != nil && err != context.Canceled {
		logg.Error(runCtx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "cron worker stopped")
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrimandi/agrimandi-backend/api/routes"
	"github.com/agrimandi/agrimandi-backend/internal/auth"
	"github.com/agrimandi/agrimandi-backend/internal/hubs"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	"github.com/agrimandi/agrimandi-backend/internal/orders"
	"github.com/agrimandi/agrimandi-backend/internal/payments"
	"github.com/agrimandi/agrimandi-backend/internal/products"
	"github.com/agrimandi/agrimandi-backend/internal/users"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db"
	"github.com/agrimandi/agrimandi-backend/pkg/gateway"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/mail"
	"github.com/agrimandi/agrimandi-backend/pkg/metrics"
	"github.com/agrimandi/agrimandi-backend/pkg/migrate"
	"github.com/agrimandi/agrimandi-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mm := metrics.NewMarketplaceMetrics(registry)

	mailer := mail.NewSMTPSender(cfg.SMTP)

	gatewayClient, err := gateway.NewClient(cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	hubsRepo := hubs.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	otpStore, err := auth.NewEmailOTPStore(redisClient, cfg.Password, cfg.OTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create otp store", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:       userRepo,
		OTPStore:       otpStore,
		Mailer:         mailer,
		Logger:         logg,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	dispatcher, err := notifications.NewDispatcher(notificationsRepo, userRepo, mailer, logg, mm)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(productsRepo, dispatcher, products.AdvancePolicy{
		ThresholdPaise: cfg.BulkReview.AdvanceThresholdPaise,
		Percent:        int64(cfg.BulkReview.AdvancePercent),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		ordersRepo,
		dbClient,
		products.NewCatalog(productsRepo),
		hubs.NewRecorder(hubsRepo),
		nil,
		dispatcher,
		mm,
		orders.LowStockBand{Floor: cfg.Orders.LowStockFloor, Ceiling: cfg.Orders.LowStockCeiling},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(ordersRepo, gatewayClient, dispatcher, mm)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	hubsService, err := hubs.NewService(hubs.ServiceParams{
		Repo:     hubsRepo,
		Users:    userRepo,
		Mailer:   mailer,
		Notifier: dispatcher,
		Logger:   logg,
		Metrics:  mm,
		OTP:      cfg.OTP,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create hubs service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			authService,
			registerService,
			productsService,
			ordersService,
			paymentsService,
			hubsService,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

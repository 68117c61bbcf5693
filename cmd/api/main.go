package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/worldleaderio/worldleader-backend/api"
	"github.com/worldleaderio/worldleader-backend/api/routes"
	"github.com/worldleaderio/worldleader-backend/internal/auth"
	"github.com/worldleaderio/worldleader-backend/internal/leaderboard"
	"github.com/worldleaderio/worldleader-backend/internal/notifications"
	"github.com/worldleaderio/worldleader-backend/internal/purchase"
	"github.com/worldleaderio/worldleader-backend/internal/ranking"
	"github.com/worldleaderio/worldleader-backend/internal/users"
	"github.com/worldleaderio/worldleader-backend/pkg/auth/session"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
	"github.com/worldleaderio/worldleader-backend/pkg/metrics"
	"github.com/worldleaderio/worldleader-backend/pkg/migrate"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox"
	"github.com/worldleaderio/worldleader-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	purchaseMetrics := metrics.NewPurchaseMetrics(prometheus.DefaultRegisterer)
	engine := ranking.NewEngine(logg, purchaseMetrics)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	userRepo := users.NewRepository(dbClient.DB())
	purchaseRepo := purchase.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Engine:         engine,
		Outbox:         outboxService,
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	resetService, err := auth.NewPasswordResetService(auth.PasswordResetServiceParams{
		DB:             dbClient,
		Outbox:         outboxService,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create password reset service", err)
		os.Exit(1)
	}

	purchaseService, err := purchase.NewService(
		dbClient,
		purchaseRepo,
		engine,
		outboxService,
		cfg.Purchase,
		logg,
		purchaseMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	leaderboardService, err := leaderboard.NewService(dbClient.DB(), cfg.Leaderboard)
	if err != nil {
		logg.Error(context.Background(), "failed to create leaderboard service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(dbClient.DB(), userRepo, purchaseRepo, notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		DB:             dbClient,
		Redis:          redisClient,
		SessionManager: sessionManager,
		Auth:           authService,
		Register:       registerService,
		PasswordReset:  resetService,
		Purchase:       purchaseService,
		Leaderboard:    leaderboardService,
		Users:          usersService,
		Notifications:  notificationsService,
		Metrics:        prometheus.DefaultGatherer,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(addr, handler, logg)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

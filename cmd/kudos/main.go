package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kudoshq/kudos/internal/app"
	"github.com/kudoshq/kudos/internal/auth"
	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/platform/cache"
	"github.com/kudoshq/kudos/internal/platform/db"
	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/quantify"
	"github.com/kudoshq/kudos/internal/settings"
	"github.com/kudoshq/kudos/internal/shared"
	"github.com/kudoshq/kudos/internal/users"
	"github.com/kudoshq/kudos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, detail cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	periodRepo := periods.NewRepository(pool)
	periodService := periods.NewService(periodRepo, auditLogger, jobs.NewEnqueuer(asynqClient), logger)

	praiseRepo := praise.NewRepository(pool)
	praiseService := praise.NewService(praiseRepo, periodService)

	userService := users.NewService(users.NewRepository(pool))
	settingService := settings.NewService(settings.NewRepository(pool))

	var detailCache quantify.DetailCache
	if redisClient != nil {
		detailCache = quantify.NewRedisDetailCache(redisClient, cfg.DetailCacheTTL, logger)
	}
	quantifyService := quantify.NewService(
		periodService,
		praiseRepo,
		userService,
		settingService,
		quantify.NewRepository(pool),
		detailCache,
		auditLogger,
		logger,
	)

	guard := auth.NewAPIKeyGuard(cfg.AdminKeyHash, logger)
	if cfg.AdminKeyHash == "" && cfg.IsProduction() {
		logger.Error("admin key hash required in production")
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		PeriodsHandler:  periods.NewHandler(logger, periodService),
		PraiseHandler:   praise.NewHandler(logger, praiseService),
		QuantifyHandler: quantify.NewHandler(logger, quantifyService),
		AdminGuard:      guard.Require,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

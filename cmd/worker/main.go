package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kudoshq/kudos/internal/app"
	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/platform/db"
	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/quantify"
	"github.com/kudoshq/kudos/internal/settings"
	"github.com/kudoshq/kudos/internal/users"
	"github.com/kudoshq/kudos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	periodService := periods.NewService(periods.NewRepository(pool), nil, nil, logger)
	praiseRepo := praise.NewRepository(pool)
	quantifyService := quantify.NewService(
		periodService,
		praiseRepo,
		users.NewService(users.NewRepository(pool)),
		settings.NewService(settings.NewRepository(pool)),
		quantify.NewRepository(pool),
		nil,
		nil,
		logger,
	)

	exportJob := jobs.NewPeriodExportJob(quantifyService, pool, logger)
	rebuildJob := jobs.NewCompositeRebuildJob(quantifyService, periodService, logger)

	// An empty payload makes the nightly run sweep every QUANTIFY period.
	nightlyRebuild, err := jobs.NewCompositeRebuildTask(jobs.CompositeRebuildPayload{})
	if err != nil {
		logger.Error("build rebuild task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePeriodExport, Handler: exportJob.Handle},
			{Type: jobs.TaskTypeCompositeRebuild, Handler: rebuildJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: nightlyRebuild, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

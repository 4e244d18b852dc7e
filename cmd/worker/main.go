package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/copytop/printshop/internal/app"
	"github.com/copytop/printshop/internal/platform/db"
	"github.com/copytop/printshop/internal/reports"
	"github.com/copytop/printshop/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(reports.NewQueries(pool), reportCache)

	backupJob := jobs.NewDatabaseBackupJob(pool, logger, cfg.BackupDir, cfg.BackupRetention)
	warmupJob := jobs.NewReportsWarmupJob(reportService, logger)

	backupTask, err := jobs.NewDatabaseBackupTask(time.Now().UTC())
	if err != nil {
		logger.Error("build backup task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewReportsWarmupTask(time.Now().UTC())
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDatabaseBackup, Handler: backupJob.Handle},
			{Type: jobs.TaskReportsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.BackupCron, Task: backupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 5 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// Package main runs the background job worker (report exports to S3, bulk imports).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventhub/backend/config"
	"github.com/eventhub/backend/internal/activities"
	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/identity"
	"github.com/eventhub/backend/internal/importer"
	"github.com/eventhub/backend/internal/profiles"
	"github.com/eventhub/backend/internal/registrations"
	"github.com/eventhub/backend/internal/reports"
	"github.com/eventhub/backend/internal/worker"
	"github.com/eventhub/backend/pkg/database"
	"github.com/eventhub/backend/pkg/queue"
	"github.com/eventhub/backend/pkg/redis"
	"github.com/eventhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: int32(cfg.Database.MaxConns)}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ReportsBucket:        cfg.AWS.ReportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	userRepo := identity.NewRepository(pool)
	profileRepo := profiles.NewRepository(pool, profiles.NewGroupSync(cfg.Groups.General, cfg.Groups.Staff, logger))
	eventRepo := events.NewRepository(pool)
	activityRepo := activities.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	reportRepo := reports.NewRepository(pool)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	dispatcher := worker.NewDispatcher(jobQueue, logger)
	dispatcher.Handle(queue.JobTypeReportExport, reports.NewExporter(reportRepo, registrationRepo, s3Client, logger))
	dispatcher.Handle(queue.JobTypeBulkImport, importer.New(userRepo, profileRepo, eventRepo, activityRepo, registrationRepo, logger))

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		dispatcher.Run(workerCtx)
		close(stopped)
	}()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-stopped:
	case <-time.After(queue.PollTimeout + 2*time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

// Package main runs the event management HTTP server with the live registration feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventhub/backend/config"
	"github.com/eventhub/backend/internal/activities"
	"github.com/eventhub/backend/internal/analytics"
	"github.com/eventhub/backend/internal/auth"
	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/identity"
	"github.com/eventhub/backend/internal/importer"
	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/profiles"
	"github.com/eventhub/backend/internal/realtime"
	"github.com/eventhub/backend/internal/registrations"
	"github.com/eventhub/backend/internal/reports"
	"github.com/eventhub/backend/internal/worker"
	"github.com/eventhub/backend/pkg/database"
	"github.com/eventhub/backend/pkg/queue"
	"github.com/eventhub/backend/pkg/redis"
	"github.com/eventhub/backend/pkg/response"
	"github.com/eventhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: int32(cfg.Database.MaxConns)}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ReportsBucket:        cfg.AWS.ReportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Identity and profiles; saving a profile syncs group membership in the same transaction
	userRepo := identity.NewRepository(pool)
	groupStore := identity.NewGroupStore(pool)
	groupSync := profiles.NewGroupSync(cfg.Groups.General, cfg.Groups.Staff, logger)
	profileRepo := profiles.NewRepository(pool, groupSync)

	eventRepo := events.NewRepository(pool)
	activityRepo := activities.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	reportRepo := reports.NewRepository(pool)
	analyticsRepo := analytics.NewRepository(pool)

	registrationService := registrations.NewService(registrationRepo, hub, logger)
	bulkImporter := importer.New(userRepo, profileRepo, eventRepo, activityRepo, registrationRepo, logger)

	identityHandler := identity.NewHandler(userRepo, groupStore, profileRepo, logger)
	profileHandler := profiles.NewHandler(profileRepo, userRepo, registrationRepo, activityRepo, logger)
	eventHandler := events.NewHandler(eventRepo, activityRepo, registrationRepo, logger)
	activityHandler := activities.NewHandler(activityRepo, logger)
	registrationHandler := registrations.NewHandler(registrationRepo, registrationService, logger)
	analyticsHandler := analytics.NewHandler(analyticsRepo, eventRepo, registrationRepo, activityRepo, logger)
	importHandler := importer.NewHandler(bulkImporter, jobQueue, logger)

	var reportObjects reports.ObjectStore
	if s3Client != nil {
		reportObjects = s3Client
	}
	reportHandler := reports.NewHandler(reportRepo, eventRepo, jobQueue, reportObjects, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/ready", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Healthy(c.Request.Context()); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ready"})
	})

	registerRoutes(router, handlers{
		identity:      identityHandler,
		profiles:      profileHandler,
		events:        eventHandler,
		activities:    activityHandler,
		registrations: registrationHandler,
		analytics:     analyticsHandler,
		importer:      importHandler,
		reports:       reportHandler,
	}, jwtService)

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws/events/:id", realtime.ServeWs(hub, jwtService, splitOrigins(cfg.Server.CORSAllowedOrigins), logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Optional in-process worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Worker.Enabled {
		dispatcher := worker.NewDispatcher(jobQueue, logger)
		dispatcher.Handle(queue.JobTypeBulkImport, bulkImporter)
		if s3Client != nil {
			dispatcher.Handle(queue.JobTypeReportExport, reports.NewExporter(reportRepo, registrationRepo, s3Client, logger))
		} else {
			logger.Warn("report exports disabled in embedded worker: s3 not configured")
		}
		go dispatcher.Run(workerCtx)
		logger.Info("embedded worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	syncapp "github.com/erp/woosync/internal/application/woosync"
	"github.com/erp/woosync/internal/infrastructure/auth"
	"github.com/erp/woosync/internal/infrastructure/config"
	"github.com/erp/woosync/internal/infrastructure/logger"
	"github.com/erp/woosync/internal/infrastructure/persistence"
	"github.com/erp/woosync/internal/infrastructure/scheduler"
	"github.com/erp/woosync/internal/infrastructure/storage"
	"github.com/erp/woosync/internal/infrastructure/telemetry"
	"github.com/erp/woosync/internal/infrastructure/woocommerce"
	"github.com/erp/woosync/internal/interfaces/http/handler"
	"github.com/erp/woosync/internal/interfaces/http/middleware"
	"github.com/erp/woosync/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting WooCommerce sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", handler.Version),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    handler.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    handler.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    handler.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = logger.Tee(log, logsProvider.ZapCore(log.Level()))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == config.DriverSQLite {
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if db.Driver() == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Database.SlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	store := persistence.NewGormStore(db.DB)

	// WooCommerce adapter
	wooConfig := &woocommerce.Config{
		APIPath:           cfg.WooCommerce.APIPath,
		PageSize:          cfg.WooCommerce.PageSize,
		TestPageSize:      cfg.WooCommerce.TestPageSize,
		RequestsPerSecond: cfg.WooCommerce.RequestsPerSecond,
		Burst:             cfg.WooCommerce.Burst,
		MaxResponseSize:   cfg.WooCommerce.MaxResponseSize,
		ImageTimeout:      cfg.WooCommerce.ImageTimeout,
		UserAgent:         cfg.WooCommerce.UserAgent,
	}
	connector, err := woocommerce.NewConnector(wooConfig, woocommerce.WithLogger(log.Named("woocommerce")))
	if err != nil {
		log.Fatal("Invalid WooCommerce adapter configuration", zap.Error(err))
	}

	imageStore, err := newImageStore(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	images := woocommerce.NewImageFetcher(wooConfig, imageStore, log.Named("images"))

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meterProvider.Meter("woosync"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize sync metrics", zap.Error(err))
	}

	orchestrator := syncapp.NewOrchestrator(syncapp.Dependencies{
		Store:     store,
		Connector: connector,
		Images:    images,
		Metrics:   syncMetrics,
		Logger:    log.Named("sync"),
	})
	syncService := syncapp.NewService(store, orchestrator, log)

	// Scheduler
	runLock, closeLock, err := newRunLock(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize run lock", zap.Error(err))
	}
	defer closeLock()

	jobScheduler, err := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Workers:    cfg.Scheduler.Workers,
		QueueSize:  cfg.Scheduler.QueueSize,
		JobTimeout: cfg.Scheduler.JobTimeout,
		MaxHistory: cfg.Scheduler.MaxHistory,
	}, syncService, runLock, log.Named("scheduler"))
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	if err := jobScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := jobScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}()

	if cfg.Scheduler.Enabled {
		cronTrigger := scheduler.NewCronTrigger(jobScheduler, store.Configurations(), log.Named("cron"))
		if err := cronTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sync cron trigger", zap.Error(err))
		}
		syncService.SetScheduleUpdater(cronTrigger)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := cronTrigger.Stop(stopCtx); err != nil {
				log.Error("Error stopping sync cron trigger", zap.Error(err))
			}
		}()
	} else {
		log.Info("Auto-sync disabled, scheduled configurations will not run")
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", middleware.Timeout(cfg.HTTP.RequestTimeout), healthHandler(db, log))

	bounded := middleware.Timeout(cfg.HTTP.RequestTimeout)
	runLimiter := middleware.NewRateLimiter(cfg.HTTP.RunRateLimit, cfg.HTTP.RunRateWindow)
	defer runLimiter.Close()

	tokens := auth.NewTokenService(cfg.JWT)
	if cfg.JWT.Secret == "" {
		log.Warn("jwt.secret is empty, every sync API request will be rejected")
	}
	requireToken := middleware.JWTAuth(tokens, log.Named("auth"))

	syncHandler := handler.NewSyncHandler(syncService, jobScheduler)
	syncRoutes := router.NewDomainGroup("sync", "/sync").Use(requireToken)
	syncRoutes.GET("/configurations", bounded, syncHandler.ListConfigurations)
	syncRoutes.POST("/configurations", bounded, syncHandler.SaveConfiguration)
	syncRoutes.GET("/configurations/:id", bounded, syncHandler.GetConfiguration)
	syncRoutes.PUT("/configurations/:id/schedule", bounded, syncHandler.UpdateSchedule)
	syncRoutes.PUT("/configurations/:id/stock/:product_id", bounded, syncHandler.AdjustStock)
	// A synchronous run lasts as long as a scheduled job
	syncRoutes.POST("/configurations/:id/run",
		middleware.RateLimitByKey(runLimiter, middleware.ConfigurationRunKey),
		middleware.Timeout(cfg.Scheduler.JobTimeout),
		syncHandler.RunSync,
	)
	syncRoutes.GET("/jobs", bounded, syncHandler.ListJobs)
	syncRoutes.GET("/jobs/:id", bounded, syncHandler.GetJob)

	systemHandler := handler.NewSystemHandler(jobScheduler)
	systemRoutes := router.NewDomainGroup("system", "/system").Use(bounded)
	systemRoutes.GET("/info", requireToken, systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(syncRoutes).Register(systemRoutes)
	r.Setup()

	for _, group := range []*router.DomainGroup{syncRoutes, systemRoutes} {
		for _, route := range group.Routes() {
			log.Debug("Route registered",
				zap.String("method", route.Method),
				zap.String("path", r.BasePath()+route.Path),
			)
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newImageStore returns the S3 store when storage is enabled, else an in-memory store
func newImageStore(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (woocommerce.ImageStore, error) {
	if !cfg.Enabled {
		log.Warn("Object storage disabled, product images are kept in memory")
		return storage.NewMemoryImageStore(), nil
	}
	s3Store, err := storage.NewS3ImageStore(cfg, storage.WithLogger(log.Named("storage")))
	if err != nil {
		return nil, err
	}
	if err := s3Store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Object storage ready", zap.String("bucket", s3Store.Bucket()))
	return s3Store, nil
}

// newRunLock returns a Redis lock shared across instances when Redis is enabled,
// else a lock local to this process
func newRunLock(ctx context.Context, cfg *config.Config, log *zap.Logger) (scheduler.RunLock, func(), error) {
	if !cfg.Redis.Enabled {
		return scheduler.NewMemoryRunLock(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		closeClient()
		return nil, nil, err
	}
	lock, err := scheduler.NewRedisRunLock(client, scheduler.RedisRunLockConfig{
		TTL:             cfg.Scheduler.LockTTL,
		RefreshInterval: cfg.Scheduler.LockRefreshInterval,
	}, log.Named("runlock"))
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	log.Info("Using redis run lock", zap.String("addr", cfg.Redis.Addr()))
	return lock, closeClient, nil
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(c.Request.Context()); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

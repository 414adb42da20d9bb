package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/siocms/backend/internal/application/cms"
	"github.com/siocms/backend/internal/infrastructure/cache"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/metrics"
	"github.com/siocms/backend/internal/infrastructure/migration"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/storage"
	"github.com/siocms/backend/internal/infrastructure/telemetry"
	"github.com/siocms/backend/internal/interfaces/http/handler"
	"github.com/siocms/backend/internal/interfaces/http/middleware"
	"github.com/siocms/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var migrate bool
	flag.BoolVar(&migrate, "migrate", false, "Apply pending schema migrations before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting SIO CMS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Database.SlowThreshold,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}

	if migrate {
		// The migrator is not closed: closing it would close the shared pool.
		m, err := migration.New(sqlDB, cfg.Database.Driver, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
	}

	files, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize file store", zap.Error(err))
	}

	configCache, err := cache.New(cfg.Redis, cfg.Cache, !cfg.App.IsProduction(), log)
	if err != nil {
		log.Fatal("Failed to initialize configuration cache", zap.Error(err))
	}
	defer func() {
		_ = configCache.Close()
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	metrics.RegisterDBStats(registry, db)

	svc, err := cms.NewServices(cms.Deps{
		DB:       db.DB,
		Files:    files,
		Cache:    configCache,
		CMS:      cfg.CMS,
		CacheKey: cfg.Cache.KeyPrefix,
		Logger:   log,
		Recorder: collector,
	})
	if err != nil {
		log.Fatal("Failed to initialize CMS services", zap.Error(err))
	}

	engineCfg := router.EngineConfig{
		Logger:           log,
		DefaultCulture:   cfg.CMS.DefaultCulture,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		MaxBodyBytes:     cfg.HTTP.MaxBodyBytes,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		System: handler.NewSystemHandler(cfg.App.Name, version, sqlDB),
	}
	if cfg.HTTP.MetricsEnabled {
		engineCfg.Metrics = collector
		engineCfg.Gatherer = registry
	}
	engine := router.NewEngine(engineCfg)

	router.NewRouter(engine).
		Register(
			handler.NewThemeHandler(svc, log),
			handler.NewTemplateHandler(svc, log),
			handler.NewModuleHandler(svc, log),
			handler.NewPageHandler(svc, log),
			handler.NewConfigurationHandler(svc),
		).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := svc.WaitCleanups(shutdownCtx); err != nil {
		log.Warn("Cleanups interrupted by shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

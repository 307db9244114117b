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
	"go.uber.org/zap"

	shipmentapp "github.com/tradeops/backend/internal/application/shipment"
	"github.com/tradeops/backend/internal/infrastructure/cache"
	"github.com/tradeops/backend/internal/infrastructure/config"
	"github.com/tradeops/backend/internal/infrastructure/logger"
	"github.com/tradeops/backend/internal/infrastructure/persistence"
	"github.com/tradeops/backend/internal/infrastructure/storage"
	"github.com/tradeops/backend/internal/infrastructure/strategy"
	"github.com/tradeops/backend/internal/infrastructure/telemetry"
	"github.com/tradeops/backend/internal/interfaces/http/handler"
	"github.com/tradeops/backend/internal/interfaces/http/middleware"
	"github.com/tradeops/backend/internal/interfaces/http/router"

	_ "github.com/tradeops/backend/docs"
)

//	@title			TradeOps Backend API
//	@version		1.0
//	@description	Goods payment allocation across the suppliers of a shipment

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTEL logs need a logger of their own to report setup, so the final
	// logger is rebuilt with the bridge core once the provider exists.
	exporter := telemetry.Exporter{
		Endpoint:    cfg.Telemetry.CollectorEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Exporter: exporter,
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		log, err = logger.New(logCfg, telemetry.NewZapOTELCore(logProvider, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting TradeOps Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Exporter:      exporter,
		Enabled:       cfg.Telemetry.Enabled,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Exporter:       exporter,
		Enabled:        cfg.Telemetry.Enabled,
		ExportInterval: cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	gormOpts := []logger.GormLoggerOption{logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh)}
	if !cfg.Telemetry.DBLogFullSQL {
		gormOpts = append(gormOpts, logger.WithMaxSQLLength(2048))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	poolMetrics, err := telemetry.RegisterPoolMetrics(meterProvider.Meter("tradeops.db"), db.Stats)
	if err != nil {
		log.Fatal("Failed to register database pool metrics", zap.Error(err))
	}
	defer func() { _ = poolMetrics.Unregister() }()
	log.Info("Database connected successfully")

	allocationService, err := newAllocationService(ctx, cfg, db, meterProvider, log)
	if err != nil {
		log.Fatal("Failed to initialize allocation service", zap.Error(err))
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - Server span plus request/tenant attributes
	// 5. Metrics, Profiling - Per-route instrumentation
	// 6. Security, CORS, BodyLimit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, logger.WithSkipPaths("/health", "/health/ready")))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))

	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantCfg))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = cfg.Profiling.Enabled
	engine.Use(middleware.ProfilingWithConfig(profilingCfg))
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	router.RegisterSystemRoutes(engine, handler.NewSystemHandler(cfg.App.Name, version, db))
	router.RegisterSwagger(engine, middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1")).Register(
		router.StrategyRoutes(handler.NewStrategyHandler(allocationService)),
		router.ShipmentRoutes(handler.NewGoodsPaymentHandler(allocationService)),
	)
	r.Setup()
	for _, route := range r.Routes() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down OTEL logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newAllocationService wires the allocation service to its repositories and
// the optional idempotency, snapshot and metrics backends.
func newAllocationService(
	ctx context.Context,
	cfg *config.Config,
	db *persistence.Database,
	meterProvider *telemetry.MeterProvider,
	log *zap.Logger,
) (*shipmentapp.AllocationService, error) {
	registry, err := strategy.NewRegistryWithDefault(cfg.Allocation.DefaultStrategy)
	if err != nil {
		return nil, err
	}
	log.Info("Allocation strategies registered",
		zap.Strings("strategies", registry.ListAllocationStrategies()),
		zap.String("default", registry.Default()),
	)

	metrics, err := telemetry.NewAllocationMetrics(meterProvider.Meter("tradeops.allocation"))
	if err != nil {
		return nil, err
	}

	opts := []shipmentapp.Option{
		shipmentapp.WithLogger(log),
		shipmentapp.WithMetrics(metrics),
	}

	if cfg.Allocation.IdempotencyEnabled {
		store, err := cache.OpenIdempotencyStore(ctx, cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.App.IsProduction()),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, shipmentapp.WithIdempotencyStore(store, cfg.Allocation.IdempotencyTTL))
	}

	if cfg.Allocation.ArchiveSnapshots {
		snapshots, err := newSnapshotStorage(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		archiver := shipmentapp.NewSnapshotArchiver(snapshots, cfg.Storage.Prefix, cfg.Storage.PresignExpiration)
		opts = append(opts, shipmentapp.WithSnapshotArchiver(archiver))
	}

	return shipmentapp.NewAllocationService(
		persistence.NewGormShipmentRepository(db.DB),
		persistence.NewGormGoodsPaymentRepository(db.DB),
		registry,
		opts...,
	), nil
}

func newSnapshotStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (shipmentapp.SnapshotStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, payment snapshots are kept in memory")
		return storage.NewMemoryObjectStorage(""), nil
	}

	s3Storage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s3Storage.EnsureBucket(ensureCtx); err != nil {
		return nil, err
	}
	log.Info("Payment snapshots archived to object storage",
		zap.String("bucket", s3Storage.Bucket()),
		zap.String("prefix", cfg.Storage.Prefix),
	)
	return s3Storage, nil
}

// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankcore/internal/config"
	"bankcore/internal/handlers"
	applog "bankcore/internal/logger"
	"bankcore/internal/metrics"
	"bankcore/internal/middleware"
	"bankcore/internal/repositories"
	"bankcore/internal/repositories/cache"
	"bankcore/internal/routes"
	"bankcore/internal/services/audit"
	"bankcore/internal/services/ledger"
	"bankcore/internal/services/otp"
	"bankcore/internal/services/transfer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	config.LoadEnv()
	cfg := config.Load()

	log, err := applog.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.InitDB(cfg.Database, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	redisClient := cache.NewRedisClient(cfg.Redis)
	cacheService := cache.NewCacheService(redisClient, cfg.Redis.BalanceTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.Warn("failed to close redis connection", zap.Error(err))
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		log.Warn("redis unavailable at startup, balances will be read from the database", zap.Error(err))
	}

	// Periodic check of connection pool stats
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := sqlDB.Stats()
				log.Debug("db pool stats",
					zap.Int("open", stats.OpenConnections),
					zap.Int("idle", stats.Idle),
					zap.Int("in_use", stats.InUse),
					zap.Int64("wait_count", stats.WaitCount),
					zap.Duration("wait_duration", stats.WaitDuration))
				rs := cacheService.GetStats()
				log.Debug("redis pool stats",
					zap.Uint32("hits", rs.Hits),
					zap.Uint32("misses", rs.Misses),
					zap.Uint32("timeouts", rs.Timeouts),
					zap.Uint32("total_conns", rs.TotalConns),
					zap.Uint32("idle_conns", rs.IdleConns))
			}
		}
	}()

	var writer audit.Writer
	switch cfg.Audit.Writer {
	case "log":
		writer = audit.NewLogWriter(log)
	default:
		writer = audit.NewDBWriter(db)
	}
	sink := audit.NewAsyncSink(writer, log.Named("audit"), audit.SinkConfig{
		BufferSize:   cfg.Audit.BufferSize,
		WriteTimeout: cfg.Audit.WriteTimeout,
	})

	meterProvider, err := metrics.NewMeterProvider(ctx, cfg.Metrics)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(meterProvider)
	if cfg.Metrics.Endpoint == "" {
		log.Warn("OTEL_EXPORTER_OTLP_ENDPOINT not set, metrics are not exported")
	}

	collector, err := metrics.NewOtelCollector(meterProvider)
	if err != nil {
		return err
	}

	store := repositories.NewGormStore(db, cfg.Transfer.LockTimeout)
	ledgerService := ledger.NewService(store, cacheService, log)
	otpService := otp.NewService(redisClient, otp.NewLogSender(log), cfg.OTP.TTL, log)

	deps := transfer.Deps{
		Store:    store,
		Audit:    sink,
		Metrics:  collector,
		Balances: ledgerService,
		Logger:   log,
	}
	if cfg.Transfer.RequireOTP {
		deps.OTP = otpService
	}
	transferService := transfer.NewService(deps, transfer.Config{
		UnitTimeout:    cfg.Transfer.UnitTimeout,
		MaxRetries:     cfg.Transfer.MaxRetries,
		RetryBaseDelay: cfg.Transfer.RetryBaseDelay,
		RequireOTP:     cfg.Transfer.RequireOTP,
	})

	// Create Fiber app
	app := fiber.New(fiber.Config{DisableStartupMessage: config.IsProduction()})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.Checker{
			"database": func(ctx context.Context) error { return repositories.Ping(ctx, db) },
			"redis":    cacheService.HealthCheck,
		}),
		Transfer: handlers.NewTransferHandler(transferService),
		Ledger:   handlers.NewLedgerHandler(ledgerService),
		OTP:      handlers.NewOTPHandler(otpService),
	}, middleware.NewAuthMiddleware(cfg.JWTSecret, log), cfg.HTTP)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.HTTP.Port))
		errCh <- app.Listen(":" + cfg.HTTP.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := sink.Close(shutdownCtx); err != nil {
		log.Warn("audit sink did not drain", zap.Error(err), zap.Int64("dropped", sink.Dropped()))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics did not flush", zap.Error(err))
	}
	return nil
}

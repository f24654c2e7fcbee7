package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whistlebox/docs"
	"whistlebox/internal/applog"
	"whistlebox/internal/config"
	"whistlebox/internal/database"
	handlers "whistlebox/internal/http/handler"
	"whistlebox/internal/http/middleware"
	"whistlebox/internal/ids"
	"whistlebox/internal/jobs"
	"whistlebox/internal/metrics"
	"whistlebox/internal/otel"
	"whistlebox/internal/service"
	"whistlebox/internal/storage"
)

// @title Whistlebox API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := applog.New("api", cfg.Location)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, otel.SettingsFromEnv(), logger)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}

	if cfg.Tips.ReceiptSalt == "" {
		log.Fatal("RECEIPT_SALT is required")
	}
	auth, err := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		log.Fatalf("failed to configure authentication: %v", err)
	}

	backend, err := database.Open(ctx, cfg.Database, cfg.Location)
	if err != nil {
		log.Fatalf("failed to open entity store: %v", err)
	}
	defer backend.Close()

	// Content storage is optional; without it file content is neither
	// verified, served nor destroyed.
	var objStore storage.Storage = storage.Noop{}
	if cfg.MinIO.Endpoint != "" {
		objStore, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	} else {
		logger.Warn("content_storage_disabled", nil)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lifecycleMetrics, err := metrics.New(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	svc := service.New(service.Options{
		Store:            backend.Store,
		Storage:          objStore,
		Clock:            ids.RealClock{},
		Receipts:         ids.NumericReceipts{Digits: cfg.Tips.ReceiptDigits},
		ReceiptSalt:      cfg.Tips.ReceiptSalt,
		DefaultTipTTL:    cfg.Tips.DefaultTTL,
		WhistleblowerTTL: cfg.Tips.WhistleblowerTTL,
		Tiers:            cfg.Tips.ReceiverTiers,
		Logger:           applog.New("service", cfg.Location),
		Metrics:          lifecycleMetrics,
	})

	scheduler := jobs.New(applog.New("jobs", cfg.Location), lifecycleMetrics)
	if err := scheduler.Add(jobs.JobSweep, cfg.Jobs.SweepInterval, jobs.Sweep(svc.Lifecycle, ids.RealClock{})); err != nil {
		log.Fatalf("failed to schedule sweep: %v", err)
	}
	if err := scheduler.Add(jobs.JobDrain, cfg.Jobs.DrainInterval, jobs.Drain(svc.SecureDeletes, cfg.Jobs.DrainBatch)); err != nil {
		log.Fatalf("failed to schedule drain: %v", err)
	}
	scheduler.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    1 << 20,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(cfg.Location))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:             backend,
		Services:       svc,
		Auth:           auth,
		Jobs:           scheduler,
		ReceiptLimiter: middleware.RateLimit(cfg.RateLimit.ReceiptRPS, cfg.RateLimit.ReceiptBurst),
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("http_shutdown_failed", err, nil)
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("http_listening", map[string]any{"addr": addr})
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("failed to start server: %v", err)
	}

	scheduler.Wait()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing_shutdown_failed", err, nil)
	}
}

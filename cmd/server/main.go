package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/fluencyjet/sentence-master/internal/cache"
	"github.com/fluencyjet/sentence-master/internal/config"
	"github.com/fluencyjet/sentence-master/internal/database"
	"github.com/fluencyjet/sentence-master/internal/handlers"
	"github.com/fluencyjet/sentence-master/internal/jobs"
	"github.com/fluencyjet/sentence-master/internal/logging"
	"github.com/fluencyjet/sentence-master/internal/middleware"
	"github.com/fluencyjet/sentence-master/internal/routes"
	"github.com/fluencyjet/sentence-master/internal/services"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	logging.WithDatabase(cfg.AppEnv, pgLogHandler)

	// Redis leaderboard cache is optional; without it every ranking is read
	// from Postgres. Interfaces stay nil rather than holding a nil pointer.
	var (
		redisClient *cache.Client
		scoreCache  services.LeaderboardCache
		cacheHealth handlers.HealthChecker
	)
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, leaderboard served from database", "error", err)
		} else {
			redisClient = client
			scoreCache = cache.NewLeaderboard(client)
			cacheHealth = client
		}
	}

	// Services
	resolver := services.NewAccessResolver(services.AccessPolicy{
		FreeBeginnerMax:         cfg.FreeBeginnerMax,
		FreeIntermediateLessons: cfg.FreeIntermediateLessons,
		PaywallURL:              cfg.PaywallURL,
	})
	xpService := services.NewXPService(database.DB, scoreCache, cfg.XPStrictEvents)
	contentService := services.NewContentService(database.DB, resolver, cfg.QuizRandomStrict)
	leaderboardService := services.NewLeaderboardService(database.DB, scoreCache)
	authService := services.NewAuthService(database.DB, cfg)
	userService := services.NewUserService(database.DB)
	subscriptionService := services.NewSubscriptionService(database.DB)
	importService := services.NewExerciseImportService(database.DB)

	// Background jobs
	var rebuilder jobs.LeaderboardRebuilder
	if scoreCache != nil {
		rebuilder = leaderboardService
	}
	scheduler := jobs.New(database.DB, cfg.LogRetentionDays, xpService, rebuilder)
	if err := scheduler.Start(); err != nil {
		slog.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, userService),
		Health:      handlers.NewHealthHandler(database.NewChecker(database.DB), cacheHealth),
		XP:          handlers.NewXPHandler(xpService),
		Quiz:        handlers.NewQuizHandler(contentService),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardService),
		Admin:       handlers.NewAdminHandler(importService, userService, xpService, leaderboardService),
		Webhook:     handlers.NewWebhookHandler(subscriptionService, cfg.PaymentWebhookSecret),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    6 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	scheduler.Stop()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

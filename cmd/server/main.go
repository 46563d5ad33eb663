package main

import (
	"context"
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
	"github.com/shiwutong/lostfound-backend/internal/config"
	"github.com/shiwutong/lostfound-backend/internal/database"
	"github.com/shiwutong/lostfound-backend/internal/handlers"
	"github.com/shiwutong/lostfound-backend/internal/logging"
	"github.com/shiwutong/lostfound-backend/internal/metrics"
	"github.com/shiwutong/lostfound-backend/internal/middleware"
	"github.com/shiwutong/lostfound-backend/internal/routes"
	"github.com/shiwutong/lostfound-backend/internal/services"
	"github.com/shiwutong/lostfound-backend/internal/session"
	"github.com/shiwutong/lostfound-backend/internal/storage"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBPassword == "" {
		slog.Warn("DB_PASSWORD is empty")
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

	// ERROR+ records also go to system_logs
	dbLogHandler := logging.AttachDB(database.DB)

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	uploads, err := storage.New(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		slog.Error("upload storage unavailable", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	// Services
	issuer := session.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTRememberExpiry)
	authService := services.NewAuthService(database.DB, issuer, cfg.DBRetryAttempts)
	itemService := services.NewItemService(database.DB, uploads, cfg.ListingAutoApprove, cfg.DBRetryAttempts)
	moderationService := services.NewModerationService(database.DB, itemService, cfg.DBRetryAttempts)
	favoriteService := services.NewFavoriteService(database.DB, itemService, cfg.DBRetryAttempts)
	messageService := services.NewMessageService(database.DB, cfg.DBRetryAttempts)
	aiService := services.NewAIService(database.DB, cfg)

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		cancel()
		if err != nil {
			slog.Error("admin bootstrap failed", "username", cfg.AdminUsername, "error", err)
			os.Exit(1)
		}
	}
	if cfg.AIAPIKey == "" {
		slog.Warn("AI_API_KEY not set, verification endpoints will return 502")
	}

	m := metrics.New()

	// Handlers
	h := routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Health:     handlers.NewHealthHandler(database.DB),
		Item:       handlers.NewItemHandler(itemService, m),
		Moderation: handlers.NewModerationHandler(moderationService),
		Favorite:   handlers.NewFavoriteHandler(favoriteService, m),
		Message:    handlers.NewMessageHandler(messageService, m),
		AI:         handlers.NewAIHandler(aiService, itemService, m),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.UploadMaxBytes) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler,
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
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.Metrics(m))

	routes.Setup(app, cfg, database.DB, issuer, m, uploads.Dir(), h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/handlers"
	"github.com/tradeops/factory-message-service/internal/repository"
	"github.com/tradeops/factory-message-service/internal/scheduler"
	"github.com/tradeops/factory-message-service/internal/service"
	"github.com/tradeops/factory-message-service/pkg/database"
	"github.com/tradeops/factory-message-service/pkg/logger"
	"github.com/tradeops/factory-message-service/pkg/provider"
	"github.com/tradeops/factory-message-service/pkg/redis"
	"github.com/tradeops/factory-message-service/pkg/validator"
	"github.com/tradeops/factory-message-service/routes"

	_ "github.com/tradeops/factory-message-service/docs" // swagger docs
)

// @title Factory Message Service API
// @version 1.0
// @description Supplier group-chat messaging for trade operations: outbound order notifications and inbound production status replies

// @contact.name Trade Operations Platform Team

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	// Load config
	cfg := environments.Load()

	// Hard-fail if required secrets are missing
	if cfg.Auth.MessagesAPIKey == "" {
		logger.Fatalf("MESSAGES_API_KEY is required but not set")
	}
	if cfg.Auth.SchedulerAPIKey == "" {
		logger.Fatalf("SCHEDULER_API_KEY is required but not set")
	}

	logger.Infof("Starting Factory Message Service...")

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init cache. The service degrades gracefully without it: inbound dedup
	// falls back to the database and reminder cooldowns to contact timestamps.
	var redisClient *redis.Client
	redisClient, err = redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Cache not available, dedup and cooldowns degrade: %v", err)
		redisClient = nil
	}

	// Initialize the provider client for supplier webhooks
	providerClient := provider.NewClient(cfg.Provider)

	// Initialize repositories
	supplierRepo := repository.NewSupplierRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	outboundService := service.NewOutboundService(
		supplierRepo,
		orderRepo,
		messageRepo,
		providerClient,
		cfg.Message,
	)

	var inboundService *service.InboundService
	var reminderService *service.ReminderService
	if redisClient != nil {
		inboundService = service.NewInboundService(supplierRepo, orderRepo, messageRepo, noteRepo, userRepo, redisClient)
		reminderService = service.NewReminderService(orderRepo, outboundService, redisClient, cfg.Reminder)
	} else {
		inboundService = service.NewInboundService(supplierRepo, orderRepo, messageRepo, noteRepo, userRepo, nil)
		reminderService = service.NewReminderService(orderRepo, outboundService, nil, cfg.Reminder)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize scheduler
	sched := scheduler.NewScheduler(outboundService, reminderService, cfg.Scheduler, cfg.Reminder.Interval)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	messageHandler := handlers.NewMessageHandler(outboundService)
	supplierHandler := handlers.NewSupplierHandler(supplierRepo, outboundService)
	noteHandler := handlers.NewNoteHandler(noteRepo)
	webhookHandler := handlers.NewWebhookHandler(inboundService)
	schedulerHandler := handlers.NewSchedulerHandler(sched, ctx, cfg)

	// Auto-start scheduler
	if os.Getenv("AUTO_START_SCHEDULER") != "false" {
		logger.Infof("Auto-starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start scheduler: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"x-api-key",
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, messageHandler, supplierHandler, noteHandler, webhookHandler, schedulerHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Cancel context to signal all goroutines to stop
	cancel()

	// Stop scheduler first (with timeout)
	if sched.IsRunning() {
		logger.Infof("Stopping scheduler...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping scheduler: %v", err)
			} else {
				logger.Infof("Scheduler stopped successfully")
			}
		case <-stopCtx.Done():
			logger.Warnf("Scheduler stop timeout, forcing shutdown")
		}
	}

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close cache connection
	if redisClient != nil {
		logger.Infof("Closing cache connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing cache client: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}

package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/handlers"
	"github.com/tradeops/factory-message-service/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	messageHandler *handlers.MessageHandler,
	supplierHandler *handlers.SupplierHandler,
	noteHandler *handlers.NoteHandler,
	webhookHandler *handlers.WebhookHandler,
	schedulerHandler *handlers.SchedulerHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 base group
	v1 := e.Group("/api/v1")

	// Provider-facing webhook. Authenticated per-supplier by token, not by
	// the internal API key.
	v1.POST("/webhooks/factory/:supplierId", webhookHandler.ReceiveFactoryReply)

	// Message routes with their own API key
	messages := v1.Group("/messages", middlewares.APIKeyAuth(cfg.Auth.MessagesAPIKey))

	messages.POST("", messageHandler.SendMessage)
	messages.GET("", messageHandler.GetAllMessages)
	messages.GET("/stats", messageHandler.GetStats)
	messages.POST("/replay", messageHandler.ReplayAllFailedMessages)
	messages.POST("/:id/replay", messageHandler.ReplayFailedMessage)

	// Supplier integration routes share the messages API key
	suppliers := v1.Group("/suppliers", middlewares.APIKeyAuth(cfg.Auth.MessagesAPIKey))

	suppliers.GET("", supplierHandler.ListSuppliers)
	suppliers.POST("/:id/test", supplierHandler.TestSupplierWebhook)

	// Order audit trail
	orders := v1.Group("/orders", middlewares.APIKeyAuth(cfg.Auth.MessagesAPIKey))

	orders.GET("/:id/notes", noteHandler.ListOrderNotes)

	// Scheduler routes with their own API key
	schedulerGroup := v1.Group("/scheduler", middlewares.APIKeyAuth(cfg.Auth.SchedulerAPIKey))

	schedulerGroup.POST("/start", schedulerHandler.StartScheduler)
	schedulerGroup.POST("/stop", schedulerHandler.StopScheduler)
	schedulerGroup.GET("/status", schedulerHandler.GetSchedulerStatus)
}

package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/tilvo/tasko/internal/server/http/handlers"
	"github.com/tilvo/tasko/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PaymentsFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.AssignRequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	webhookHandler := handlers.NewWebhookHandler(facade, logger)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.Any("/", webhookHandler.Receive)
	engine.Any("/webhooks/stripe", webhookHandler.Receive)
	engine.GET("/healthz", healthHandler.Check)

	return engine
}

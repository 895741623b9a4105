package routes

import (
	"net/http"

	"contentpay_backend/internal/auth"
	"contentpay_backend/internal/handlers"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the v1 API. Every route sees the caller identity;
// handlers decide whether it is required.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	tokens *auth.Manager,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	api.Use(middleware.IdentityMiddleware(tokens))
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.PaymentHandler.RegisterRoutes(api)
		appHandlers.WebhookHandler.RegisterRoutes(api)
		appHandlers.BillingHandler.RegisterRoutes(api)
		appHandlers.SettlementHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
	}
	logger.Info("HTTP routes registered", "routes", len(ginRouter.Routes()))
}

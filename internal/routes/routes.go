package routes

import (
	"net/http"

	"servimarket_backend/internal/handlers"
	"servimarket_backend/internal/middleware"
	"servimarket_backend/internal/repositories"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the HTTP API. The admin gate gets its own repository
// so it can reload the account row per request.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	userRepo repositories.UserRepository,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := middleware.AuthMiddleware()
	adminGate := middleware.AdminGate(userRepo)

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.VerificationHandler.RegisterRoutes(api, authMW)
		appHandlers.DocumentHandler.RegisterRoutes(api, authMW)
		appHandlers.AdminHandler.RegisterRoutes(api, authMW, adminGate)
		appHandlers.FileHandler.RegisterRoutes(api, authMW)
	}
}

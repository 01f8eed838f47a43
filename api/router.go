package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/pkgsync-go/api/handlers"
	"github.com/yourusername/pkgsync-go/api/middleware"
	"github.com/yourusername/pkgsync-go/internal/app"
	"github.com/yourusername/pkgsync-go/internal/domain"
)

// SetupRouter sets up the HTTP router
func SetupRouter(syncMgr *app.SyncManager, registry domain.Registry, log *zap.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	// Health endpoint
	healthHandler := handlers.NewHealthHandler(syncMgr)
	router.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		syncHandler := handlers.NewSyncHandler(syncMgr, registry, log)
		v1.POST("/sync", syncHandler.Sync)
		v1.GET("/sync/status", syncHandler.GetStatus)
		v1.GET("/packages", syncHandler.ListPackages)
		v1.GET("/repositories", syncHandler.ListRepositories)
	}

	return router
}

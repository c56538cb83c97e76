package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/iotsignals/passage-api/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v0 routes
	v0 := router.Group("/v0/milieuzone")
	{
		// Passage ingestion (open: the camera middleware runs inside the
		// same network segment)
		v0.POST("/passage/", handler.CreatePassage)

		// Taxi totals export (public read access)
		v0.GET("/passage/export-taxi/", handler.ExportTaxi)

		// Camera/hour export (requires API key authentication)
		v0.GET("/passage/export/", middleware.APIKeyAuth(authCfg), handler.Export)
	}
}

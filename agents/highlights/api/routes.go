package api

import (
	"net/http"

	"f1-highlights/agents/highlights/api/health"
	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/agents/highlights/api/videos"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies) {
	health.RegisterRoutes(engine, deps)

	engine.NoRoute(NotFoundHandler())

	videos.RegisterRoutes(engine.Group("/highlights"), deps)
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}

package health

import (
	"context"
	"net/http"
	"time"

	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/shared/monitoring"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Get handles health check requests
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		response := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		database := getDatabaseStatus(c.Request.Context(), deps)
		response["database"] = database
		if database["status"] == "unhealthy" {
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
		}

		if deps != nil && deps.Monitor != nil {
			response["stages"] = deps.Monitor.Stages()
			response["summary"] = deps.Monitor.GetStatusSummary()
			if !deps.Monitor.IsHealthy() && status == http.StatusOK {
				status = http.StatusServiceUnavailable
				response["status"] = "degraded"
			}
		} else {
			response["stages"] = []monitoring.StageStatus{}
		}

		c.JSON(status, response)
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(ctx context.Context, deps *types.Dependencies) gin.H {
	if deps == nil || deps.Database == nil {
		return gin.H{"status": "not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := deps.Database.Ping(ctx); err != nil {
		return gin.H{"status": "unhealthy", "error": err.Error()}
	}

	return gin.H{"status": "healthy"}
}

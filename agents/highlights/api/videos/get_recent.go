package videos

import (
	"net/http"

	"f1-highlights/agents/highlights/api/types"

	"github.com/gin-gonic/gin"
)

// GetRecent returns the most recently published catalog videos
func GetRecent(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		videos, err := deps.Videos.ListSummaries(c.Request.Context(), deps.RecentLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{
				Message: "Failed to fetch F1 video Ids from DB",
				Error:   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, videos)
	}
}

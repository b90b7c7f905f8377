package videos

import (
	"errors"
	"log"
	"net/http"

	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/shared/storage"

	"github.com/gin-gonic/gin"
)

// GetEvents returns the extracted events of a video
func GetEvents(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID := c.Param("videoId")

		detail, err := deps.Videos.GetDetail(c.Request.Context(), videoID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, types.ErrorResponse{Message: "Video not found"})
				return
			}
			log.Printf("[ERROR] Failed to fetch events for %s: %v", videoID, err)
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{Message: "Error retrieving video events", Error: err.Error()})
			return
		}

		if !detail.HasEvents() {
			c.JSON(http.StatusNotFound, types.ErrorResponse{
				Message: "No events found for this video",
				VideoID: videoID,
			})
			return
		}

		c.JSON(http.StatusOK, types.EventsResponse{
			VideoID: detail.VideoID,
			Title:   detail.Title,
			Events:  detail.Events,
		})
	}
}

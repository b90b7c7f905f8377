package videos

import (
	"log"
	"net/http"

	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/internal/models"

	"github.com/gin-gonic/gin"
)

// GetAll returns every catalog video with transcript and event flags
func GetAll(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		videos, err := deps.Videos.ListSummaries(ctx, 0)
		if err != nil {
			log.Printf("[ERROR] Failed to list videos: %v", err)
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{Message: "Error getting videos", Error: err.Error()})
			return
		}

		if len(videos) == 0 {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Message: "No videos found"})
			return
		}

		ids := make([]string, len(videos))
		for i, v := range videos {
			ids[i] = v.VideoID
		}

		details, err := deps.Videos.DetailsByIDs(ctx, ids)
		if err != nil {
			log.Printf("[ERROR] Failed to load video details: %v", err)
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{Message: "Error getting videos", Error: err.Error()})
			return
		}

		items := make([]types.VideoListItem, 0, len(videos))
		for _, v := range videos {
			detail := details[v.VideoID]

			thumbnail := ""
			if detail != nil {
				thumbnail = detail.ThumbnailURL
			}

			items = append(items, types.VideoListItem{
				VideoID:       v.VideoID,
				Title:         v.Title,
				PublishedAt:   v.PublishedAt,
				ThumbnailURL:  models.ThumbnailFor(v.VideoID, thumbnail),
				HasTranscript: detail.HasTranscript(),
				HasEvents:     detail.HasEvents(),
				EventCount:    eventCount(detail),
			})
		}

		c.JSON(http.StatusOK, items)
	}
}

func eventCount(d *models.VideoDetail) int {
	if d == nil {
		return 0
	}
	return len(d.Events)
}

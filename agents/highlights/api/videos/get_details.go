package videos

import (
	"net/http"

	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/internal/models"

	"github.com/gin-gonic/gin"
)

// GetDetails returns the metadata of a video with transcript and event flags
func GetDetails(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID := c.Param("videoId")

		detail, video, err := lookup(c.Request.Context(), deps, videoID)
		if err != nil {
			respondLookupError(c, videoID, err, "Error retrieving video details")
			return
		}

		if detail == nil {
			c.JSON(http.StatusOK, types.DetailResponse{
				VideoID:     video.VideoID,
				Title:       video.Title,
				PublishedAt: video.PublishedAt,
			})
			return
		}

		c.JSON(http.StatusOK, types.DetailResponse{
			VideoID:         detail.VideoID,
			Title:           detail.Title,
			PublishedAt:     detail.PublishedAt,
			ThumbnailURL:    models.ThumbnailFor(detail.VideoID, detail.ThumbnailURL),
			Duration:        detail.Duration,
			DurationSeconds: detail.DurationSeconds,
			ViewCount:       &detail.ViewCount,
			LikeCount:       &detail.LikeCount,
			HasTranscript:   detail.HasTranscript(),
			HasEvents:       detail.HasEvents(),
		})
	}
}

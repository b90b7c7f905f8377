package videos

import (
	"context"
	"errors"
	"log"
	"net/http"

	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/internal/models"
	"f1-highlights/shared/storage"

	"github.com/gin-gonic/gin"
)

// GetByID returns a video with its events, falling back to the catalog record
func GetByID(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID := c.Param("videoId")

		detail, video, err := lookup(c.Request.Context(), deps, videoID)
		if err != nil {
			respondLookupError(c, videoID, err, "Error getting video details")
			return
		}

		if detail == nil {
			c.JSON(http.StatusOK, types.VideoResponse{
				VideoID:     video.VideoID,
				Title:       video.Title,
				PublishedAt: video.PublishedAt,
				Events:      []models.Event{},
			})
			return
		}

		c.JSON(http.StatusOK, types.VideoResponse{
			VideoID:      detail.VideoID,
			Title:        detail.Title,
			PublishedAt:  detail.PublishedAt,
			ThumbnailURL: models.ThumbnailFor(detail.VideoID, detail.ThumbnailURL),
			Duration:     detail.Duration,
			Events:       nonNilEvents(detail.Events),
			ViewCount:    &detail.ViewCount,
			LikeCount:    &detail.LikeCount,
		})
	}
}

// lookup returns the detail record, or the catalog record when no detail
// exists yet. Exactly one of the two is non-nil on success.
func lookup(ctx context.Context, deps *types.Dependencies, videoID string) (*models.VideoDetail, *models.VideoSummary, error) {
	detail, err := deps.Videos.GetDetail(ctx, videoID)
	if err == nil {
		return detail, nil, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}

	video, err := deps.Videos.GetSummary(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}
	return nil, video, nil
}

func respondLookupError(c *gin.Context, videoID string, err error, failure string) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Message: "Video not found"})
		return
	}
	log.Printf("[ERROR] Failed to fetch video %s: %v", videoID, err)
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{Message: failure, Error: err.Error()})
}

func nonNilEvents(events []models.Event) []models.Event {
	if events == nil {
		return []models.Event{}
	}
	return events
}

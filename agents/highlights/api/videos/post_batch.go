package videos

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"f1-highlights/agents/highlights"
	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/agents/highlights/youtube"
	"f1-highlights/internal/models"

	"github.com/gin-gonic/gin"
)

// PostCatalog syncs the playlist into the catalog
func PostCatalog(deps *types.Dependencies) gin.HandlerFunc {
	return runBatch("Failed to sync highlights.", func(ctx context.Context, c *gin.Context) (*models.BatchResult, error) {
		return deps.Runner.BuildCatalog(ctx)
	})
}

// PostProcess enriches every catalog video with metadata and transcript
func PostProcess(deps *types.Dependencies) gin.HandlerFunc {
	return runBatch("Error processing videos", func(ctx context.Context, c *gin.Context) (*models.BatchResult, error) {
		return deps.Runner.EnrichDetails(ctx)
	})
}

// PostEvents extracts events; ?force=true recomputes videos that already have them
func PostEvents(deps *types.Dependencies) gin.HandlerFunc {
	return runBatch("Internal Server Error", func(ctx context.Context, c *gin.Context) (*models.BatchResult, error) {
		force, _ := strconv.ParseBool(c.Query("force"))
		return deps.Runner.ExtractEvents(ctx, force)
	})
}

func runBatch(failure string, run func(ctx context.Context, c *gin.Context) (*models.BatchResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The batch keeps going if the client disconnects.
		ctx := context.WithoutCancel(c.Request.Context())

		result, err := run(ctx, c)
		if err != nil {
			status, body := batchError(failure, err)
			log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(status, body)
			return
		}

		c.JSON(http.StatusOK, types.BatchResponse{
			Message: result.Message,
			Details: result,
		})
	}
}

// batchError maps a fatal batch error to a status code and body.
func batchError(failure string, err error) (int, types.ErrorResponse) {
	var perr *youtube.ProviderError

	switch {
	case errors.Is(err, highlights.ErrBatchRunning):
		return http.StatusConflict, types.ErrorResponse{Message: "A batch for this stage is already running.", Error: err.Error()}
	case errors.Is(err, highlights.ErrNoVideos):
		return http.StatusNotFound, types.ErrorResponse{Message: "No videos available in the database."}
	case errors.Is(err, highlights.ErrMissingCredential):
		return http.StatusInternalServerError, types.ErrorResponse{Message: "API credential not configured", Error: err.Error()}
	case errors.As(err, &perr):
		switch perr.StatusCode {
		case http.StatusForbidden:
			return http.StatusForbidden, types.ErrorResponse{Message: "YouTube API access denied. Check API key and quota.", Error: err.Error()}
		case http.StatusBadRequest:
			return http.StatusBadRequest, types.ErrorResponse{Message: "Invalid request to YouTube API.", Error: err.Error()}
		}
		if perr.StatusCode >= 400 && perr.StatusCode < 500 {
			return perr.StatusCode, types.ErrorResponse{Message: failure, Error: err.Error()}
		}
		return http.StatusBadGateway, types.ErrorResponse{Message: failure, Error: err.Error()}
	default:
		return http.StatusInternalServerError, types.ErrorResponse{Message: failure, Error: err.Error()}
	}
}

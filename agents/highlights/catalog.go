package highlights

import (
	"context"
	"fmt"
	"log"

	"f1-highlights/internal/models"
	"f1-highlights/shared/storage"
)

// BuildCatalog pages through the configured playlist and upserts one
// VideoSummary per video. A playlist error aborts the run before anything is
// written; a failed upsert is counted and the run continues.
func (p *Pipeline) BuildCatalog(ctx context.Context) (*models.BatchResult, error) {
	if p.videos == nil {
		return nil, fmt.Errorf("%w: YouTube API key or OAuth token required", ErrMissingCredential)
	}
	return p.run(ctx, StageCatalog, p.buildCatalog)
}

func (p *Pipeline) buildCatalog(ctx context.Context, result *models.BatchResult) error {
	playlistID := p.config.YouTube.PlaylistID

	items, err := p.videos.PlaylistVideos(ctx, playlistID, p.config.YouTube.PageSize)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
	}

	videos := uniqueSummaries(items)
	if dup := len(items) - len(videos); dup > 0 {
		log.Printf("Collapsed %d duplicate playlist entries", dup)
	}
	result.Total = len(videos)

	for _, video := range videos {
		outcome, err := p.store.UpsertSummary(ctx, video)
		if err != nil {
			log.Printf("❌ Database error for video %s: %v", video.VideoID, err)
			result.RecordFailure(video.VideoID)
			continue
		}

		result.Processed++
		switch outcome {
		case storage.Inserted:
			result.Inserted++
			log.Printf("✅ Inserted video: %s - %s", video.VideoID, truncate(video.Title, 50))
		case storage.Updated:
			result.Updated++
			log.Printf("🔄 Updated video: %s - %s", video.VideoID, truncate(video.Title, 50))
		default:
			result.Unchanged++
		}
	}

	log.Printf("Database sync complete: %d inserted, %d updated, %d errors", result.Inserted, result.Updated, result.Errors)
	result.Message = fmt.Sprintf("Successfully synced %d videos.", len(videos))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

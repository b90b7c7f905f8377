package highlights

import (
	"context"
	"fmt"
	"log"

	"f1-highlights/internal/models"
)

// metadataBatchSize matches the provider's per-request id limit.
const metadataBatchSize = 50

// EnrichDetails fetches metadata and a transcript for every catalog video and
// upserts its VideoDetail. A missing transcript is stored as an empty one;
// missing metadata skips the video.
func (p *Pipeline) EnrichDetails(ctx context.Context) (*models.BatchResult, error) {
	if p.videos == nil {
		return nil, fmt.Errorf("%w: YouTube API key or OAuth token required", ErrMissingCredential)
	}
	return p.run(ctx, StageDetails, p.enrichDetails)
}

func (p *Pipeline) enrichDetails(ctx context.Context, result *models.BatchResult) error {
	summaries, err := p.store.ListSummaries(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load videos: %w", err)
	}
	summaries = uniqueSummaries(summaries)
	if len(summaries) == 0 {
		return ErrNoVideos
	}
	result.Total = len(summaries)

	pacer := newPacer(p.config.Pipeline.Delay)

	for start := 0; start < len(summaries); start += metadataBatchSize {
		end := start + metadataBatchSize
		if end > len(summaries) {
			end = len(summaries)
		}
		batch := summaries[start:end]

		ids := make([]string, len(batch))
		for i, s := range batch {
			ids[i] = s.VideoID
		}

		metadata, err := p.videos.VideoMetadata(ctx, ids)
		if err != nil {
			log.Printf("❌ Failed to fetch metadata for %d videos: %v", len(ids), err)
			for _, id := range ids {
				result.RecordFailure(id)
			}
			continue
		}

		for _, summary := range batch {
			meta, ok := metadata[summary.VideoID]
			if !ok {
				log.Printf("❌ No metadata returned for video %s", summary.VideoID)
				result.RecordFailure(summary.VideoID)
				continue
			}

			if err := pacer.Wait(ctx); err != nil {
				return fmt.Errorf("details stage interrupted: %w", err)
			}

			detail := buildDetail(summary, meta)
			detail.Transcript = p.fetchTranscript(ctx, summary.VideoID)
			if len(detail.Transcript) == 0 {
				result.TranscriptsMissing++
			}

			if err := p.store.UpsertDetail(ctx, detail); err != nil {
				log.Printf("❌ Error processing video ID %s: %v", summary.VideoID, err)
				result.RecordFailure(summary.VideoID)
				continue
			}

			result.Processed++
			log.Printf("Processed %d/%d: %s (%d transcript entries)", result.Processed, result.Total, summary.VideoID, len(detail.Transcript))
		}
	}

	result.Message = "All videos processed and details saved successfully"
	return nil
}

// fetchTranscript never fails the video: any error yields an empty transcript.
func (p *Pipeline) fetchTranscript(ctx context.Context, videoID string) []models.TranscriptEntry {
	if p.transcripts == nil {
		return []models.TranscriptEntry{}
	}

	entries, err := p.transcripts.Fetch(ctx, videoID)
	if err != nil {
		log.Printf("⚠️  Transcript not available for video ID: %s - %v", videoID, err)
		return []models.TranscriptEntry{}
	}
	if entries == nil {
		return []models.TranscriptEntry{}
	}
	return entries
}

func buildDetail(summary *models.VideoSummary, meta *models.VideoMetadata) *models.VideoDetail {
	detail := &models.VideoDetail{
		VideoID:         summary.VideoID,
		Title:           meta.Title,
		PublishedAt:     meta.PublishedAt,
		ThumbnailURL:    meta.ThumbnailURL,
		ViewCount:       meta.ViewCount,
		LikeCount:       meta.LikeCount,
		Duration:        meta.Duration,
		DurationSeconds: meta.DurationSeconds,
	}
	if detail.Title == "" {
		detail.Title = summary.Title
	}
	if detail.PublishedAt.IsZero() {
		detail.PublishedAt = summary.PublishedAt
	}
	return detail
}

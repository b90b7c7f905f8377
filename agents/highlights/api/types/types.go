package types

import (
	"context"
	"time"

	"f1-highlights/internal/models"
	"f1-highlights/shared/monitoring"
)

// BatchRunner triggers the pipeline stages.
type BatchRunner interface {
	BuildCatalog(ctx context.Context) (*models.BatchResult, error)
	EnrichDetails(ctx context.Context) (*models.BatchResult, error)
	ExtractEvents(ctx context.Context, force bool) (*models.BatchResult, error)
}

// VideoReader is the read side of the video store.
type VideoReader interface {
	ListSummaries(ctx context.Context, limit int64) ([]*models.VideoSummary, error)
	GetSummary(ctx context.Context, videoID string) (*models.VideoSummary, error)
	GetDetail(ctx context.Context, videoID string) (*models.VideoDetail, error)
	DetailsByIDs(ctx context.Context, videoIDs []string) (map[string]*models.VideoDetail, error)
}

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds everything the handlers need
type Dependencies struct {
	Runner      BatchRunner
	Videos      VideoReader
	Database    Pinger
	Monitor     *monitoring.Monitor
	RecentLimit int64
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	VideoID string `json:"videoId,omitempty"`
}

// BatchResponse is returned by the batch trigger endpoints.
type BatchResponse struct {
	Message string              `json:"message"`
	Details *models.BatchResult `json:"details"`
}

// VideoListItem is a catalog entry joined with its detail flags.
type VideoListItem struct {
	VideoID       string    `json:"videoId"`
	Title         string    `json:"title"`
	PublishedAt   time.Time `json:"publishedAt"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	HasTranscript bool      `json:"hasTranscript"`
	HasEvents     bool      `json:"hasEvents"`
	EventCount    int       `json:"eventCount"`
}

// VideoResponse is a single video with its events.
type VideoResponse struct {
	VideoID      string         `json:"videoId"`
	Title        string         `json:"title"`
	PublishedAt  time.Time      `json:"publishedAt"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	Duration     string         `json:"duration,omitempty"`
	Events       []models.Event `json:"events"`
	ViewCount    *int64         `json:"viewCount,omitempty"`
	LikeCount    *int64         `json:"likeCount,omitempty"`
}

// DetailResponse is the metadata view of a video.
type DetailResponse struct {
	VideoID         string    `json:"videoId"`
	Title           string    `json:"title"`
	PublishedAt     time.Time `json:"publishedAt"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	Duration        string    `json:"duration,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	ViewCount       *int64    `json:"viewCount,omitempty"`
	LikeCount       *int64    `json:"likeCount,omitempty"`
	HasTranscript   bool      `json:"hasTranscript"`
	HasEvents       bool      `json:"hasEvents"`
}

// EventsResponse lists the events of one video.
type EventsResponse struct {
	VideoID string         `json:"videoId"`
	Title   string         `json:"title"`
	Events  []models.Event `json:"events"`
}

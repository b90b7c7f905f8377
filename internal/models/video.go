package models

import "time"

// VideoSummary is the catalog record created for every playlist item.
type VideoSummary struct {
	VideoID     string    `json:"videoId" bson:"videoId"`
	Title       string    `json:"title" bson:"title"`
	PublishedAt time.Time `json:"publishedAt" bson:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// TranscriptEntry is one captioned utterance. Start and Duration are seconds.
type TranscriptEntry struct {
	Text     string  `json:"text" bson:"text"`
	Start    float64 `json:"start" bson:"start"`
	Duration float64 `json:"duration" bson:"duration"`
}

// Event is a timestamped race moment. Time is the MM:SS display string.
type Event struct {
	Time        string   `json:"time" bson:"time"`
	Description string   `json:"description" bson:"description"`
	Drivers     []string `json:"drivers" bson:"drivers"`
}

// VideoDetail is the enriched record keyed 1:1 with VideoSummary by VideoID.
type VideoDetail struct {
	VideoID             string            `json:"videoId" bson:"videoId"`
	Title               string            `json:"title" bson:"title"`
	PublishedAt         time.Time         `json:"publishedAt" bson:"publishedAt"`
	ThumbnailURL        string            `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	ViewCount           int64             `json:"viewCount" bson:"viewCount"`
	LikeCount           int64             `json:"likeCount" bson:"likeCount"`
	Duration            string            `json:"duration,omitempty" bson:"duration,omitempty"`
	DurationSeconds     int               `json:"durationSeconds,omitempty" bson:"durationSeconds,omitempty"`
	Transcript          []TranscriptEntry `json:"transcript" bson:"transcript"`
	Events              []Event           `json:"events" bson:"events"`
	EventsPromptVersion string            `json:"eventsPromptVersion,omitempty" bson:"eventsPromptVersion,omitempty"`
	EventsExtractedAt   *time.Time        `json:"eventsExtractedAt,omitempty" bson:"eventsExtractedAt,omitempty"`
	CreatedAt           time.Time         `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt           time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// VideoMetadata is what the video platform reports for a single video.
type VideoMetadata struct {
	VideoID         string
	Title           string
	PublishedAt     time.Time
	ThumbnailURL    string
	ViewCount       int64
	LikeCount       int64
	Duration        string
	DurationSeconds int
}

// NeedsExtraction reports whether events should be computed for the detail:
// it has a transcript and no events yet.
func (d *VideoDetail) NeedsExtraction() bool {
	return d != nil && len(d.Transcript) > 0 && len(d.Events) == 0
}

// HasTranscript reports whether the detail carries at least one transcript entry.
func (d *VideoDetail) HasTranscript() bool {
	return d != nil && len(d.Transcript) > 0
}

// HasEvents reports whether events were extracted for the detail.
func (d *VideoDetail) HasEvents() bool {
	return d != nil && len(d.Events) > 0
}

// ThumbnailFor returns the stored thumbnail or the default one derived from the id.
func ThumbnailFor(videoID, stored string) string {
	if stored != "" {
		return stored
	}
	return "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"
}

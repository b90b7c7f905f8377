package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"f1-highlights/internal/models"
	"f1-highlights/shared/config"
)

var (
	// ErrUnavailable means the video has no transcript in any language.
	ErrUnavailable = errors.New("transcript not available")
	// ErrBlocked means the transcript service is being rate limited upstream.
	ErrBlocked = errors.New("transcript service blocked")
)

// Client talks to the transcript service over HTTP.
type Client struct {
	config *config.TranscriptConfig
	client *http.Client
}

// Response is the transcript service payload.
type Response struct {
	VideoID     string                   `json:"videoId"`
	Language    string                   `json:"language"`
	IsGenerated bool                     `json:"is_generated"`
	Transcript  []models.TranscriptEntry `json:"transcript"`
}

func NewClient(cfg *config.TranscriptConfig) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Fetch returns the transcript entries for videoID in playback order.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]models.TranscriptEntry, error) {
	endpoint := fmt.Sprintf("%s/transcript/%s", strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript for %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w for %s", ErrUnavailable, videoID)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w for %s", ErrBlocked, videoID)
	default:
		return nil, fmt.Errorf("transcript service returned status %d for %s", resp.StatusCode, videoID)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode transcript for %s: %w", videoID, err)
	}

	log.Printf("Fetched %d transcript entries for %s (language: %s, generated: %t)",
		len(payload.Transcript), videoID, payload.Language, payload.IsGenerated)

	return payload.Transcript, nil
}

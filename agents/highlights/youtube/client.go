package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"f1-highlights/internal/models"
	"f1-highlights/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// maxIDsPerCall is the videos.list limit on ids per request.
const maxIDsPerCall = 50

// ErrMissingCredential means neither an API key nor a stored OAuth token is configured.
var ErrMissingCredential = errors.New("YouTube API credential not configured")

// ProviderError is an error reported by the YouTube Data API. StatusCode is
// zero when the request never got an HTTP answer.
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("YouTube API request failed: %s", e.Message)
	}
	return fmt.Sprintf("YouTube API returned status %d: %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}

type Client struct {
	service *youtube.Service
	config  *config.YouTubeConfig
}

// NewClient builds a YouTube Data API client. An API key is preferred; an
// OAuth client with a previously stored token file is accepted as well.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig) (*Client, error) {
	var opts []option.ClientOption

	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.HasCredential():
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/youtube.readonly"},
			Endpoint:     google.Endpoint,
		}

		token, err := getToken(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to get OAuth token: %w", err)
		}

		// Create token source that auto-refreshes and saves token
		tokenSource := &tokenSaver{
			config:    oauthConfig,
			token:     token,
			tokenFile: cfg.TokenFile,
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	default:
		return nil, ErrMissingCredential
	}

	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service: service,
		config:  cfg,
	}, nil
}

// tokenSaver wraps an oauth2.TokenSource to automatically save refreshed tokens.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex
}

// Token implements oauth2.TokenSource interface.
func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tokenSource := ts.config.TokenSource(context.Background(), ts.token)

	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		log.Println("Token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			log.Printf("Warning: Failed to save refreshed token: %v", err)
		}
	}

	return newToken, nil
}

// getToken loads a stored OAuth2 token. Expired tokens are kept as long as
// they carry a refresh token. The server never runs an interactive flow, so
// a missing token is a missing credential.
func getToken(tokenFile string) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read token file %s: %v", ErrMissingCredential, tokenFile, err)
	}

	if tok.RefreshToken != "" {
		log.Printf("Loaded token from file (expires: %v)", tok.Expiry)
		return tok, nil
	}
	if tok.Valid() {
		return tok, nil
	}

	return nil, fmt.Errorf("%w: token in %s is expired and has no refresh token", ErrMissingCredential, tokenFile)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseDurationSeconds converts an ISO 8601 duration such as PT1M30S.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := isoDurationRE.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var totalSeconds int
	for i, unit := range []int{86400, 3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(matches[i+1]); err == nil {
			totalSeconds += n * unit
		}
	}

	return totalSeconds
}

// PlaylistVideos follows nextPageToken through the whole playlist and returns
// every item. It stops early on an empty page.
func (c *Client) PlaylistVideos(ctx context.Context, playlistID string, pageSize int64) ([]*models.VideoSummary, error) {
	var videos []*models.VideoSummary
	pageToken := ""

	for {
		log.Printf("Fetching playlist page with token: %s", orFirstPage(pageToken))

		call := c.service.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, providerError(err)
		}

		if len(resp.Items) == 0 {
			break
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
				log.Printf("Skipping playlist item %s without a video id", item.Id)
				continue
			}

			video := &models.VideoSummary{
				VideoID: item.Snippet.ResourceId.VideoId,
				Title:   item.Snippet.Title,
			}
			if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
				video.PublishedAt = publishedAt
			}
			videos = append(videos, video)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	log.Printf("Fetched %d playlist items from %s", len(videos), playlistID)
	return videos, nil
}

// VideoMetadata fetches snippet, statistics and content details for the given
// ids, 50 per request. Ids the API does not return are absent from the map.
func (c *Client) VideoMetadata(ctx context.Context, videoIDs []string) (map[string]*models.VideoMetadata, error) {
	result := make(map[string]*models.VideoMetadata, len(videoIDs))

	for i := 0; i < len(videoIDs); i += maxIDsPerCall {
		end := i + maxIDsPerCall
		if end > len(videoIDs) {
			end = len(videoIDs)
		}

		resp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
			Id(strings.Join(videoIDs[i:end], ",")).
			Context(ctx).
			Do()
		if err != nil {
			return nil, providerError(err)
		}

		for _, item := range resp.Items {
			result[item.Id] = toMetadata(item)
		}
	}

	return result, nil
}

func toMetadata(item *youtube.Video) *models.VideoMetadata {
	meta := &models.VideoMetadata{VideoID: item.Id}

	if item.Snippet != nil {
		meta.Title = item.Snippet.Title
		meta.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			meta.PublishedAt = publishedAt
		}
	}

	if item.Statistics != nil {
		meta.ViewCount = int64(item.Statistics.ViewCount)
		meta.LikeCount = int64(item.Statistics.LikeCount)
	}

	if item.ContentDetails != nil {
		meta.Duration = item.ContentDetails.Duration
		meta.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
	}

	return meta
}

// bestThumbnail prefers the highest resolution variant available.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

func orFirstPage(token string) string {
	if token == "" {
		return "first page"
	}
	return token
}

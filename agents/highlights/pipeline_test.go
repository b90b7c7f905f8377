package highlights

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"f1-highlights/agents/highlights/youtube"
	"f1-highlights/internal/models"
	"f1-highlights/shared/ai"
	"f1-highlights/shared/config"
	"f1-highlights/shared/monitoring"
	"f1-highlights/shared/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testConfig() *config.Config {
	return &config.Config{
		YouTube: config.YouTubeConfig{
			PlaylistID: config.DefaultPlaylistID,
			PageSize:   50,
		},
		Pipeline: config.PipelineConfig{RecentLimit: 50},
	}
}

func summary(id, title string, day int) *models.VideoSummary {
	return &models.VideoSummary{
		VideoID:     id,
		Title:       title,
		PublishedAt: time.Date(2025, 3, day, 15, 0, 0, 0, time.UTC),
	}
}

func metadata(id, title string) *models.VideoMetadata {
	return &models.VideoMetadata{
		VideoID:         id,
		Title:           title,
		PublishedAt:     time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC),
		ThumbnailURL:    "https://i.ytimg.com/vi/" + id + "/maxresdefault.jpg",
		ViewCount:       1000,
		LikeCount:       50,
		Duration:        "PT7M30S",
		DurationSeconds: 450,
	}
}

func seedDetail(store *memoryStore, id string, transcript []models.TranscriptEntry, events []models.Event) {
	if events == nil {
		events = []models.Event{}
	}
	store.details[id] = &models.VideoDetail{
		VideoID:    id,
		Title:      "Race " + id,
		Transcript: transcript,
		Events:     events,
	}
}

func TestBuildCatalogCollapsesDuplicates(t *testing.T) {
	store := newMemoryStore()
	videos := &fakeVideos{playlist: []*models.VideoSummary{
		summary("a", "Bahrain GP", 2),
		summary("b", "Saudi GP", 9),
		summary("a", "Bahrain GP (repost)", 2),
	}}
	p := New(testConfig(), Dependencies{Store: store, Videos: videos})

	result, err := p.BuildCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StageCatalog, result.Stage)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, "Successfully synced 2 videos.", result.Message)
	assert.Len(t, store.summaries, 2)
	assert.Equal(t, "Bahrain GP", store.summaries["a"].Title)

	// Second sync of the same playlist changes nothing.
	result, err = p.BuildCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 2, result.Unchanged)
	assert.Len(t, store.summaries, 2)

	// A renamed video only gets its title updated.
	videos.playlist[1] = summary("b", "Saudi Arabian GP Highlights", 9)
	result, err = p.BuildCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "Saudi Arabian GP Highlights", store.summaries["b"].Title)
}

func TestBuildCatalogUpsertFailureContinues(t *testing.T) {
	store := newMemoryStore()
	store.failIDs["b"] = true
	videos := &fakeVideos{playlist: []*models.VideoSummary{
		summary("a", "Bahrain GP", 2),
		summary("b", "Saudi GP", 9),
		summary("c", "Australian GP", 16),
	}}
	p := New(testConfig(), Dependencies{Store: store, Videos: videos})

	result, err := p.BuildCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, []string{"b"}, result.FailedIDs)
}

func TestBuildCatalogMissingCredential(t *testing.T) {
	store := newMemoryStore()
	p := New(testConfig(), Dependencies{Store: store})

	_, err := p.BuildCatalog(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, store.writes)
}

func TestBuildCatalogProviderErrorAborts(t *testing.T) {
	store := newMemoryStore()
	videos := &fakeVideos{playlistErr: &youtube.ProviderError{StatusCode: http.StatusForbidden, Message: "quotaExceeded"}}
	m := monitoring.NewMonitor()
	p := New(testConfig(), Dependencies{Store: store, Videos: videos, Events: scheduler.MonitorEvents(m)})

	_, err := p.BuildCatalog(context.Background())
	require.Error(t, err)

	var perr *youtube.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.Equal(t, 0, store.writes)
	assert.False(t, m.IsHealthy())
}

func TestEnrichDetails(t *testing.T) {
	store := newMemoryStore()
	store.summaries["a"] = summary("a", "Bahrain GP", 2)
	store.summaries["b"] = summary("b", "Saudi GP", 9)

	videos := &fakeVideos{metadata: map[string]*models.VideoMetadata{
		"a": metadata("a", "Bahrain GP Highlights"),
		"b": metadata("b", "Saudi GP Highlights"),
	}}
	transcripts := &fakeTranscripts{
		entries: map[string][]models.TranscriptEntry{
			"a": {{Text: "Lights out", Start: 10, Duration: 2}},
		},
		errs: map[string]error{"b": errors.New("transcript not available")},
	}
	p := New(testConfig(), Dependencies{Store: store, Videos: videos, Transcripts: transcripts})

	result, err := p.EnrichDetails(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.TranscriptsMissing)
	assert.Equal(t, 0, result.Errors)

	a := store.details["a"]
	require.NotNil(t, a)
	assert.Equal(t, "Bahrain GP Highlights", a.Title)
	assert.Equal(t, int64(1000), a.ViewCount)
	assert.Equal(t, 450, a.DurationSeconds)
	assert.Len(t, a.Transcript, 1)

	// A transcript failure still produces a record, with an empty transcript.
	b := store.details["b"]
	require.NotNil(t, b)
	assert.NotNil(t, b.Transcript)
	assert.Empty(t, b.Transcript)
	assert.False(t, b.NeedsExtraction())
}

func TestEnrichDetailsMetadataMissing(t *testing.T) {
	store := newMemoryStore()
	store.summaries["a"] = summary("a", "Bahrain GP", 2)
	store.summaries["gone"] = summary("gone", "Private video", 9)

	videos := &fakeVideos{metadata: map[string]*models.VideoMetadata{"a": metadata("a", "Bahrain GP")}}
	p := New(testConfig(), Dependencies{Store: store, Videos: videos, Transcripts: &fakeTranscripts{}})

	result, err := p.EnrichDetails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, []string{"gone"}, result.FailedIDs)
	assert.NotContains(t, store.details, "gone")
}

func TestEnrichDetailsMetadataBatchError(t *testing.T) {
	store := newMemoryStore()
	store.summaries["a"] = summary("a", "Bahrain GP", 2)

	videos := &fakeVideos{metadataErr: &youtube.ProviderError{StatusCode: http.StatusForbidden}}
	p := New(testConfig(), Dependencies{Store: store, Videos: videos})

	result, err := p.EnrichDetails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Empty(t, store.details)
}

func TestEnrichDetailsKeepsEvents(t *testing.T) {
	store := newMemoryStore()
	store.summaries["a"] = summary("a", "Bahrain GP", 2)
	events := []models.Event{{Time: "00:10", Description: "Race start", Drivers: []string{}}}
	seedDetail(store, "a", []models.TranscriptEntry{{Text: "old", Start: 1, Duration: 1}}, events)

	videos := &fakeVideos{metadata: map[string]*models.VideoMetadata{"a": metadata("a", "Bahrain GP")}}
	transcripts := &fakeTranscripts{entries: map[string][]models.TranscriptEntry{
		"a": {{Text: "new", Start: 2, Duration: 1}},
	}}
	p := New(testConfig(), Dependencies{Store: store, Videos: videos, Transcripts: transcripts})

	_, err := p.EnrichDetails(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "new", store.details["a"].Transcript[0].Text)
	assert.Equal(t, events, store.details["a"].Events)
}

func TestEnrichDetailsNoVideos(t *testing.T) {
	store := newMemoryStore()
	p := New(testConfig(), Dependencies{Store: store, Videos: &fakeVideos{}})

	_, err := p.EnrichDetails(context.Background())
	assert.ErrorIs(t, err, ErrNoVideos)
}

func TestEnrichDetailsMissingCredential(t *testing.T) {
	p := New(testConfig(), Dependencies{Store: newMemoryStore()})

	_, err := p.EnrichDetails(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestExtractEventsPitStop(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{
		{Text: "Verstappen comes in for a pit stop", Start: 45.5, Duration: 3},
	}, nil)

	generator := &fakeGenerator{responses: []string{
		"```json\n[{\"timeInSeconds\": 45.5, \"description\": \"Verstappen pits\", \"drivers\": [\"Max Verstappen\"]},]\n```",
	}}
	p := New(testConfig(), Dependencies{Store: store, Generator: generator})

	result, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, "Events extraction completed.", result.Message)

	detail := store.details["v1"]
	require.Len(t, detail.Events, 1)
	assert.Equal(t, models.Event{
		Time:        "00:45",
		Description: "Verstappen pits",
		Drivers:     []string{"Max Verstappen"},
	}, detail.Events[0])
	assert.Equal(t, ai.PromptVersion, detail.EventsPromptVersion)

	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], `"start":45.5`)
}

func TestExtractEventsIdempotent(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "Lights out", Start: 5, Duration: 2}}, nil)

	generator := &fakeGenerator{responses: []string{`[{"timeInSeconds": 5, "description": "Race start"}]`}}
	p := New(testConfig(), Dependencies{Store: store, Generator: generator})

	_, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)
	first := store.details["v1"].Events

	result, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, "All videos already have events extracted.", result.Message)
	assert.Equal(t, 1, generator.calls())
	assert.Equal(t, first, store.details["v1"].Events)
	assert.Equal(t, []string{}, first[0].Drivers)
}

func TestExtractEventsProcessesDuplicateCandidatesOnce(t *testing.T) {
	store := newMemoryStore()
	store.duplicateCandidates = true
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "Lights out", Start: 5, Duration: 2}}, nil)

	generator := &fakeGenerator{responses: []string{`[{"timeInSeconds": 5, "description": "Race start"}]`}}
	p := New(testConfig(), Dependencies{Store: store, Generator: generator})

	result, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, generator.calls())
	assert.Equal(t, 1, store.writes)
	require.Len(t, store.details["v1"].Events, 1)
}

func TestExtractEventsMalformedOutput(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "bad", []models.TranscriptEntry{{Text: "Safety car", Start: 30, Duration: 2}}, nil)
	seedDetail(store, "good", []models.TranscriptEntry{{Text: "Overtake", Start: 70, Duration: 2}}, nil)

	generator := &fakeGenerator{responses: []string{
		"I could not find any events in this transcript.",
		`[{"timeInSeconds": 70, "description": "Overtake into turn 1", "drivers": ["Norris"]}]`,
	}}
	p := New(testConfig(), Dependencies{Store: store, Generator: generator})

	result, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, []string{"bad"}, result.FailedIDs)

	assert.Empty(t, store.details["bad"].Events)
	assert.Empty(t, store.details["bad"].EventsPromptVersion)
	require.Len(t, store.details["good"].Events, 1)
	assert.Equal(t, "01:10", store.details["good"].Events[0].Time)
}

func TestExtractEventsModelError(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "Crash", Start: 12, Duration: 2}}, nil)

	p := New(testConfig(), Dependencies{Store: store, Generator: &fakeGenerator{err: errors.New("resource exhausted")}})

	result, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Empty(t, store.details["v1"].Events)
}

func TestExtractEventsSkipsBlankTranscript(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "  ", Start: 1, Duration: 1}, {Text: "", Start: 2, Duration: 1}}, nil)

	generator := &fakeGenerator{}
	p := New(testConfig(), Dependencies{Store: store, Generator: generator})

	result, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, generator.calls())
}

func TestExtractEventsForceRecomputes(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "Penalty for Hamilton", Start: 125, Duration: 3}},
		[]models.Event{{Time: "00:01", Description: "stale", Drivers: []string{}}})

	generator := &fakeGenerator{responses: []string{`[{"timeInSeconds": 125, "description": "Five second penalty", "drivers": ["Hamilton"]}]`}}
	p := New(testConfig(), Dependencies{Store: store, Generator: generator})

	result, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)

	result, err = p.ExtractEvents(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	require.Len(t, store.details["v1"].Events, 1)
	assert.Equal(t, "02:05", store.details["v1"].Events[0].Time)
	assert.Equal(t, "Five second penalty", store.details["v1"].Events[0].Description)
}

func TestExtractEventsMissingCredential(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "x", Start: 1, Duration: 1}}, nil)
	p := New(testConfig(), Dependencies{Store: store})

	_, err := p.ExtractEvents(context.Background(), false)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, store.writes)
}

func TestStageGuardRejectsConcurrentRun(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "Lights out", Start: 5, Duration: 2}}, nil)

	generator := &fakeGenerator{
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	p := New(testConfig(), Dependencies{Store: store, Generator: generator, Videos: &fakeVideos{}})

	done := make(chan error, 1)
	go func() {
		_, err := p.ExtractEvents(context.Background(), false)
		done <- err
	}()

	<-generator.entered

	_, err := p.ExtractEvents(context.Background(), false)
	assert.ErrorIs(t, err, ErrBatchRunning)

	// Other stages are not blocked.
	_, err = p.BuildCatalog(context.Background())
	assert.NoError(t, err)

	close(generator.block)
	require.NoError(t, <-done)

	_, err = p.ExtractEvents(context.Background(), false)
	assert.NoError(t, err)
}

func TestRunStages(t *testing.T) {
	store := newMemoryStore()
	videos := &fakeVideos{
		playlist: []*models.VideoSummary{summary("a", "Bahrain GP", 2)},
		metadata: map[string]*models.VideoMetadata{"a": metadata("a", "Bahrain GP")},
	}
	transcripts := &fakeTranscripts{entries: map[string][]models.TranscriptEntry{
		"a": {{Text: "Lights out", Start: 5, Duration: 2}},
	}}
	generator := &fakeGenerator{responses: []string{`[{"timeInSeconds": 5, "description": "Race start", "drivers": []}]`}}
	m := monitoring.NewMonitor()

	p := New(testConfig(), Dependencies{
		Store:       store,
		Videos:      videos,
		Transcripts: transcripts,
		Generator:   generator,
		Events:      scheduler.MonitorEvents(m),
	})

	require.NoError(t, p.Initialize(context.Background()))
	require.NoError(t, p.RunOnce(context.Background()))

	require.Len(t, store.details["a"].Events, 1)
	assert.Equal(t, "00:05", store.details["a"].Events[0].Time)
	assert.True(t, m.IsHealthy())
	assert.Len(t, m.Stages(), 3)

	_, err := p.RunStages(context.Background(), []string{"bogus"}, false)
	assert.Error(t, err)
}

func TestNewPacer(t *testing.T) {
	assert.Equal(t, rate.Inf, newPacer(0).Limit())
	assert.Equal(t, rate.Limit(2), newPacer(500*time.Millisecond).Limit())
	assert.Equal(t, 1, newPacer(500*time.Millisecond).Burst())
}

func TestPacerSpacesCalls(t *testing.T) {
	store := newMemoryStore()
	seedDetail(store, "v1", []models.TranscriptEntry{{Text: "a", Start: 1, Duration: 1}}, nil)
	seedDetail(store, "v2", []models.TranscriptEntry{{Text: "b", Start: 1, Duration: 1}}, nil)
	seedDetail(store, "v3", []models.TranscriptEntry{{Text: "c", Start: 1, Duration: 1}}, nil)

	cfg := testConfig()
	cfg.Pipeline.Delay = 50 * time.Millisecond
	p := New(cfg, Dependencies{Store: store, Generator: &fakeGenerator{}})

	start := time.Now()
	_, err := p.ExtractEvents(context.Background(), false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

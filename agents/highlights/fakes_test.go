package highlights

import (
	"context"
	"errors"
	"sort"
	"sync"

	"f1-highlights/internal/models"
	"f1-highlights/shared/storage"
)

// memoryStore mirrors the upsert semantics of storage.Store in memory.
type memoryStore struct {
	mu        sync.Mutex
	summaries map[string]*models.VideoSummary
	details   map[string]*models.VideoDetail
	failIDs   map[string]bool
	writes    int

	// duplicateCandidates makes ExtractionCandidates list every video twice.
	duplicateCandidates bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		summaries: make(map[string]*models.VideoSummary),
		details:   make(map[string]*models.VideoDetail),
		failIDs:   make(map[string]bool),
	}
}

func (s *memoryStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *memoryStore) UpsertSummary(ctx context.Context, video *models.VideoSummary) (storage.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIDs[video.VideoID] {
		return storage.Unchanged, errors.New("write failed")
	}
	s.writes++

	existing, ok := s.summaries[video.VideoID]
	if !ok {
		copied := *video
		s.summaries[video.VideoID] = &copied
		return storage.Inserted, nil
	}
	if existing.Title == video.Title {
		return storage.Unchanged, nil
	}
	existing.Title = video.Title
	return storage.Updated, nil
}

func (s *memoryStore) ListSummaries(ctx context.Context, limit int64) ([]*models.VideoSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	videos := []*models.VideoSummary{}
	for _, v := range s.summaries {
		copied := *v
		videos = append(videos, &copied)
	}
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].PublishedAt.Equal(videos[j].PublishedAt) {
			return videos[i].VideoID < videos[j].VideoID
		}
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
	if limit > 0 && int64(len(videos)) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

func (s *memoryStore) GetSummary(ctx context.Context, videoID string) (*models.VideoSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.summaries[videoID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *memoryStore) UpsertDetail(ctx context.Context, detail *models.VideoDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIDs[detail.VideoID] {
		return errors.New("write failed")
	}
	s.writes++

	copied := *detail
	if existing, ok := s.details[detail.VideoID]; ok {
		copied.Events = existing.Events
		copied.EventsPromptVersion = existing.EventsPromptVersion
		copied.EventsExtractedAt = existing.EventsExtractedAt
	} else {
		copied.Events = []models.Event{}
	}
	s.details[detail.VideoID] = &copied
	return nil
}

func (s *memoryStore) GetDetail(ctx context.Context, videoID string) (*models.VideoDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.details[videoID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *memoryStore) DetailsByIDs(ctx context.Context, videoIDs []string) (map[string]*models.VideoDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*models.VideoDetail)
	for _, id := range videoIDs {
		if d, ok := s.details[id]; ok {
			copied := *d
			out[id] = &copied
		}
	}
	return out, nil
}

func (s *memoryStore) ExtractionCandidates(ctx context.Context, force bool) ([]*models.VideoDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.details))
	for id := range s.details {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := []*models.VideoDetail{}
	for _, id := range ids {
		d := s.details[id]
		if d.NeedsExtraction() || (force && d.HasTranscript()) {
			copied := *d
			out = append(out, &copied)
			if s.duplicateCandidates {
				again := *d
				out = append(out, &again)
			}
		}
	}
	return out, nil
}

func (s *memoryStore) ReplaceEvents(ctx context.Context, videoID string, events []models.Event, promptVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIDs[videoID] {
		return errors.New("write failed")
	}
	d, ok := s.details[videoID]
	if !ok {
		return storage.ErrNotFound
	}
	s.writes++
	d.Events = events
	d.EventsPromptVersion = promptVersion
	return nil
}

type fakeVideos struct {
	playlist    []*models.VideoSummary
	playlistErr error
	metadata    map[string]*models.VideoMetadata
	metadataErr error
	calls       int
}

func (f *fakeVideos) PlaylistVideos(ctx context.Context, playlistID string, pageSize int64) ([]*models.VideoSummary, error) {
	f.calls++
	if f.playlistErr != nil {
		return nil, f.playlistErr
	}
	return f.playlist, nil
}

func (f *fakeVideos) VideoMetadata(ctx context.Context, videoIDs []string) (map[string]*models.VideoMetadata, error) {
	f.calls++
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	out := make(map[string]*models.VideoMetadata)
	for _, id := range videoIDs {
		if m, ok := f.metadata[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

type fakeTranscripts struct {
	entries map[string][]models.TranscriptEntry
	errs    map[string]error
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string) ([]models.TranscriptEntry, error) {
	if err := f.errs[videoID]; err != nil {
		return nil, err
	}
	return f.entries[videoID], nil
}

type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "[]", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

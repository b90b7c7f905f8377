package highlights

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"f1-highlights/internal/models"
	"f1-highlights/shared/config"
	"f1-highlights/shared/scheduler"
	"f1-highlights/shared/storage"

	"golang.org/x/time/rate"
)

const (
	StageCatalog = "catalog"
	StageDetails = "details"
	StageEvents  = "events"
)

var (
	// ErrMissingCredential means a stage was triggered without the credential
	// its provider needs. Nothing was requested or written.
	ErrMissingCredential = errors.New("credential not configured")
	// ErrBatchRunning is returned when the same stage is already in progress.
	ErrBatchRunning = errors.New("batch already running")
	// ErrNoVideos means the catalog is empty, so there is nothing to enrich.
	ErrNoVideos = errors.New("no videos available in the database")
)

// VideoSource is the video platform.
type VideoSource interface {
	PlaylistVideos(ctx context.Context, playlistID string, pageSize int64) ([]*models.VideoSummary, error)
	VideoMetadata(ctx context.Context, videoIDs []string) (map[string]*models.VideoMetadata, error)
}

// TranscriptSource returns the caption entries of a video.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string) ([]models.TranscriptEntry, error)
}

// EventGenerator sends a prompt to a generative model and returns its text.
type EventGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store is the persistence the pipeline and the read APIs need.
type Store interface {
	EnsureIndexes(ctx context.Context) error
	UpsertSummary(ctx context.Context, video *models.VideoSummary) (storage.UpsertOutcome, error)
	ListSummaries(ctx context.Context, limit int64) ([]*models.VideoSummary, error)
	GetSummary(ctx context.Context, videoID string) (*models.VideoSummary, error)
	UpsertDetail(ctx context.Context, detail *models.VideoDetail) error
	GetDetail(ctx context.Context, videoID string) (*models.VideoDetail, error)
	DetailsByIDs(ctx context.Context, videoIDs []string) (map[string]*models.VideoDetail, error)
	ExtractionCandidates(ctx context.Context, force bool) ([]*models.VideoDetail, error)
	ReplaceEvents(ctx context.Context, videoID string, events []models.Event, promptVersion string) error
}

// Dependencies are the collaborators of a Pipeline. A nil Videos or Generator
// makes the stages that need it fail with ErrMissingCredential.
type Dependencies struct {
	Store       Store
	Videos      VideoSource
	Transcripts TranscriptSource
	Generator   EventGenerator
	Events      *scheduler.AgentEvents
}

// Pipeline runs the catalog, details and events stages. Each stage processes
// its videos one at a time; at most one run per stage is in flight.
type Pipeline struct {
	config      *config.Config
	store       Store
	videos      VideoSource
	transcripts TranscriptSource
	generator   EventGenerator
	events      *scheduler.AgentEvents

	mu      sync.Mutex
	running map[string]bool
}

func New(cfg *config.Config, deps Dependencies) *Pipeline {
	return &Pipeline{
		config:      cfg,
		store:       deps.Store,
		videos:      deps.Videos,
		transcripts: deps.Transcripts,
		generator:   deps.Generator,
		events:      deps.Events,
		running:     make(map[string]bool),
	}
}

func (p *Pipeline) Name() string {
	return "F1 Highlights"
}

// Initialize prepares the store for the pipeline.
func (p *Pipeline) Initialize(ctx context.Context) error {
	log.Printf("Initializing %s...", p.Name())
	if err := p.store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to prepare store: %w", err)
	}
	return nil
}

// RunOnce runs every stage in order and stops at the first fatal error.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	_, err := p.RunStages(ctx, []string{StageCatalog, StageDetails, StageEvents}, false)
	return err
}

// RunStages runs the named stages in order.
func (p *Pipeline) RunStages(ctx context.Context, stages []string, force bool) ([]*models.BatchResult, error) {
	var results []*models.BatchResult
	for _, stage := range stages {
		var (
			result *models.BatchResult
			err    error
		)
		switch stage {
		case StageCatalog:
			result, err = p.BuildCatalog(ctx)
		case StageDetails:
			result, err = p.EnrichDetails(ctx)
		case StageEvents:
			result, err = p.ExtractEvents(ctx, force)
		default:
			return results, fmt.Errorf("unknown stage %q", stage)
		}
		if err != nil {
			return results, fmt.Errorf("%s stage: %w", stage, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Pipeline) acquire(stage string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running[stage] {
		return fmt.Errorf("%w: %s", ErrBatchRunning, stage)
	}
	p.running[stage] = true
	return nil
}

func (p *Pipeline) release(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, stage)
}

// run executes one stage under the stage guard and reports its outcome.
func (p *Pipeline) run(ctx context.Context, stage string, fn func(ctx context.Context, result *models.BatchResult) error) (*models.BatchResult, error) {
	if err := p.acquire(stage); err != nil {
		return nil, err
	}
	defer p.release(stage)

	start := time.Now()
	log.Printf("🚀 Starting %s stage", stage)

	result := &models.BatchResult{Stage: stage}
	err := fn(ctx, result)
	result.Finish(start)
	duration := time.Since(start)

	if err != nil {
		if !errors.Is(err, ErrNoVideos) && p.events != nil && p.events.OnCriticalFailure != nil {
			p.events.OnCriticalFailure(stage, err, duration)
		}
		return nil, err
	}

	if p.events != nil {
		if result.Errors > 0 && p.events.OnPartialFailure != nil {
			p.events.OnPartialFailure(stage, fmt.Errorf("%d of %d videos failed: %v", result.Errors, result.Total, result.FailedIDs), duration)
		}
		if p.events.OnSuccess != nil {
			p.events.OnSuccess(stage, result, duration)
		}
	}

	log.Printf("🏁 %s", result.GetSummary())
	return result, nil
}

// newPacer lets at most one video start per delay. The gap is measured between
// starts, so a video whose calls outlast delay lets the next one start at once.
// The first video is not delayed.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// uniqueSummaries drops repeated video ids, keeping the first occurrence.
func uniqueSummaries(videos []*models.VideoSummary) []*models.VideoSummary {
	seen := make(map[string]bool, len(videos))
	unique := make([]*models.VideoSummary, 0, len(videos))
	for _, v := range videos {
		if v == nil || seen[v.VideoID] {
			continue
		}
		seen[v.VideoID] = true
		unique = append(unique, v)
	}
	return unique
}

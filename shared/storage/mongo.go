package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"f1-highlights/internal/models"
	"f1-highlights/shared/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SummaryCollection = "f1videos"
	DetailCollection  = "f1videodetails"
)

// ErrNotFound is returned when no document matches the requested video id.
var ErrNotFound = errors.New("video not found")

// UpsertOutcome tells what an upsert did to the stored document.
type UpsertOutcome int

const (
	Unchanged UpsertOutcome = iota
	Inserted
	Updated
)

func (o UpsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Store persists highlight videos in MongoDB. Every write is an upsert keyed
// by videoId.
type Store struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	summaries   *mongo.Collection
	details     *mongo.Collection
	now         func() time.Time
}

// Connect opens a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := NewStore(mongoClient.Database(cfg.Database))
	s.mongoClient = mongoClient
	return s, nil
}

// NewStore wraps an existing database handle.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		database:  database,
		summaries: database.Collection(SummaryCollection),
		details:   database.Collection(DetailCollection),
		now:       time.Now,
	}
}

// Close disconnects the client when the store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.mongoClient == nil {
		return nil
	}
	return s.mongoClient.Disconnect(ctx)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.database.Client().Ping(ctx, nil)
}

// EnsureIndexes creates the unique videoId index on both collections.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "videoId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{s.summaries, s.details} {
		if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
			return fmt.Errorf("failed to create videoId index on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// UpsertSummary creates the catalog record or refreshes its title.
func (s *Store) UpsertSummary(ctx context.Context, video *models.VideoSummary) (UpsertOutcome, error) {
	filter := bson.M{"videoId": video.VideoID}
	update := bson.M{
		"$set": bson.M{"title": video.Title},
		"$setOnInsert": bson.M{
			"publishedAt": video.PublishedAt,
			"createdAt":   s.now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)

	result, err := s.summaries.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return Unchanged, fmt.Errorf("failed to upsert video %s: %w", video.VideoID, err)
	}

	switch {
	case result.UpsertedCount > 0:
		return Inserted, nil
	case result.ModifiedCount > 0:
		return Updated, nil
	default:
		return Unchanged, nil
	}
}

// ListSummaries returns catalog records newest first. limit <= 0 means all.
func (s *Store) ListSummaries(ctx context.Context, limit int64) ([]*models.VideoSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.summaries.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}

	videos := []*models.VideoSummary{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("failed to decode videos: %w", err)
	}
	return videos, nil
}

// GetSummary returns the catalog record for videoID or ErrNotFound.
func (s *Store) GetSummary(ctx context.Context, videoID string) (*models.VideoSummary, error) {
	var video models.VideoSummary
	err := s.summaries.FindOne(ctx, bson.M{"videoId": videoID}).Decode(&video)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", videoID, err)
	}
	return &video, nil
}

// UpsertDetail writes everything the enricher knows about a video. The
// transcript is replaced wholesale; events are left alone.
func (s *Store) UpsertDetail(ctx context.Context, detail *models.VideoDetail) error {
	filter := bson.M{"videoId": detail.VideoID}
	opts := options.Update().SetUpsert(true)

	if _, err := s.details.UpdateOne(ctx, filter, detailUpdate(detail, s.now().UTC()), opts); err != nil {
		return fmt.Errorf("failed to upsert video detail %s: %w", detail.VideoID, err)
	}
	return nil
}

// detailUpdate sets everything the enricher owns. Events are only
// initialized on insert and never overwritten here.
func detailUpdate(detail *models.VideoDetail, now time.Time) bson.M {
	transcript := detail.Transcript
	if transcript == nil {
		transcript = []models.TranscriptEntry{}
	}

	return bson.M{
		"$set": bson.M{
			"title":           detail.Title,
			"publishedAt":     detail.PublishedAt,
			"thumbnailUrl":    detail.ThumbnailURL,
			"viewCount":       detail.ViewCount,
			"likeCount":       detail.LikeCount,
			"duration":        detail.Duration,
			"durationSeconds": detail.DurationSeconds,
			"transcript":      transcript,
			"updatedAt":       now,
		},
		"$setOnInsert": bson.M{
			"events":    []models.Event{},
			"createdAt": now,
		},
	}
}

func (s *Store) GetDetail(ctx context.Context, videoID string) (*models.VideoDetail, error) {
	var detail models.VideoDetail
	err := s.details.FindOne(ctx, bson.M{"videoId": videoID}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video detail %s: %w", videoID, err)
	}
	return &detail, nil
}

// DetailsByIDs loads the detail records for the given ids, keyed by id.
// Transcripts are not loaded.
func (s *Store) DetailsByIDs(ctx context.Context, videoIDs []string) (map[string]*models.VideoDetail, error) {
	details := make(map[string]*models.VideoDetail, len(videoIDs))
	if len(videoIDs) == 0 {
		return details, nil
	}

	opts := options.Find().SetProjection(bson.M{"transcript": bson.M{"$slice": 1}})
	cursor, err := s.details.Find(ctx, bson.M{"videoId": bson.M{"$in": videoIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query video details: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*models.VideoDetail
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode video details: %w", err)
	}
	for _, detail := range found {
		details[detail.VideoID] = detail
	}

	return details, nil
}

// extractionFilter is the Mongo form of VideoDetail.NeedsExtraction. With
// force set, only the transcript condition applies.
func extractionFilter(force bool) bson.M {
	hasTranscript := bson.M{"transcript.0": bson.M{"$exists": true}}
	if force {
		return hasTranscript
	}
	return bson.M{
		"$and": bson.A{
			hasTranscript,
			bson.M{"events.0": bson.M{"$exists": false}},
		},
	}
}

// ExtractionCandidates returns the details the event extractor should process.
func (s *Store) ExtractionCandidates(ctx context.Context, force bool) ([]*models.VideoDetail, error) {
	cursor, err := s.details.Find(ctx, extractionFilter(force))
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction candidates: %w", err)
	}

	details := []*models.VideoDetail{}
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("failed to decode extraction candidates: %w", err)
	}
	return details, nil
}

// ReplaceEvents overwrites the events of a detail in a single update.
func (s *Store) ReplaceEvents(ctx context.Context, videoID string, events []models.Event, promptVersion string) error {
	if events == nil {
		events = []models.Event{}
	}

	filter := bson.M{"videoId": videoID}
	update := bson.M{
		"$set": bson.M{
			"events":              events,
			"eventsPromptVersion": promptVersion,
			"eventsExtractedAt":   s.now().UTC(),
		},
	}

	result, err := s.details.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save events for %s: %w", videoID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"f1-highlights/agents/highlights"
	"f1-highlights/agents/highlights/transcript"
	"f1-highlights/agents/highlights/youtube"
	"f1-highlights/shared/ai"
	"f1-highlights/shared/config"
	"f1-highlights/shared/monitoring"
	"f1-highlights/shared/scheduler"
	"f1-highlights/shared/storage"
)

// app bundles everything a command needs.
type app struct {
	config   *config.Config
	store    *storage.Store
	monitor  *monitoring.Monitor
	pipeline *highlights.Pipeline
}

// newApp connects to MongoDB and builds the pipeline. Providers whose
// credential is missing are left out; their stages report it when triggered.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := storage.Connect(ctx, &cfg.Mongo)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to MongoDB database %s", cfg.Mongo.Database)

	monitor := monitoring.NewMonitor()
	deps := highlights.Dependencies{
		Store:       store,
		Transcripts: transcript.NewClient(&cfg.Transcript),
		Events:      scheduler.MonitorEvents(monitor),
	}

	yt, err := youtube.NewClient(ctx, &cfg.YouTube)
	switch {
	case err == nil:
		deps.Videos = yt
		log.Println("YouTube client initialized")
	case errors.Is(err, youtube.ErrMissingCredential):
		log.Printf("Warning: %v; catalog and details stages are disabled", err)
	default:
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	gemini, err := ai.NewGemini(ctx, &cfg.AI)
	switch {
	case err == nil:
		deps.Generator = gemini
		log.Printf("Gemini client initialized (model: %s)", gemini.Model())
	case errors.Is(err, ai.ErrMissingAPIKey):
		log.Printf("Warning: %v; events stage is disabled", err)
	default:
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &app{
		config:   cfg,
		store:    store,
		monitor:  monitor,
		pipeline: highlights.New(cfg, deps),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(context.Background()); err != nil {
		log.Printf("Warning: failed to disconnect from MongoDB: %v", err)
	}
}

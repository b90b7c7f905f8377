package highlights

import (
	"context"
	"fmt"
	"log"

	"f1-highlights/internal/models"
	"f1-highlights/shared/ai"
)

// ExtractEvents asks the model for the key race moments of every video that
// has a transcript but no events. With force set, videos that already have
// events are recomputed and overwritten.
func (p *Pipeline) ExtractEvents(ctx context.Context, force bool) (*models.BatchResult, error) {
	if p.generator == nil {
		return nil, fmt.Errorf("%w: Gemini API key required", ErrMissingCredential)
	}
	return p.run(ctx, StageEvents, func(ctx context.Context, result *models.BatchResult) error {
		return p.extractEvents(ctx, force, result)
	})
}

func (p *Pipeline) extractEvents(ctx context.Context, force bool, result *models.BatchResult) error {
	candidates, err := p.store.ExtractionCandidates(ctx, force)
	if err != nil {
		return fmt.Errorf("failed to load extraction candidates: %w", err)
	}

	seen := make(map[string]bool, len(candidates))
	unique := make([]*models.VideoDetail, 0, len(candidates))
	for _, d := range candidates {
		if d == nil || seen[d.VideoID] {
			continue
		}
		seen[d.VideoID] = true
		unique = append(unique, d)
	}
	result.Total = len(unique)

	if len(unique) == 0 {
		result.Message = "All videos already have events extracted."
		return nil
	}

	log.Printf("Found %d videos needing event extraction (force: %t)", len(unique), force)
	pacer := newPacer(p.config.Pipeline.Delay)

	for i, detail := range unique {
		if !detail.HasTranscript() || (!force && !detail.NeedsExtraction()) {
			result.Skipped++
			continue
		}

		transcriptJSON, err := ai.SerializeTranscript(detail.Transcript)
		if err != nil {
			log.Printf("❌ Failed to serialize transcript for %s: %v", detail.VideoID, err)
			result.RecordFailure(detail.VideoID)
			continue
		}
		if transcriptJSON == "" {
			log.Printf("Skipping %s: transcript has no text", detail.VideoID)
			result.Skipped++
			continue
		}

		if err := pacer.Wait(ctx); err != nil {
			return fmt.Errorf("events stage interrupted: %w", err)
		}

		log.Printf("Extracting events %d/%d: %s", i+1, len(unique), detail.VideoID)

		events, err := p.extractVideoEvents(ctx, transcriptJSON)
		if err != nil {
			log.Printf("❌ Error extracting events for %s: %v", detail.VideoID, err)
			result.RecordFailure(detail.VideoID)
			continue
		}

		if err := p.store.ReplaceEvents(ctx, detail.VideoID, events, ai.PromptVersion); err != nil {
			log.Printf("❌ Failed to save events for %s: %v", detail.VideoID, err)
			result.RecordFailure(detail.VideoID)
			continue
		}

		result.Processed++
		log.Printf("✅ Saved %d events for %s", len(events), detail.VideoID)
	}

	result.Message = "Events extraction completed."
	return nil
}

func (p *Pipeline) extractVideoEvents(ctx context.Context, transcriptJSON string) ([]models.Event, error) {
	response, err := p.generator.Generate(ctx, ai.BuildEventsPrompt(transcriptJSON))
	if err != nil {
		return nil, err
	}

	raw, err := ai.ParseEvents(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	events := make([]models.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, models.Event{
			Time:        ai.FormatTime(e.TimeInSeconds),
			Description: e.Description,
			Drivers:     e.Drivers,
		})
	}
	return events, nil
}

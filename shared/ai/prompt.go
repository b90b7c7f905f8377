package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"f1-highlights/internal/models"
)

// PromptVersion identifies the event extraction template. It is stored next
// to extracted events so a template change can be detected later.
const PromptVersion = "events-v1"

const eventsPromptTemplate = `You are an expert Formula 1 race analyst. Extract key Formula 1 events from this transcript.

TRANSCRIPT:
%s

INSTRUCTIONS:
1. Find key F1 events: overtakes, crashes, pit stops, penalties, race start, incidents
2. For each event, use the EXACT "start" time from the matching transcript entry, never an invented value
3. Return ONLY a valid JSON array, no explanation

OUTPUT FORMAT:
[
  {"timeInSeconds": 13.2, "description": "Race start at Italian Grand Prix", "drivers": []},
  {"timeInSeconds": 27.279, "description": "Max Verstappen vs Lando Norris battle", "drivers": ["Max Verstappen", "Lando Norris"]}
]

Rules:
- Use exact "start" values from transcript
- Only return JSON array
- No markdown formatting`

// SerializeTranscript encodes the transcript compactly, dropping entries
// without text. It returns an empty string when nothing remains.
func SerializeTranscript(entries []models.TranscriptEntry) (string, error) {
	kept := make([]models.TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return "", nil
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}
	return string(data), nil
}

// BuildEventsPrompt embeds a serialized transcript in the extraction template.
func BuildEventsPrompt(transcriptJSON string) string {
	return fmt.Sprintf(eventsPromptTemplate, transcriptJSON)
}

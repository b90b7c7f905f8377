package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	fencedBlockRE   = regexp.MustCompile("```(?:json|JSON)?[ \t]*\n?([\\s\\S]*?)```")
	leadingFenceRE  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\n?")
	trailingCommaRE = regexp.MustCompile(`,\s*([\]}])`)
	whitespaceRE    = regexp.MustCompile(`\s+`)
)

// RawEvent is a single event as the model emits it.
type RawEvent struct {
	TimeInSeconds float64  `json:"timeInSeconds"`
	Description   string   `json:"description"`
	Drivers       []string `json:"drivers"`
}

// CleanJSON turns a raw model response into text that should parse as a JSON
// array. A fenced code block anywhere in the response wins over the text
// around it. Within that, the first array that decodes as events is kept, so
// brackets in surrounding prose are ignored. Trailing commas are removed and
// whitespace is collapsed.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlockRE.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		s = leadingFenceRE.ReplaceAllString(s, "")
	}
	s = trailingCommaRE.ReplaceAllString(s, "$1")
	s = extractArray(s)
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// extractArray returns the first complete JSON array in s that decodes as a
// list of events. When none does, it falls back to the span between the first
// '[' and the last ']' so the parse error points at the model's output.
func extractArray(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var events []RawEvent
		if err := dec.Decode(&events); err == nil {
			return s[i : i+int(dec.InputOffset())]
		}
	}

	if start, end := strings.Index(s, "["), strings.LastIndex(s, "]"); start != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

// ParseEvents cleans a model response and decodes it into raw events.
func ParseEvents(response string) ([]RawEvent, error) {
	cleaned := CleanJSON(response)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var events []RawEvent
	if err := json.Unmarshal([]byte(cleaned), &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events JSON '%s': %w", truncateString(cleaned, 200), err)
	}

	for i := range events {
		if events[i].Drivers == nil {
			events[i].Drivers = []string{}
		}
	}

	return events, nil
}

// FormatTime renders seconds as MM:SS. Fractions are truncated, not rounded;
// negative and non-finite values render as 00:00 and values beyond
// math.MaxInt32 are clamped to it.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	if seconds > math.MaxInt32 {
		seconds = math.MaxInt32
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}

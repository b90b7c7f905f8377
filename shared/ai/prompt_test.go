package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"f1-highlights/internal/models"
	"f1-highlights/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeTranscript(t *testing.T) {
	t.Run("DropsBlankEntries", func(t *testing.T) {
		out, err := SerializeTranscript([]models.TranscriptEntry{
			{Text: "Lights out", Start: 10.0, Duration: 2.5},
			{Text: "   ", Start: 12.5, Duration: 1},
			{Text: "Into the pits", Start: 45.5, Duration: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, `[{"text":"Lights out","start":10,"duration":2.5},{"text":"Into the pits","start":45.5,"duration":3}]`, out)
	})

	t.Run("EmptyAfterFiltering", func(t *testing.T) {
		out, err := SerializeTranscript([]models.TranscriptEntry{{Text: ""}, {Text: "\n"}})
		require.NoError(t, err)
		assert.Equal(t, "", out)
	})

	t.Run("KeepsFractionalOffsets", func(t *testing.T) {
		out, err := SerializeTranscript([]models.TranscriptEntry{{Text: "Overtake", Start: 27.279, Duration: 1.04}})
		require.NoError(t, err)
		assert.Contains(t, out, `"start":27.279`)
	})
}

func TestBuildEventsPrompt(t *testing.T) {
	prompt := BuildEventsPrompt(`[{"text":"x","start":1,"duration":1}]`)

	assert.Contains(t, prompt, `TRANSCRIPT:
[{"text":"x","start":1,"duration":1}]`)
	assert.Contains(t, prompt, "timeInSeconds")
	assert.Contains(t, prompt, "pit stops")
	assert.Contains(t, prompt, "Only return JSON array")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), &config.AIConfig{Model: "gemini-2.0-flash"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath string
	var gotPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"timeInSeconds\":1,\"description\":\"Start\",\"drivers\":[]}]"}]}}]}`))
	}))
	defer server.Close()

	g, err := NewGemini(context.Background(), &config.AIConfig{
		GeminiAPIKey: "test-key",
		Model:        "gemini-2.0-flash",
		BaseURL:      server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", g.Model())

	text, err := g.Generate(context.Background(), "extract please")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "gemini-2.0-flash:generateContent"), "unexpected path %s", gotPath)
	assert.Equal(t, "extract please", gotPrompt)

	events, err := ParseEvents(text)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Start", events[0].Description)
}

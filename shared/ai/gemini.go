package ai

import (
	"context"
	"errors"
	"fmt"

	"f1-highlights/shared/config"

	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when no Gemini key is configured.
var ErrMissingAPIKey = errors.New("Gemini API key not configured")

// Gemini sends prompts to a Gemini model and returns the text answer.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg *config.AIConfig) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Generate sends a single text prompt and returns the model's text output.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with %s: %w", g.model, err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from %s", g.model)
	}

	return text, nil
}

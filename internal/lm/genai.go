package lm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"senars/internal/logging"
)

// GenAIModel generates text through Google's Gemini API.
type GenAIModel struct {
	client *genai.Client
	model  string
}

// NewGenAIModel creates a GenAI text backend.
func NewGenAIModel(apiKey, model string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIModel{client: client, model: model}, nil
}

// GenerateText submits a prompt and returns the completion text.
func (m *GenAIModel) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	timer := logging.StartTimer(logging.CategoryLM, "GenAI.GenerateText")
	defer timer.Stop()

	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		temp := float32(opts.Temperature)
		cfg.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned an empty completion")
	}
	return text, nil
}

// Name returns the backend name.
func (m *GenAIModel) Name() string { return fmt.Sprintf("genai:%s", m.model) }

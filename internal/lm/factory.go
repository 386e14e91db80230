package lm

import "fmt"

// Config selects and configures a backend.
type Config struct {
	Provider string // "genai" or "ollama"
	Model    string
	Endpoint string
	APIKey   string
}

// NewModel creates a text backend from configuration.
func NewModel(cfg Config) (any, error) {
	switch cfg.Provider {
	case "genai":
		return NewGenAIModel(cfg.APIKey, cfg.Model)
	case "ollama":
		return NewOllamaModel(cfg.Endpoint, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported lm provider: %q (use 'genai' or 'ollama')", cfg.Provider)
	}
}

// Package embedding provides vector embeddings for term similarity.
// Two backends are supported: Ollama (local) and Google GenAI (cloud).
// The Index on top of an engine serves the similarity lookups the
// semantic premise strategy consumes.
package embedding

import (
	"context"
	"fmt"

	"senars/internal/logging"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings.
	Dimensions() int

	// Name returns the engine name.
	Name() string
}

// Similar is one neighbor returned by a similarity lookup.
type Similar struct {
	Term       string
	Similarity float64
}

// Layer is the similarity contract consumed by the semantic strategy.
type Layer interface {
	FindSimilar(ctx context.Context, query string, k int) ([]Similar, error)
}

// Config selects and configures an engine.
type Config struct {
	Provider string // "ollama" or "genai"
	Endpoint string // Ollama endpoint
	Model    string
	APIKey   string // GenAI key
}

// NewEngine creates an embedding engine from configuration.
func NewEngine(cfg Config) (Engine, error) {
	log := logging.Get(logging.CategoryEmbedding)
	switch cfg.Provider {
	case "ollama":
		log.Infof("initializing ollama embedding engine endpoint=%s model=%s", cfg.Endpoint, cfg.Model)
		return NewOllamaEngine(cfg.Endpoint, cfg.Model), nil
	case "genai":
		log.Infof("initializing genai embedding engine model=%s", cfg.Model)
		return NewGenAIEngine(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q (use 'ollama' or 'genai')", cfg.Provider)
	}
}

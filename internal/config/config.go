// Package config holds senars configuration: defaults, yaml loading,
// environment overrides and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"senars/internal/logging"
)

// Config holds all senars configuration.
type Config struct {
	// Term factory settings
	Terms TermsConfig `yaml:"terms"`

	// Premise sampling settings
	Premise PremiseConfig `yaml:"premise"`

	// Formation strategy settings
	Strategy StrategyConfig `yaml:"strategy"`

	// Rule execution settings
	Rules RulesConfig `yaml:"rules"`

	// Pipeline runner settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Language-model backend settings
	LM LMConfig `yaml:"lm"`

	// Embedding settings
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Logging
	Logging logging.Config `yaml:"logging"`
}

// TermsConfig configures the term factory.
type TermsConfig struct {
	MaxCacheSize int `yaml:"max_cache_size"`
}

// WeightsConfig is the sampling mix over premise-selection dimensions.
// Weights are renormalized to sum to 1 at load time.
type WeightsConfig struct {
	Priority    float64 `yaml:"priority"`
	Recency     float64 `yaml:"recency"`
	Punctuation float64 `yaml:"punctuation"`
	Novelty     float64 `yaml:"novelty"`
}

// PunctuationMixConfig rotates primaries through the three task types.
type PunctuationMixConfig struct {
	Belief   float64 `yaml:"belief"`
	Goal     float64 `yaml:"goal"`
	Question float64 `yaml:"question"`
}

// PremiseConfig configures the premise source.
type PremiseConfig struct {
	Weights        WeightsConfig        `yaml:"weights"`
	PunctuationMix PunctuationMixConfig `yaml:"punctuation_mix"`
	// SampleSeed seeds all roulette sampling; 0 draws a random seed.
	SampleSeed int64 `yaml:"sample_seed"`
}

// StrategyConfig configures premise formation.
type StrategyConfig struct {
	MaxSecondaryPremises int     `yaml:"max_secondary_premises"`
	CandidateBagSize     int     `yaml:"candidate_bag_size"`
	SemanticThreshold    float64 `yaml:"semantic_threshold"`
	SemanticTopK         int     `yaml:"semantic_top_k"`
	PrologMaxDepth       int     `yaml:"prolog_max_depth"`
	PrologMaxSolutions   int     `yaml:"prolog_max_solutions"`
}

// CircuitBreakerConfig gates LM rules.
type CircuitBreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	ResetTimeoutMs   int `yaml:"reset_timeout_ms"`
}

// ResetTimeout returns the reset window as a duration.
func (c CircuitBreakerConfig) ResetTimeout() time.Duration {
	return time.Duration(c.ResetTimeoutMs) * time.Millisecond
}

// RulesConfig configures the rule processor.
type RulesConfig struct {
	MaxDerivationDepth     int                  `yaml:"max_derivation_depth"`
	TimeoutMs              int                  `yaml:"timeout_ms"` // 0 = unbounded
	AsyncQueueSize         int                  `yaml:"async_queue_size"`
	MaxConcurrentLMCalls   int                  `yaml:"max_concurrent_lm_calls"`
	BackpressureThreshold  int                  `yaml:"backpressure_threshold"`
	BackpressureIntervalMs int                  `yaml:"backpressure_interval_ms"`
	MaxChecks              int                  `yaml:"max_checks"`
	AsyncWaitIntervalMs    int                  `yaml:"async_wait_interval_ms"`
	CircuitBreaker         CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// PipelineConfig configures the runner.
type PipelineConfig struct {
	CPUThrottleIntervalMs float64 `yaml:"cpu_throttle_interval_ms"`
	BackpressureThreshold int     `yaml:"backpressure_threshold"`
}

// LMOptions are forwarded verbatim to the model backend.
type LMOptions struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// LMConfig selects and configures the language-model backend.
type LMConfig struct {
	// Provider: "genai", "ollama" or "" (no LM rules).
	Provider string    `yaml:"provider"`
	Model    string    `yaml:"model"`
	Endpoint string    `yaml:"endpoint"`
	APIKey   string    `yaml:"api_key"`
	Options  LMOptions `yaml:"options"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Provider: "genai", "ollama" or "" (semantic strategy disabled).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// DefaultConfig returns the canonical defaults.
func DefaultConfig() *Config {
	return &Config{
		Terms: TermsConfig{MaxCacheSize: 5000},
		Premise: PremiseConfig{
			Weights:        WeightsConfig{Priority: 0.4, Recency: 0.25, Punctuation: 0.2, Novelty: 0.15},
			PunctuationMix: PunctuationMixConfig{Belief: 0.7, Goal: 0.15, Question: 0.15},
		},
		Strategy: StrategyConfig{
			MaxSecondaryPremises: 8,
			CandidateBagSize:     50,
			SemanticThreshold:    0.7,
			SemanticTopK:         5,
			PrologMaxDepth:       12,
			PrologMaxSolutions:   4,
		},
		Rules: RulesConfig{
			MaxDerivationDepth:     12,
			AsyncQueueSize:         100,
			MaxConcurrentLMCalls:   4,
			BackpressureThreshold:  50,
			BackpressureIntervalMs: 10,
			MaxChecks:              20,
			AsyncWaitIntervalMs:    25,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeoutMs:   60000,
			},
		},
		Pipeline: PipelineConfig{
			CPUThrottleIntervalMs: 1,
			BackpressureThreshold: 100,
		},
		LM: LMConfig{
			Model:   "gemini-2.0-flash",
			Options: LMOptions{Temperature: 0.7, MaxTokens: 512},
		},
		Embedding: EmbeddingConfig{
			Endpoint: "http://localhost:11434",
			Model:    "embeddinggemma",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads a yaml config file over the defaults and applies environment
// overrides. An empty path yields defaults plus env.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Premise.Weights = cfg.Premise.Weights.Normalized()
	return cfg, nil
}

// applyEnvOverrides maps SENARS_* environment variables over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SENARS_LM_API_KEY"); v != "" {
		c.LM.APIKey = v
	}
	if v := os.Getenv("SENARS_LM_PROVIDER"); v != "" {
		c.LM.Provider = v
	}
	if v := os.Getenv("SENARS_EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("SENARS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SENARS_MAX_DERIVATION_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rules.MaxDerivationDepth = n
		}
	}
	if v := os.Getenv("SENARS_SAMPLE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Premise.SampleSeed = n
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Terms.MaxCacheSize <= 0 {
		return fmt.Errorf("terms.max_cache_size must be positive, got %d", c.Terms.MaxCacheSize)
	}
	if c.Strategy.MaxSecondaryPremises <= 0 {
		return fmt.Errorf("strategy.max_secondary_premises must be positive, got %d", c.Strategy.MaxSecondaryPremises)
	}
	if c.Strategy.CandidateBagSize <= 0 {
		return fmt.Errorf("strategy.candidate_bag_size must be positive, got %d", c.Strategy.CandidateBagSize)
	}
	if c.Rules.MaxDerivationDepth <= 0 {
		return fmt.Errorf("rules.max_derivation_depth must be positive, got %d", c.Rules.MaxDerivationDepth)
	}
	if c.Rules.TimeoutMs < 0 {
		return fmt.Errorf("rules.timeout_ms must be >= 0, got %d", c.Rules.TimeoutMs)
	}
	if c.Rules.AsyncQueueSize <= 0 {
		return fmt.Errorf("rules.async_queue_size must be positive, got %d", c.Rules.AsyncQueueSize)
	}
	if c.Rules.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("rules.circuit_breaker.failure_threshold must be positive")
	}
	w := c.Premise.Weights
	if w.Priority < 0 || w.Recency < 0 || w.Punctuation < 0 || w.Novelty < 0 {
		return fmt.Errorf("premise.weights must be non-negative")
	}
	if w.Priority+w.Recency+w.Punctuation+w.Novelty == 0 {
		return fmt.Errorf("premise.weights must not all be zero")
	}
	return nil
}

// Normalized scales the weights to sum to 1.
func (w WeightsConfig) Normalized() WeightsConfig {
	sum := w.Priority + w.Recency + w.Punctuation + w.Novelty
	if sum == 0 {
		return WeightsConfig{Priority: 1}
	}
	return WeightsConfig{
		Priority:    w.Priority / sum,
		Recency:     w.Recency / sum,
		Punctuation: w.Punctuation / sum,
		Novelty:     w.Novelty / sum,
	}
}

// CPUThrottleInterval returns the post-derivation sleep.
func (p PipelineConfig) CPUThrottleInterval() time.Duration {
	return time.Duration(p.CPUThrottleIntervalMs * float64(time.Millisecond))
}

// BackpressureInterval returns the per-event backpressure sleep.
func (r RulesConfig) BackpressureInterval() time.Duration {
	return time.Duration(r.BackpressureIntervalMs) * time.Millisecond
}

// AsyncWaitInterval returns the shutdown-drain sleep.
func (r RulesConfig) AsyncWaitInterval() time.Duration {
	return time.Duration(r.AsyncWaitIntervalMs) * time.Millisecond
}

// Timeout returns the processing budget (0 = unbounded).
func (r RulesConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Terms.MaxCacheSize != 5000 {
		t.Errorf("max_cache_size = %d, want 5000", cfg.Terms.MaxCacheSize)
	}
	if cfg.Rules.AsyncQueueSize != 100 {
		t.Errorf("async_queue_size = %d, want 100", cfg.Rules.AsyncQueueSize)
	}
	if cfg.Rules.CircuitBreaker.FailureThreshold != 5 {
		t.Errorf("failure_threshold = %d, want 5", cfg.Rules.CircuitBreaker.FailureThreshold)
	}
	if cfg.Rules.CircuitBreaker.ResetTimeout().Seconds() != 60 {
		t.Errorf("reset_timeout = %v, want 60s", cfg.Rules.CircuitBreaker.ResetTimeout())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "senars.yaml")
	content := `
terms:
  max_cache_size: 123
rules:
  max_derivation_depth: 3
premise:
  weights:
    priority: 2
    recency: 1
    punctuation: 1
    novelty: 0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Terms.MaxCacheSize != 123 {
		t.Errorf("max_cache_size = %d, want 123", cfg.Terms.MaxCacheSize)
	}
	if cfg.Rules.MaxDerivationDepth != 3 {
		t.Errorf("max_derivation_depth = %d, want 3", cfg.Rules.MaxDerivationDepth)
	}
	w := cfg.Premise.Weights
	if math.Abs(w.Priority-0.5) > 1e-9 || math.Abs(w.Novelty) > 1e-9 {
		t.Errorf("weights not normalized: %+v", w)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/senars.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	for _, key := range []string{
		"SENARS_LM_API_KEY", "SENARS_LM_PROVIDER", "SENARS_EMBEDDING_API_KEY",
		"SENARS_LOG_LEVEL", "SENARS_MAX_DERIVATION_DEPTH", "SENARS_SAMPLE_SEED",
	} {
		t.Setenv(key, "")
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := DefaultConfig()
	want.Premise.Weights = want.Premise.Weights.Normalized()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load(\"\") differs from defaults (-want +got):\n%s", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENARS_LM_API_KEY", "sekrit")
	t.Setenv("SENARS_MAX_DERIVATION_DEPTH", "7")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LM.APIKey != "sekrit" {
		t.Error("SENARS_LM_API_KEY not applied")
	}
	if cfg.Rules.MaxDerivationDepth != 7 {
		t.Error("SENARS_MAX_DERIVATION_DEPTH not applied")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cache", func(c *Config) { c.Terms.MaxCacheSize = 0 }},
		{"zero secondaries", func(c *Config) { c.Strategy.MaxSecondaryPremises = 0 }},
		{"zero depth", func(c *Config) { c.Rules.MaxDerivationDepth = 0 }},
		{"negative timeout", func(c *Config) { c.Rules.TimeoutMs = -1 }},
		{"zero queue", func(c *Config) { c.Rules.AsyncQueueSize = 0 }},
		{"negative weight", func(c *Config) { c.Premise.Weights.Recency = -1 }},
		{"all-zero weights", func(c *Config) { c.Premise.Weights = WeightsConfig{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

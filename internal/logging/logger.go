// Package logging provides categorized structured logging for senars.
// Each subsystem logs under its own category; categories can be enabled
// or disabled independently. The backend is zap.
package logging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	// Core data model categories
	CategoryTerm Category = "term" // Term factory, interning, cache
	CategoryTask Category = "task" // Task construction, truth, stamps
	CategoryBag  Category = "bag"  // Priority bag operations

	// Premise formation categories
	CategoryPremise  Category = "premise"  // Premise source sampling
	CategoryStrategy Category = "strategy" // Formation strategies
	CategoryProlog   Category = "prolog"   // Backward-chaining engine

	// Rule execution categories
	CategoryRules Category = "rules" // Pattern rule compilation and execution
	CategoryLM    Category = "lm"    // Language-model rules and backends

	// Pipeline categories
	CategoryPipeline Category = "pipeline" // Runner, throttling, metrics
	CategoryMemory   Category = "memory"   // Concept store access

	// Ambient categories
	CategoryConfig    Category = "config"    // Configuration loading
	CategoryEmbedding Category = "embedding" // Embedding engines and index
)

// Config controls logger construction.
type Config struct {
	Level      string          `yaml:"level"`       // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"` // JSON encoder instead of console
	FilePath   string          `yaml:"file_path"`   // optional log file; empty means stderr
	Categories map[string]bool `yaml:"categories"`  // nil means all enabled
}

// DefaultConfig returns production defaults: info-level console logging
// to stderr with all categories enabled.
func DefaultConfig() Config {
	return Config{Level: "info"}
}

var (
	mu      sync.RWMutex
	root    *zap.Logger
	cfg     Config
	loggers = make(map[Category]*zap.SugaredLogger)
	nop     = zap.NewNop().Sugar()
)

// Init builds the root zap logger from cfg. Safe to call more than once;
// later calls replace the root and invalidate cached category loggers.
func Init(c Config) error {
	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.Set(c.Level); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if c.JSONFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	sink := zapcore.Lock(os.Stderr)
	if c.FilePath != "" {
		f, err := os.OpenFile(c.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		sink = zapcore.Lock(f)
	}

	mu.Lock()
	defer mu.Unlock()
	cfg = c
	root = zap.New(zapcore.NewCore(enc, sink, level))
	loggers = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Get returns the sugared logger for a category. Categories disabled in
// the config (and all categories before Init) get a no-op logger.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	r := root
	c := cfg
	mu.RUnlock()

	if r == nil {
		return nop
	}
	if c.Categories != nil {
		if enabled, ok := c.Categories[string(category)]; ok && !enabled {
			return nop
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category)).Sugar()
	loggers[category] = l
	return l
}

// Nop returns a logger that discards everything. Useful as an explicit
// dependency in tests.
func Nop() *zap.SugaredLogger {
	return nop
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// =============================================================================
// TIMING HELPER
// =============================================================================

// Timer measures an operation's duration and logs it at debug level.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debugf("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warnf("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debugf("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}

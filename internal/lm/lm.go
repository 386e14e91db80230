// Package lm defines the language-model contract consumed by LM rules
// and ships two backends (Google GenAI, Ollama). A model object exposes
// at least one of three entry points; the invoker probes them in order
// and pins the first match.
package lm

import (
	"context"
	"errors"
)

// Options are forwarded verbatim to the backend.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// The three recognized entry points, probed in this order.

// TextGenerator is the primary entry point.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts Options) (string, error)
}

// PromptProcessor is the second entry point.
type PromptProcessor interface {
	Process(ctx context.Context, prompt string, opts Options) (string, error)
}

// Querier is the last entry point.
type Querier interface {
	Query(ctx context.Context, prompt string, opts Options) (string, error)
}

// ErrUnavailable means a model object exposes none of the entry points.
// The owning rule treats this as a permanent failure.
var ErrUnavailable = errors.New("language model exposes no compatible entry point")

// Invoker pins a model's first compatible entry point.
type Invoker struct {
	call func(ctx context.Context, prompt string, opts Options) (string, error)
}

// NewInvoker probes model for GenerateText, Process, then Query.
func NewInvoker(model any) (*Invoker, error) {
	if m, ok := model.(TextGenerator); ok {
		return &Invoker{call: m.GenerateText}, nil
	}
	if m, ok := model.(PromptProcessor); ok {
		return &Invoker{call: m.Process}, nil
	}
	if m, ok := model.(Querier); ok {
		return &Invoker{call: m.Query}, nil
	}
	return nil, ErrUnavailable
}

// Invoke submits a prompt through the pinned entry point.
func (iv *Invoker) Invoke(ctx context.Context, prompt string, opts Options) (string, error) {
	return iv.call(ctx, prompt, opts)
}

// Package premise implements the premise-formation layer: a sampling
// source of primary premises and pluggable strategies that propose
// secondary premises for each primary.
package premise

import (
	"context"

	"senars/internal/embedding"
	"senars/internal/memory"
	"senars/internal/premise/prolog"
	"senars/internal/task"
	"senars/internal/term"
)

// Candidate type tags.
const (
	TypeDecomposedSubject   = "decomposed-subject"
	TypeDecomposedPredicate = "decomposed-predicate"
	TypeDecomposedComponent = "decomposed-component"
	TypeTaskMatchHigh       = "task-match-high"
	TypeTaskMatch           = "task-match"
	TypeTaskMatchLow        = "task-match-low"
	TypeSemantic            = "semantic"
	TypeAnalogical          = "analogical"
	TypePrologSolution      = "prolog-solution"
)

// Candidate is a proposed secondary premise. Either Term or SourceTask
// is set: a bare term is synthesized into a belief by the orchestrator,
// a source task is used directly.
type Candidate struct {
	Term              *term.Term
	SourceTask        *task.Task
	Priority          float64
	Type              string
	DecompositionType string
	Operator          string
	ComponentIndex    int
}

// Key identifies a candidate for bag storage and deduplication.
func (c Candidate) Key() string {
	if c.SourceTask != nil {
		return c.SourceTask.Term.Name()
	}
	if c.Term != nil {
		return c.Term.Name()
	}
	return ""
}

// Pair is one unit of work for the rule processor. Secondary is nil for
// single-premise work.
type Pair struct {
	Primary   *task.Task
	Secondary *task.Task
}

// Context carries the shared collaborators strategies may consult.
// Embedding and Prolog are optional; strategies needing an absent
// collaborator yield nothing.
type Context struct {
	View              memory.View
	Factory           *term.Factory
	Embedding         embedding.Layer
	Prolog            *prolog.Engine
	MaxCandidates     int
	SemanticThreshold float64
	SemanticTopK      int
}

// FormationStrategy proposes secondary-premise candidates for a primary.
// Implementations bound their output by ctx.MaxCandidates and must not
// precompute unbounded sequences.
type FormationStrategy interface {
	Name() string
	Enabled() bool
	// BasePriority scales every candidate the strategy emits.
	BasePriority() float64
	GenerateCandidates(ctx context.Context, primary *task.Task, fc *Context) ([]Candidate, error)
}

// DefaultStrategies returns the standard formation stack: decomposition,
// task matching, semantic retrieval, analogical mapping and backward
// chaining, all at base priority 1.
func DefaultStrategies() []FormationStrategy {
	return []FormationStrategy{
		NewDecompositionStrategy(1),
		NewTaskMatchStrategy(1),
		NewSemanticStrategy(1),
		NewAnalogicalStrategy(1),
		NewPrologStrategy(1),
	}
}

package premise

import (
	"context"
	"fmt"

	"senars/internal/task"
)

// SemanticStrategy proposes beliefs of concepts whose embedding
// similarity to the primary's term exceeds a threshold. Requires an
// embedding layer in the formation context; yields nothing without one.
type SemanticStrategy struct {
	enabled      bool
	basePriority float64
}

// NewSemanticStrategy creates the strategy.
func NewSemanticStrategy(basePriority float64) *SemanticStrategy {
	if basePriority <= 0 {
		basePriority = 1.0
	}
	return &SemanticStrategy{enabled: true, basePriority: basePriority}
}

func (s *SemanticStrategy) Name() string          { return "semantic" }
func (s *SemanticStrategy) Enabled() bool         { return s.enabled }
func (s *SemanticStrategy) BasePriority() float64 { return s.basePriority }

// SetEnabled toggles the strategy.
func (s *SemanticStrategy) SetEnabled(v bool) { s.enabled = v }

// GenerateCandidates looks up the primary's semantic neighbors and
// yields beliefs of the matching concepts, priority-scaled by similarity.
func (s *SemanticStrategy) GenerateCandidates(ctx context.Context, primary *task.Task, fc *Context) ([]Candidate, error) {
	if fc.Embedding == nil {
		return nil, nil
	}
	k := fc.SemanticTopK
	if k <= 0 {
		k = 5
	}
	neighbors, err := fc.Embedding.FindSimilar(ctx, primary.Term.Name(), k)
	if err != nil {
		return nil, fmt.Errorf("semantic lookup: %w", err)
	}

	byName := map[string][]*task.Task{}
	for _, concept := range fc.View.AllConcepts() {
		byName[concept.Term().Name()] = concept.Beliefs()
	}

	var out []Candidate
	for _, n := range neighbors {
		if n.Similarity < fc.SemanticThreshold {
			continue
		}
		for _, belief := range byName[n.Term] {
			if belief.Stamp.ID() == primary.Stamp.ID() {
				continue
			}
			out = append(out, Candidate{
				SourceTask: belief,
				Priority:   n.Similarity,
				Type:       TypeSemantic,
			})
		}
	}
	return capCandidates(out, fc), nil
}

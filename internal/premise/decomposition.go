package premise

import (
	"context"

	"senars/internal/task"
	"senars/internal/term"
)

// DecompositionStrategy splits decomposable compound primaries
// (statements, junctions, products, extensional sets) into their
// components, proposing each as a secondary premise.
type DecompositionStrategy struct {
	enabled      bool
	basePriority float64

	// Per-role priorities.
	SubjectPriority   float64
	PredicatePriority float64
	ComponentPriority float64
}

// NewDecompositionStrategy creates the strategy with the default role
// priorities.
func NewDecompositionStrategy(basePriority float64) *DecompositionStrategy {
	if basePriority <= 0 {
		basePriority = 1.0
	}
	return &DecompositionStrategy{
		enabled:           true,
		basePriority:      basePriority,
		SubjectPriority:   0.85,
		PredicatePriority: 0.85,
		ComponentPriority: 0.7,
	}
}

func (d *DecompositionStrategy) Name() string          { return "decomposition" }
func (d *DecompositionStrategy) Enabled() bool         { return d.enabled }
func (d *DecompositionStrategy) BasePriority() float64 { return d.basePriority }

// SetEnabled toggles the strategy.
func (d *DecompositionStrategy) SetEnabled(v bool) { d.enabled = v }

// GenerateCandidates yields one candidate per decomposable component.
func (d *DecompositionStrategy) GenerateCandidates(_ context.Context, primary *task.Task, fc *Context) ([]Candidate, error) {
	t := primary.Term
	if !t.IsCompound() || !term.IsDecomposable(t.Op()) {
		return nil, nil
	}

	var out []Candidate
	if term.IsStatement(t.Op()) {
		comps := t.Components()
		if !comps[0].IsVariable() {
			out = append(out, Candidate{
				Term:              comps[0],
				Priority:          d.SubjectPriority,
				Type:              TypeDecomposedSubject,
				DecompositionType: TypeDecomposedSubject,
				Operator:          string(t.Op()),
				ComponentIndex:    0,
			})
		}
		if !comps[1].IsVariable() {
			out = append(out, Candidate{
				Term:              comps[1],
				Priority:          d.PredicatePriority,
				Type:              TypeDecomposedPredicate,
				DecompositionType: TypeDecomposedPredicate,
				Operator:          string(t.Op()),
				ComponentIndex:    1,
			})
		}
		return capCandidates(out, fc), nil
	}

	for i, c := range t.Components() {
		if c.IsVariable() {
			continue
		}
		out = append(out, Candidate{
			Term:              c,
			Priority:          d.ComponentPriority,
			Type:              TypeDecomposedComponent,
			DecompositionType: TypeDecomposedComponent,
			Operator:          string(t.Op()),
			ComponentIndex:    i,
		})
	}
	return capCandidates(out, fc), nil
}

func capCandidates(cs []Candidate, fc *Context) []Candidate {
	if fc != nil && fc.MaxCandidates > 0 && len(cs) > fc.MaxCandidates {
		return cs[:fc.MaxCandidates]
	}
	return cs
}

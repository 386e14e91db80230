package premise

import (
	"context"

	"senars/internal/task"
	"senars/internal/term"
)

// AnalogicalStrategy pairs similarity beliefs with inheritance and
// implication beliefs that unify on a shared term, proposing the
// statement side of each mapping as a secondary premise.
type AnalogicalStrategy struct {
	enabled      bool
	basePriority float64

	MappingPriority float64
}

// NewAnalogicalStrategy creates the strategy.
func NewAnalogicalStrategy(basePriority float64) *AnalogicalStrategy {
	if basePriority <= 0 {
		basePriority = 1.0
	}
	return &AnalogicalStrategy{enabled: true, basePriority: basePriority, MappingPriority: 0.75}
}

func (a *AnalogicalStrategy) Name() string          { return "analogical" }
func (a *AnalogicalStrategy) Enabled() bool         { return a.enabled }
func (a *AnalogicalStrategy) BasePriority() float64 { return a.basePriority }

// SetEnabled toggles the strategy.
func (a *AnalogicalStrategy) SetEnabled(v bool) { a.enabled = v }

// GenerateCandidates scans memory for similarity beliefs whose terms
// unify with a component of the primary, and for statement beliefs
// bridging the primary through a similarity. The unifying belief is
// proposed as the secondary.
func (a *AnalogicalStrategy) GenerateCandidates(ctx context.Context, primary *task.Task, fc *Context) ([]Candidate, error) {
	var sims, stmts []*task.Task
	for _, concept := range fc.View.AllConcepts() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, b := range concept.Beliefs() {
			if b.Stamp.ID() == primary.Stamp.ID() {
				continue
			}
			switch b.Term.Op() {
			case term.OpSimilarity, term.OpEquivalence:
				sims = append(sims, b)
			case term.OpInheritance, term.OpImplication:
				stmts = append(stmts, b)
			}
		}
	}

	var out []Candidate
	add := func(b *task.Task) {
		out = append(out, Candidate{SourceTask: b, Priority: a.MappingPriority, Type: TypeAnalogical})
	}

	switch primary.Term.Op() {
	case term.OpSimilarity, term.OpEquivalence:
		// Primary is the similarity; propose statements touching either side.
		for _, b := range stmts {
			if unifiesOnComponent(primary.Term, b.Term) {
				add(b)
			}
		}
	case term.OpInheritance, term.OpImplication:
		// Primary is the statement; propose bridging similarities.
		for _, b := range sims {
			if unifiesOnComponent(b.Term, primary.Term) {
				add(b)
			}
		}
	}
	return capCandidates(out, fc), nil
}

// unifiesOnComponent reports whether any component of the similarity
// unifies with any component of the statement.
func unifiesOnComponent(sim, stmt *term.Term) bool {
	for _, sc := range sim.Components() {
		for _, tc := range stmt.Components() {
			if _, ok := term.Unify(sc, tc, nil); ok {
				return true
			}
		}
	}
	return false
}

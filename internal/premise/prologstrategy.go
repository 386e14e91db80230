package premise

import (
	"context"

	"senars/internal/logging"
	"senars/internal/task"
)

// PrologStrategy answers question primaries by backward chaining over a
// knowledge base compiled from memory's beliefs. Each solution grounds
// the question term into a candidate secondary.
type PrologStrategy struct {
	enabled      bool
	basePriority float64

	SolutionPriority float64
}

// NewPrologStrategy creates the strategy.
func NewPrologStrategy(basePriority float64) *PrologStrategy {
	if basePriority <= 0 {
		basePriority = 1.0
	}
	return &PrologStrategy{enabled: true, basePriority: basePriority, SolutionPriority: 0.8}
}

func (p *PrologStrategy) Name() string          { return "prolog" }
func (p *PrologStrategy) Enabled() bool         { return p.enabled }
func (p *PrologStrategy) BasePriority() float64 { return p.basePriority }

// SetEnabled toggles the strategy.
func (p *PrologStrategy) SetEnabled(v bool) { p.enabled = v }

// GenerateCandidates rebuilds the knowledge base from the current view
// and solves question primaries. Non-questions yield nothing.
//
// Rebuilding per question keeps the KB consistent with memory without a
// change feed; questions are rare among primaries, so the cost stays
// incidental.
func (p *PrologStrategy) GenerateCandidates(ctx context.Context, primary *task.Task, fc *Context) ([]Candidate, error) {
	if fc.Prolog == nil || !primary.IsQuestion() {
		return nil, nil
	}

	eng := fc.Prolog
	eng.Clear()
	for _, concept := range fc.View.AllConcepts() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, b := range concept.Beliefs() {
			eng.Assert(b.Term)
		}
	}
	logging.Get(logging.CategoryProlog).Debugf("kb rebuilt: %d clauses for %q", eng.Size(), primary.Term.Name())

	var out []Candidate
	for _, sol := range eng.Solve(primary.Term) {
		grounded := fc.Factory.ApplySubstitution(primary.Term, sol)
		if grounded.ContainsVariable() {
			continue
		}
		out = append(out, Candidate{
			Term:     grounded,
			Priority: p.SolutionPriority,
			Type:     TypePrologSolution,
		})
	}
	return capCandidates(out, fc), nil
}

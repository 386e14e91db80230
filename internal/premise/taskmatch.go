package premise

import (
	"context"

	"senars/internal/task"
	"senars/internal/term"
)

// TaskMatchStrategy proposes existing memory tasks as secondaries,
// ranked by how they relate to the primary: syllogistic chains first
// (the primary's predicate is the other's subject or vice versa), then
// any shared term, then the rest.
type TaskMatchStrategy struct {
	enabled      bool
	basePriority float64

	HighPriority float64
	MidPriority  float64
	LowPriority  float64
	// IncludeUnrelated admits less-compatible tasks at LowPriority.
	IncludeUnrelated bool
}

// NewTaskMatchStrategy creates the strategy with default rank priorities.
func NewTaskMatchStrategy(basePriority float64) *TaskMatchStrategy {
	if basePriority <= 0 {
		basePriority = 1.0
	}
	return &TaskMatchStrategy{
		enabled:      true,
		basePriority: basePriority,
		HighPriority: 0.9,
		MidPriority:  0.6,
		LowPriority:  0.25,
	}
}

func (m *TaskMatchStrategy) Name() string          { return "task-match" }
func (m *TaskMatchStrategy) Enabled() bool         { return m.enabled }
func (m *TaskMatchStrategy) BasePriority() float64 { return m.basePriority }

// SetEnabled toggles the strategy.
func (m *TaskMatchStrategy) SetEnabled(v bool) { m.enabled = v }

// GenerateCandidates scans memory for belief tasks related to the primary.
func (m *TaskMatchStrategy) GenerateCandidates(ctx context.Context, primary *task.Task, fc *Context) ([]Candidate, error) {
	var out []Candidate
	limit := fc.MaxCandidates
	if limit <= 0 {
		limit = 32
	}

	for _, concept := range fc.View.AllConcepts() {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		for _, other := range concept.Tasks(0) {
			if !other.IsBelief() {
				continue
			}
			if other == primary || other.Stamp.ID() == primary.Stamp.ID() {
				continue
			}
			switch classifyMatch(primary.Term, other.Term) {
			case matchHigh:
				out = append(out, Candidate{SourceTask: other, Priority: m.HighPriority, Type: TypeTaskMatchHigh})
			case matchShared:
				out = append(out, Candidate{SourceTask: other, Priority: m.MidPriority, Type: TypeTaskMatch})
			default:
				if m.IncludeUnrelated {
					out = append(out, Candidate{SourceTask: other, Priority: m.LowPriority, Type: TypeTaskMatchLow})
				}
			}
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

type matchRank int

const (
	matchNone matchRank = iota
	matchShared
	matchHigh
)

// classifyMatch ranks the relation between two terms. A syllogistic
// chain (one statement's predicate is the other's subject) ranks
// highest; sharing any component ranks next.
func classifyMatch(a, b *term.Term) matchRank {
	if a.IsCompound() && b.IsCompound() && term.IsStatement(a.Op()) && term.IsStatement(b.Op()) {
		as, ap := a.Components()[0], a.Components()[1]
		bs, bp := b.Components()[0], b.Components()[1]
		if ap.Name() == bs.Name() || as.Name() == bp.Name() {
			return matchHigh
		}
		if as.Name() == bs.Name() || ap.Name() == bp.Name() {
			return matchShared
		}
	}
	if sharesTerm(a, b) {
		return matchShared
	}
	return matchNone
}

// sharesTerm reports whether a and b share any non-variable leaf or
// either contains the other.
func sharesTerm(a, b *term.Term) bool {
	if a.Name() == b.Name() {
		return true
	}
	leaves := map[string]bool{}
	collectLeaves(a, leaves)
	return anyLeafIn(b, leaves)
}

func collectLeaves(t *term.Term, into map[string]bool) {
	if t.IsAtom() {
		into[t.Name()] = true
		return
	}
	for _, c := range t.Components() {
		collectLeaves(c, into)
	}
}

func anyLeafIn(t *term.Term, leaves map[string]bool) bool {
	if t.IsAtom() {
		return leaves[t.Name()]
	}
	for _, c := range t.Components() {
		if anyLeafIn(c, leaves) {
			return true
		}
	}
	return false
}

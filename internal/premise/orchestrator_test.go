package premise

import (
	"context"
	"errors"
	"testing"
	"time"

	"senars/internal/task"
)

// fixedStrategy yields canned candidates.
type fixedStrategy struct {
	name     string
	enabled  bool
	base     float64
	cands    []Candidate
	err      error
	panicMsg string
}

func (s *fixedStrategy) Name() string          { return s.name }
func (s *fixedStrategy) Enabled() bool         { return s.enabled }
func (s *fixedStrategy) BasePriority() float64 { return s.base }
func (s *fixedStrategy) GenerateCandidates(context.Context, *task.Task, *Context) ([]Candidate, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.cands, s.err
}

func runPairs(t *testing.T, o *Orchestrator, primary *task.Task) []Pair {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan *task.Task, 1)
	in <- primary
	close(in)

	var out []Pair
	stream := o.GeneratePremisePairs(ctx, in)
	deadline := time.After(time.Second)
	for {
		select {
		case p, ok := <-stream:
			if !ok {
				return out
			}
			out = append(out, p)
		case <-deadline:
			t.Fatal("pair stream stalled")
		}
	}
}

func TestOrchestratorPairsInPriorityOrder(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))

	strat := &fixedStrategy{name: "fixed", enabled: true, base: 1, cands: []Candidate{
		{Term: f.Atom("weak"), Priority: 0.2, Type: TypeDecomposedComponent},
		{Term: f.Atom("strong"), Priority: 0.9, Type: TypeDecomposedComponent},
	}}
	o := NewOrchestrator(fc, []FormationStrategy{strat}, OrchestratorConfig{MaxSecondaryPremises: 8})

	pairs := runPairs(t, o, primary)
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(pairs))
	}
	if pairs[0].Secondary.Term.Name() != "strong" {
		t.Errorf("first secondary = %q, want strong", pairs[0].Secondary.Term.Name())
	}
	if pairs[0].Primary != primary {
		t.Error("pair must carry the primary")
	}
}

func TestOrchestratorSynthesizedSecondary(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(0.8, 0.9))

	strat := &fixedStrategy{name: "fixed", enabled: true, base: 1, cands: []Candidate{
		{Term: f.Atom("robin"), Priority: 0.85, Type: TypeDecomposedSubject},
	}}
	o := NewOrchestrator(fc, []FormationStrategy{strat}, OrchestratorConfig{})

	pairs := runPairs(t, o, primary)
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	sec := pairs[0].Secondary
	if sec.Truth.F != 0.8 {
		t.Errorf("synthesized f = %v, want primary's 0.8", sec.Truth.F)
	}
	if sec.Truth.C >= 0.9 {
		t.Errorf("synthesized c = %v, must be weakened below 0.9", sec.Truth.C)
	}
	if sec.Budget.Priority != 0.85 {
		t.Errorf("budget priority = %v, want candidate's 0.85", sec.Budget.Priority)
	}
	if sec.Stamp.Depth() != 1 || !sec.Stamp.Overlaps(primary.Stamp) {
		t.Error("synthesized stamp must derive from the primary's")
	}
}

func TestOrchestratorUsesSourceTaskDirectly(t *testing.T) {
	f, store, fc := fixture(t)
	existing := mustBelief(t, inheritance(f, "bird", "animal"), task.NewTruth(1, 0.9))
	store.AddTask(existing)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))

	strat := &fixedStrategy{name: "fixed", enabled: true, base: 1, cands: []Candidate{
		{SourceTask: existing, Priority: 0.9, Type: TypeTaskMatchHigh},
	}}
	o := NewOrchestrator(fc, []FormationStrategy{strat}, OrchestratorConfig{})

	pairs := runPairs(t, o, primary)
	if len(pairs) != 1 || pairs[0].Secondary != existing {
		t.Fatalf("pairs = %+v, want the existing task itself", pairs)
	}
}

func TestOrchestratorDeduplicates(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))

	s1 := &fixedStrategy{name: "s1", enabled: true, base: 1, cands: []Candidate{
		{Term: f.Atom("bird"), Priority: 0.9, Type: TypeDecomposedPredicate},
	}}
	s2 := &fixedStrategy{name: "s2", enabled: true, base: 1, cands: []Candidate{
		{Term: f.Atom("bird"), Priority: 0.5, Type: TypeDecomposedComponent},
	}}
	o := NewOrchestrator(fc, []FormationStrategy{s1, s2}, OrchestratorConfig{})

	pairs := runPairs(t, o, primary)
	if len(pairs) != 1 {
		t.Errorf("pairs = %d, want 1 after dedup", len(pairs))
	}
}

func TestOrchestratorTruncatesToMax(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))

	var cands []Candidate
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		cands = append(cands, Candidate{Term: f.Atom(name), Priority: 0.5, Type: TypeDecomposedComponent})
	}
	strat := &fixedStrategy{name: "many", enabled: true, base: 1, cands: cands}
	o := NewOrchestrator(fc, []FormationStrategy{strat}, OrchestratorConfig{MaxSecondaryPremises: 2})

	if pairs := runPairs(t, o, primary); len(pairs) != 2 {
		t.Errorf("pairs = %d, want cap of 2", len(pairs))
	}
}

func TestOrchestratorStrategyErrorsRecovered(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))

	bad := &fixedStrategy{name: "bad", enabled: true, base: 1, err: errors.New("boom")}
	panicky := &fixedStrategy{name: "panicky", enabled: true, base: 1, panicMsg: "kaboom"}
	good := &fixedStrategy{name: "good", enabled: true, base: 1, cands: []Candidate{
		{Term: f.Atom("ok"), Priority: 0.5, Type: TypeDecomposedComponent},
	}}
	o := NewOrchestrator(fc, []FormationStrategy{bad, panicky, good}, OrchestratorConfig{})

	pairs := runPairs(t, o, primary)
	if len(pairs) != 1 || pairs[0].Secondary.Term.Name() != "ok" {
		t.Fatalf("pairs = %+v, want the good strategy's candidate", pairs)
	}
}

func TestOrchestratorDisabledStrategySkipped(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))
	off := &fixedStrategy{name: "off", enabled: false, base: 1, cands: []Candidate{
		{Term: f.Atom("never"), Priority: 0.9},
	}}
	o := NewOrchestrator(fc, []FormationStrategy{off}, OrchestratorConfig{})
	if pairs := runPairs(t, o, primary); len(pairs) != 0 {
		t.Errorf("disabled strategy produced pairs: %+v", pairs)
	}
}

func TestOrchestratorEmitSolo(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))

	o := NewOrchestrator(fc, nil, OrchestratorConfig{EmitSolo: true})
	pairs := runPairs(t, o, primary)
	if len(pairs) != 1 || pairs[0].Secondary != nil {
		t.Fatalf("pairs = %+v, want one solo pair", pairs)
	}

	// Without EmitSolo the primary is skipped entirely.
	o2 := NewOrchestrator(fc, nil, OrchestratorConfig{})
	if pairs := runPairs(t, o2, primary); len(pairs) != 0 {
		t.Errorf("pairs = %+v, want none", pairs)
	}
}

func TestOrchestratorBasePriorityScaling(t *testing.T) {
	f, _, fc := fixture(t)
	primary := mustBelief(t, inheritance(f, "robin", "bird"), task.NewTruth(1, 0.9))

	weakStrat := &fixedStrategy{name: "weak", enabled: true, base: 0.1, cands: []Candidate{
		{Term: f.Atom("scaled"), Priority: 0.9},
	}}
	strongStrat := &fixedStrategy{name: "strong", enabled: true, base: 1.0, cands: []Candidate{
		{Term: f.Atom("direct"), Priority: 0.5},
	}}
	o := NewOrchestrator(fc, []FormationStrategy{weakStrat, strongStrat}, OrchestratorConfig{})

	pairs := runPairs(t, o, primary)
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(pairs))
	}
	// 0.5*1.0 outranks 0.9*0.1 in the bag.
	if pairs[0].Secondary.Term.Name() != "direct" {
		t.Errorf("first = %q, want direct", pairs[0].Secondary.Term.Name())
	}
}

package rules

import (
	"testing"

	"senars/internal/task"
	"senars/internal/term"
)

func compileFixture() (*term.Factory, *Tree) {
	f := term.NewFactory(0, nil)
	return f, Compile(SyllogisticRules(f))
}

func TestCompileCounts(t *testing.T) {
	f := term.NewFactory(0, nil)
	ruleSet := SyllogisticRules(f)
	tree := Compile(ruleSet)
	if tree.Size() != len(ruleSet) {
		t.Errorf("tree size = %d, want %d", tree.Size(), len(ruleSet))
	}
	if len(tree.Singles()) == 0 {
		t.Error("conversion should register as a single-premise rule")
	}
}

func TestLookupFindsSyllogisms(t *testing.T) {
	f, tree := compileFixture()
	primary := f.MustCompound(term.OpInheritance, f.Atom("robin"), f.Atom("bird"))
	secondary := f.MustCompound(term.OpInheritance, f.Atom("bird"), f.Atom("animal"))

	found := map[string]bool{}
	for _, r := range tree.Lookup(primary, secondary) {
		found[r.RuleID] = true
	}
	if !found["deduction"] {
		t.Errorf("deduction not reachable, got %v", found)
	}
	// The all-wildcard answer rule must always be reachable.
	if !found["answer"] {
		t.Errorf("wildcard rules must be reachable, got %v", found)
	}
}

func TestLookupFiltersByOperator(t *testing.T) {
	f, tree := compileFixture()
	primary := f.MustCompound(term.OpProduct, f.Atom("a"), f.Atom("b"))
	secondary := f.MustCompound(term.OpProduct, f.Atom("c"), f.Atom("d"))

	for _, r := range tree.Lookup(primary, secondary) {
		if r.RuleID == "deduction" || r.RuleID == "abduction" {
			t.Errorf("inheritance rule %s reachable from product pair", r.RuleID)
		}
	}
}

func TestLookupWildcardSecondary(t *testing.T) {
	f, tree := compileFixture()
	// Detachment's secondary pattern is a bare variable: any secondary
	// shape must reach it.
	primary := f.MustCompound(term.OpImplication, f.Atom("a"), f.Atom("b"))
	secondary := f.Atom("a")

	found := false
	for _, r := range tree.Lookup(primary, secondary) {
		if r.RuleID == "detachment" {
			found = true
		}
	}
	if !found {
		t.Error("detachment not reachable through wildcard branch")
	}
}

func TestCompileDeterministic(t *testing.T) {
	f := term.NewFactory(0, nil)
	ruleSet := SyllogisticRules(f)
	t1 := Compile(ruleSet)
	t2 := Compile(ruleSet)
	p := f.MustCompound(term.OpInheritance, f.Atom("x"), f.Atom("y"))
	s := f.MustCompound(term.OpInheritance, f.Atom("y"), f.Atom("z"))
	a := t1.Lookup(p, s)
	b := t2.Lookup(p, s)
	if len(a) != len(b) {
		t.Fatalf("lookups differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].RuleID != b[i].RuleID {
			t.Errorf("rule order differs at %d: %s vs %s", i, a[i].RuleID, b[i].RuleID)
		}
	}
}

func TestSinglePremiseClassification(t *testing.T) {
	f := term.NewFactory(0, nil)
	conv := &PatternRule{
		RuleID:     "conv",
		Premises:   []*term.Term{f.MustCompound(term.OpInheritance, f.Variable("a"), f.Variable("b"))},
		Conclusion: f.MustCompound(term.OpInheritance, f.Variable("b"), f.Variable("a")),
		TruthFn:    task.Conversion,
	}
	if !conv.SinglePremise() {
		t.Error("one-premise rule must classify as single")
	}
	tree := Compile([]*PatternRule{conv})
	if len(tree.Singles()) != 1 {
		t.Errorf("singles = %d, want 1", len(tree.Singles()))
	}
}

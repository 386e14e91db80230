package rules

import (
	"senars/internal/logging"
	"senars/internal/task"
	"senars/internal/term"
)

// Executor walks the compiled rule tree for each premise pair, unifies
// premise patterns under a shared substitution, and emits derivation
// tasks. Pairs with evidentially overlapping stamps are skipped; so are
// conclusions above the derivation-depth bound.
type Executor struct {
	tree     *Tree
	factory  *term.Factory
	maxDepth int
}

// NewExecutor compiles a rule set.
func NewExecutor(factory *term.Factory, ruleSet []*PatternRule, maxDepth int) *Executor {
	if maxDepth <= 0 {
		maxDepth = 12
	}
	return &Executor{
		tree:     Compile(ruleSet),
		factory:  factory,
		maxDepth: maxDepth,
	}
}

// Tree exposes the compiled index.
func (e *Executor) Tree() *Tree { return e.tree }

// HasSinglePremiseRules reports whether any registered rule fires on a
// primary alone.
func (e *Executor) HasSinglePremiseRules() bool { return len(e.tree.Singles()) > 0 }

// Apply runs every matching rule on the pair and returns the surviving
// derivations. A nil secondary runs single-premise rules only.
func (e *Executor) Apply(primary, secondary *task.Task) []*task.Task {
	var out []*task.Task
	if secondary == nil {
		for _, r := range e.tree.Singles() {
			out = append(out, e.applySingle(r, primary)...)
		}
		return out
	}

	// Overlapping evidence must not be combined; skip the pair.
	if primary.Stamp.Overlaps(secondary.Stamp) {
		return nil
	}

	for _, r := range e.tree.Lookup(primary.Term, secondary.Term) {
		out = append(out, e.applyBinary(r, primary, secondary)...)
	}
	return out
}

func (e *Executor) applyBinary(r *PatternRule, primary, secondary *task.Task) (out []*task.Task) {
	defer e.recoverRule(r)

	if r.Applicability != nil {
		if !r.Applicability(primary, secondary) {
			return nil
		}
	} else if primary.Truth == nil || secondary.Truth == nil {
		// Default rules compute truth from both premises; questions
		// only reach rules that gate themselves (e.g. answering).
		return nil
	}
	s, ok := term.Unify(r.Premises[0], primary.Term, nil)
	if !ok {
		return nil
	}
	s, ok = term.Unify(r.Premises[1], secondary.Term, s)
	if !ok {
		return nil
	}

	conclusion := e.factory.ApplySubstitution(r.Conclusion, s)
	if !usableConclusion(conclusion) {
		return nil
	}
	truth := r.TruthFn(truthOf(primary), truthOf(secondary))
	stamp := task.Derive([]*task.Stamp{primary.Stamp, secondary.Stamp}, task.DerivedSource(r.RuleID))
	if stamp.Depth() > e.maxDepth {
		return nil
	}
	budget := task.DeriveBudget(primary.Budget, secondary.Budget, truth)
	derived, err := task.New(conclusion, task.Belief, &truth, budget, stamp)
	if err != nil {
		logging.Get(logging.CategoryRules).Debugf("rule %s produced invalid task: %v", r.RuleID, err)
		return nil
	}
	return []*task.Task{derived}
}

func (e *Executor) applySingle(r *PatternRule, primary *task.Task) (out []*task.Task) {
	defer e.recoverRule(r)

	if r.Applicability != nil && !r.Applicability(primary, nil) {
		return nil
	}
	if primary.Truth == nil {
		return nil
	}
	s, ok := term.Unify(r.Premises[0], primary.Term, nil)
	if !ok {
		return nil
	}
	conclusion := e.factory.ApplySubstitution(r.Conclusion, s)
	if !usableConclusion(conclusion) {
		return nil
	}
	truth := r.TruthFn(*primary.Truth, task.Truth{})
	stamp := task.Derive([]*task.Stamp{primary.Stamp}, task.DerivedSource(r.RuleID))
	if stamp.Depth() > e.maxDepth {
		return nil
	}
	budget := task.DeriveSingleBudget(primary.Budget, truth)
	derived, err := task.New(conclusion, task.Belief, &truth, budget, stamp)
	if err != nil {
		logging.Get(logging.CategoryRules).Debugf("rule %s produced invalid task: %v", r.RuleID, err)
		return nil
	}
	return []*task.Task{derived}
}

// recoverRule converts a panicking rule body into zero derivations.
func (e *Executor) recoverRule(r *PatternRule) {
	if rec := recover(); rec != nil {
		logging.Get(logging.CategoryRules).Warnf("rule %s panicked: %v (%v)", r.RuleID, rec, ErrRuleExecution)
	}
}

// usableConclusion rejects degenerate conclusions: leftover variables
// and the collapse atoms.
func usableConclusion(t *term.Term) bool {
	if t == nil || t.ContainsVariable() {
		return false
	}
	return t.Name() != term.AtomTrue && t.Name() != term.AtomFalse
}

// truthOf returns a task's truth, or the zero value for questions.
func truthOf(t *task.Task) task.Truth {
	if t.Truth == nil {
		return task.Truth{}
	}
	return *t.Truth
}

// Package prolog implements a small depth-bounded backward-chaining
// engine over the term algebra. Facts and rules are compiled from
// implication beliefs; question goals are solved by SLD resolution with
// variable standardization and a built-in functor registry for
// arithmetic and comparison.
package prolog

import (
	"fmt"
	"strconv"

	"senars/internal/logging"
	"senars/internal/term"
)

// Defaults for the search bounds.
const (
	DefaultMaxDepth     = 12
	DefaultMaxSolutions = 4
)

// Clause is a fact (empty Body) or a rule Head :- Body.
type Clause struct {
	Head *term.Term
	Body []*term.Term
}

// Engine holds a predicate-indexed knowledge base and solves goals
// against it.
type Engine struct {
	factory      *term.Factory
	clauses      map[string][]*Clause
	renameSerial uint64
	maxDepth     int
	maxSolutions int
}

// New creates an engine. Non-positive bounds use the defaults.
func New(factory *term.Factory, maxDepth, maxSolutions int) *Engine {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxSolutions <= 0 {
		maxSolutions = DefaultMaxSolutions
	}
	return &Engine{
		factory:      factory,
		clauses:      make(map[string][]*Clause),
		maxDepth:     maxDepth,
		maxSolutions: maxSolutions,
	}
}

// Clear drops the knowledge base.
func (e *Engine) Clear() {
	e.clauses = make(map[string][]*Clause)
}

// Size returns the number of stored clauses.
func (e *Engine) Size() int {
	n := 0
	for _, cs := range e.clauses {
		n += len(cs)
	}
	return n
}

// indicator builds the index key for a term: predicate-form compounds
// key on their functor, other compounds on their operator, atoms on
// their name.
func indicator(t *term.Term) string {
	if t.IsCompound() {
		if t.Op() == term.OpPredicate && len(t.Components()) > 0 && t.Components()[0].IsAtom() {
			return fmt.Sprintf("%s/%d", t.Components()[0].Name(), t.Arity()-1)
		}
		return fmt.Sprintf("%s/%d", t.Op(), t.Arity())
	}
	return t.Name() + "/0"
}

// Assert adds a belief term to the knowledge base. Implications become
// rules (the antecedent, split on conjunction, is the body); everything
// else becomes a fact.
func (e *Engine) Assert(t *term.Term) {
	var c *Clause
	if t.Op() == term.OpImplication {
		comps := t.Components()
		c = &Clause{Head: comps[1], Body: conjuncts(comps[0])}
	} else {
		c = &Clause{Head: t}
	}
	key := indicator(c.Head)
	e.clauses[key] = append(e.clauses[key], c)
}

// conjuncts splits a conjunction into its components.
func conjuncts(t *term.Term) []*term.Term {
	if t.Op() == term.OpConjunction {
		return t.Components()
	}
	return []*term.Term{t}
}

// Solve performs depth-bounded backward chaining on goal, returning up
// to maxSolutions substitutions over the goal's variables.
func (e *Engine) Solve(goal *term.Term) []term.Substitution {
	timer := logging.StartTimer(logging.CategoryProlog, "Solve")
	defer timer.Stop()

	var solutions []term.Substitution
	e.solve([]*term.Term{goal}, term.Substitution{}, 0, &solutions)
	logging.Get(logging.CategoryProlog).Debugf("solve %q: %d solutions", goal.Name(), len(solutions))
	return solutions
}

// solve resolves the goal list left to right. Returns true once the
// solution cap is reached, cutting the remaining search.
func (e *Engine) solve(goals []*term.Term, s term.Substitution, depth int, out *[]term.Substitution) bool {
	if len(goals) == 0 {
		*out = append(*out, s.Clone())
		return len(*out) >= e.maxSolutions
	}
	if depth > e.maxDepth {
		return false
	}

	goal := e.factory.ApplySubstitution(goals[0], s)
	rest := goals[1:]

	if ok, handled := e.solveBuiltin(goal, s, rest, depth, out); handled {
		return ok
	}

	for _, c := range e.clauses[indicator(goal)] {
		head, body := e.standardize(c)
		s2, ok := term.Unify(head, goal, s.Clone())
		if !ok {
			continue
		}
		next := append(append([]*term.Term(nil), body...), rest...)
		if e.solve(next, s2, depth+1, out) {
			return true
		}
	}
	return false
}

// standardize renames every variable in a clause to a fresh name so
// bindings from separate resolution steps cannot collide.
func (e *Engine) standardize(c *Clause) (*term.Term, []*term.Term) {
	e.renameSerial++
	suffix := "_" + strconv.FormatUint(e.renameSerial, 10)
	head := e.rename(c.Head, suffix)
	body := make([]*term.Term, len(c.Body))
	for i, b := range c.Body {
		body[i] = e.rename(b, suffix)
	}
	return head, body
}

func (e *Engine) rename(t *term.Term, suffix string) *term.Term {
	if t.IsVariable() {
		return e.factory.Variable(t.Name() + suffix)
	}
	if !t.IsCompound() {
		return t
	}
	changed := false
	comps := make([]*term.Term, t.Arity())
	for i, c := range t.Components() {
		comps[i] = e.rename(c, suffix)
		if comps[i] != c {
			changed = true
		}
	}
	if !changed {
		return t
	}
	out, err := e.factory.Compound(t.Op(), comps...)
	if err != nil {
		return t
	}
	return out
}

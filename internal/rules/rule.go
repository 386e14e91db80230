// Package rules implements the rule system: declarative pattern rules
// compiled into a discrimination tree, asynchronous language-model rules
// gated by circuit breakers, and the processor multiplexing both over
// the premise-pair stream.
package rules

import (
	"errors"

	"senars/internal/task"
	"senars/internal/term"
)

// Error taxonomy for rule execution.
var (
	// ErrRuleExecution tags faults inside a synchronous rule body; the
	// rule contributes zero derivations for that pair.
	ErrRuleExecution = errors.New("rule execution fault")

	// ErrStreamProcessing tags irrecoverable pipeline-driver faults.
	ErrStreamProcessing = errors.New("stream processing fault")

	// ErrCircuitOpen reports that an LM rule's breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Rule is the closed discriminant over the two rule variants:
// *PatternRule (synchronous) and *LMRule (asynchronous). The processor
// switches on the concrete type.
type Rule interface {
	ID() string
	// SinglePremise reports whether the rule fires on a primary alone.
	SinglePremise() bool
}

// PatternRule is a declarative synchronous inference rule: premise
// patterns (one or two terms with variables), a conclusion pattern, and
// a truth function. Applicability optionally gates execution beyond
// structural matching.
type PatternRule struct {
	RuleID        string
	Premises      []*term.Term
	Conclusion    *term.Term
	TruthFn       task.TruthFn
	Applicability func(primary, secondary *task.Task) bool
}

// ID returns the rule identifier used in derivation stamps.
func (r *PatternRule) ID() string { return r.RuleID }

// SinglePremise reports whether the rule takes one premise.
func (r *PatternRule) SinglePremise() bool { return len(r.Premises) == 1 }

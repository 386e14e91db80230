package rules

import (
	"senars/internal/task"
	"senars/internal/term"
)

// SyllogisticRules builds the standard first-order rule table over a
// factory's variables. The table covers the syllogistic figures for
// inheritance, detachment and chaining for implication, analogy across
// similarity, and single-premise conversion.
func SyllogisticRules(f *term.Factory) []*PatternRule {
	S := f.Variable("S")
	P := f.Variable("P")
	M := f.Variable("M")
	A := f.Variable("A")
	B := f.Variable("B")
	C := f.Variable("C")

	inh := func(a, b *term.Term) *term.Term { return f.MustCompound(term.OpInheritance, a, b) }
	sim := func(a, b *term.Term) *term.Term { return f.MustCompound(term.OpSimilarity, a, b) }
	imp := func(a, b *term.Term) *term.Term { return f.MustCompound(term.OpImplication, a, b) }
	equ := func(a, b *term.Term) *term.Term { return f.MustCompound(term.OpEquivalence, a, b) }

	swap := func(fn task.TruthFn) task.TruthFn {
		return func(a, b task.Truth) task.Truth { return fn(b, a) }
	}

	ruleSet := []*PatternRule{
		// ---------------------------------------------------------------------
		// Inheritance syllogisms
		// ---------------------------------------------------------------------
		{RuleID: "deduction", Premises: []*term.Term{inh(S, M), inh(M, P)},
			Conclusion: inh(S, P), TruthFn: task.Deduction},
		{RuleID: "deduction-inv", Premises: []*term.Term{inh(M, P), inh(S, M)},
			Conclusion: inh(S, P), TruthFn: swap(task.Deduction)},
		{RuleID: "abduction", Premises: []*term.Term{inh(P, M), inh(S, M)},
			Conclusion: inh(S, P), TruthFn: task.Abduction},
		{RuleID: "induction", Premises: []*term.Term{inh(M, P), inh(M, S)},
			Conclusion: inh(S, P), TruthFn: task.Induction},
		{RuleID: "exemplification", Premises: []*term.Term{inh(P, M), inh(M, S)},
			Conclusion: inh(S, P), TruthFn: task.Exemplification},
		{RuleID: "comparison", Premises: []*term.Term{inh(M, P), inh(M, S)},
			Conclusion: sim(S, P), TruthFn: task.Comparison},
		{RuleID: "similarity-intro", Premises: []*term.Term{inh(S, P), inh(P, S)},
			Conclusion: sim(S, P), TruthFn: task.Intersection},

		// ---------------------------------------------------------------------
		// Analogy across similarity
		// ---------------------------------------------------------------------
		// The similarity premise is commutatively sorted, so both
		// component roles need a rule.
		{RuleID: "analogy", Premises: []*term.Term{sim(A, B), inh(A, M)},
			Conclusion: inh(B, M), TruthFn: swap(task.Analogy)},
		{RuleID: "analogy-sym", Premises: []*term.Term{sim(A, B), inh(B, M)},
			Conclusion: inh(A, M), TruthFn: swap(task.Analogy)},
		{RuleID: "analogy-pred", Premises: []*term.Term{sim(A, B), inh(M, A)},
			Conclusion: inh(M, B), TruthFn: swap(task.Analogy)},
		{RuleID: "analogy-pred-sym", Premises: []*term.Term{sim(A, B), inh(M, B)},
			Conclusion: inh(M, A), TruthFn: swap(task.Analogy)},
		// Inheritance primary, similarity secondary.
		{RuleID: "analogy-inv", Premises: []*term.Term{inh(A, M), sim(A, B)},
			Conclusion: inh(B, M), TruthFn: task.Analogy},
		{RuleID: "analogy-inv-sym", Premises: []*term.Term{inh(B, M), sim(A, B)},
			Conclusion: inh(A, M), TruthFn: task.Analogy},
		{RuleID: "resemblance", Premises: []*term.Term{sim(A, B), sim(B, C)},
			Conclusion: sim(A, C), TruthFn: task.Resemblance},

		// ---------------------------------------------------------------------
		// Implication
		// ---------------------------------------------------------------------
		{RuleID: "implication-deduction", Premises: []*term.Term{imp(S, M), imp(M, P)},
			Conclusion: imp(S, P), TruthFn: task.Deduction},
		{RuleID: "detachment", Premises: []*term.Term{imp(A, B), A},
			Conclusion: B, TruthFn: task.Deduction},
		{RuleID: "equivalence-analogy", Premises: []*term.Term{equ(A, B), imp(A, M)},
			Conclusion: imp(B, M), TruthFn: swap(task.Analogy)},

		// ---------------------------------------------------------------------
		// Single premise
		// ---------------------------------------------------------------------
		{RuleID: "conversion", Premises: []*term.Term{inh(P, S)},
			Conclusion: inh(S, P), TruthFn: task.Conversion},
	}

	ruleSet = append(ruleSet, AnswerRule(f))
	return ruleSet
}

// AnswerRule surfaces a stored belief whose term unifies with a question
// primary: the classic question-answering path. The belief is re-emitted
// as a derivation carrying its own truth. Both premise patterns are bare
// variables; the applicability gate does the real matching.
func AnswerRule(f *term.Factory) *PatternRule {
	q := f.Variable("qst")
	b := f.Variable("ans")
	return &PatternRule{
		RuleID:     "answer",
		Premises:   []*term.Term{q, b},
		Conclusion: b,
		TruthFn:    task.Identity,
		Applicability: func(primary, secondary *task.Task) bool {
			if secondary == nil || !primary.IsQuestion() || !secondary.IsBelief() {
				return false
			}
			_, ok := term.Unify(primary.Term, secondary.Term, nil)
			return ok
		},
	}
}

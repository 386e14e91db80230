package main

import (
	"context"
	"fmt"
	"strings"

	"senars/internal/config"
	"senars/internal/lm"
	"senars/internal/nal"
	"senars/internal/rules"
	"senars/internal/task"
	"senars/internal/term"
)

// hypothesisRule bridges premise pairs that share no term: the model is
// asked for a single connecting statement in the input syntax, and
// well-formed answers become low-confidence beliefs.
func hypothesisRule(cfg *config.Config, model any, factory *term.Factory) *rules.LMRule {
	parser := nal.NewParser(factory)
	rule := &rules.LMRule{
		RuleID: "lm-hypothesis",
		Condition: func(primary, secondary *task.Task) bool {
			if secondary == nil || !primary.IsBelief() || !secondary.IsBelief() {
				return false
			}
			// Pattern rules already cover pairs with shared terms.
			return !sharesAtom(primary.Term.Name(), secondary.Term.Name())
		},
		Prompt: func(_ context.Context, primary, secondary *task.Task) (string, error) {
			return fmt.Sprintf(
				"Two facts:\n  %s\n  %s\nPropose exactly one statement of the form (a --> b) "+
					"that plausibly connects them. Reply with the statement only.",
				primary.Term.Name(), secondary.Term.Name()), nil
		},
		Process: func(raw string, _, _ *task.Task) (any, error) {
			line := strings.TrimSpace(raw)
			if i := strings.IndexByte(line, '\n'); i >= 0 {
				line = strings.TrimSpace(line[:i])
			}
			hypothesis, err := parser.ParseTerm(strings.TrimSuffix(line, "."))
			if err != nil {
				return nil, fmt.Errorf("unparseable hypothesis %q: %w", line, err)
			}
			return hypothesis, nil
		},
		Generate: func(parsed any, primary, secondary *task.Task) ([]*task.Task, error) {
			hypothesis, ok := parsed.(*term.Term)
			if !ok || !term.IsStatement(hypothesis.Op()) {
				return nil, nil
			}
			truth := task.NewTruth(0.7, 0.3)
			stamp := task.Derive([]*task.Stamp{primary.Stamp, secondary.Stamp}, task.DerivedSource("lm-hypothesis"))
			tk, err := task.New(hypothesis, task.Belief, &truth,
				task.DeriveBudget(primary.Budget, secondary.Budget, truth), stamp)
			if err != nil {
				return nil, err
			}
			return []*task.Task{tk}, nil
		},
		Options: lm.Options{
			Temperature: cfg.LM.Options.Temperature,
			MaxTokens:   cfg.LM.Options.MaxTokens,
		},
	}
	return rule.Bind(rules.LMRuleConfig{
		Model:            model,
		FailureThreshold: cfg.Rules.CircuitBreaker.FailureThreshold,
		ResetTimeout:     cfg.Rules.CircuitBreaker.ResetTimeout(),
	})
}

// sharesAtom is a cheap token-level overlap test on canonical names.
// Operator tokens are not counted as shared.
func sharesAtom(a, b string) bool {
	tokens := map[string]bool{}
	for _, tok := range strings.FieldsFunc(a, nameSeparators) {
		if !term.KnownOperator(term.Operator(tok)) {
			tokens[tok] = true
		}
	}
	for _, tok := range strings.FieldsFunc(b, nameSeparators) {
		if tokens[tok] {
			return true
		}
	}
	return false
}

func nameSeparators(r rune) bool {
	return r == '(' || r == ')' || r == ' '
}

package nal

import (
	"fmt"
	"strings"

	"senars/internal/task"
	"senars/internal/term"
)

// FormatTerm renders a term back into the input syntax: infix for
// statements, prefix for connectives, brace and bracket forms for sets.
func FormatTerm(t *term.Term) string {
	if !t.IsCompound() {
		return t.Name()
	}
	comps := t.Components()
	switch op := t.Op(); op {
	case term.OpSetExt:
		return "{" + joinTerms(comps) + "}"
	case term.OpSetInt:
		return "[" + joinTerms(comps) + "]"
	default:
		if term.IsStatement(op) {
			return fmt.Sprintf("(%s %s %s)", FormatTerm(comps[0]), op, FormatTerm(comps[1]))
		}
		parts := make([]string, 0, len(comps)+1)
		parts = append(parts, string(op))
		for _, c := range comps {
			parts = append(parts, FormatTerm(c))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
}

// FormatTask renders a task in the input syntax, truth included.
func FormatTask(t *task.Task) string {
	out := FormatTerm(t.Term) + t.Punctuation.String()
	if t.Truth != nil {
		out += fmt.Sprintf(" {%.2f %.2f}", t.Truth.F, t.Truth.C)
	}
	return out
}

func joinTerms(comps []*term.Term) string {
	parts := make([]string, len(comps))
	for i, c := range comps {
		parts[i] = FormatTerm(c)
	}
	return strings.Join(parts, ", ")
}

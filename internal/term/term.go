// Package term implements the compound-term algebra: atoms, variables and
// operator-headed compounds, canonically constructed and interned by a
// factory so that equal terms share one handle.
package term

import "strings"

// Kind discriminates the term variants.
type Kind uint8

const (
	KindAtom Kind = iota
	KindVariable
	KindCompound
)

// Variable sigils accepted on names. A leading sigil marks a term as a
// variable; the sigil is part of the canonical name.
const variableSigils = "?$#"

// AtomTrue and AtomFalse are the system atoms produced by canonicalization
// (reflexive statements collapse to True, negated True to False).
const (
	AtomTrue  = "True"
	AtomFalse = "False"
)

// Term is an immutable node of the term graph. Terms are only built by a
// Factory; two terms with the same canonical name obtained from the same
// factory are the same pointer (until cache eviction, after which
// comparison by Name stays valid).
type Term struct {
	kind       Kind
	op         Operator
	name       string
	comps      []*Term
	complexity uint32
}

// Kind returns the variant tag.
func (t *Term) Kind() Kind { return t.kind }

// Name returns the canonical name, which doubles as the cache key.
func (t *Term) Name() string { return t.name }

// Op returns the operator of a compound, or "" for leaves.
func (t *Term) Op() Operator { return t.op }

// Components returns the ordered component list. Callers must not mutate it.
func (t *Term) Components() []*Term { return t.comps }

// Arity returns the component count (0 for leaves).
func (t *Term) Arity() int { return len(t.comps) }

// Complexity returns the structural complexity:
// 1 for a leaf, 1 + arity + sum of component complexities otherwise.
func (t *Term) Complexity() uint32 { return t.complexity }

// IsVariable reports whether t is a variable.
func (t *Term) IsVariable() bool { return t.kind == KindVariable }

// IsCompound reports whether t is a compound.
func (t *Term) IsCompound() bool { return t.kind == KindCompound }

// IsAtom reports whether t is a named leaf.
func (t *Term) IsAtom() bool { return t.kind == KindAtom }

// String returns the canonical name.
func (t *Term) String() string { return t.name }

// ContainsVariable reports whether any variable occurs in t.
func (t *Term) ContainsVariable() bool {
	if t.kind == KindVariable {
		return true
	}
	for _, c := range t.comps {
		if c.ContainsVariable() {
			return true
		}
	}
	return false
}

// isVariableName reports whether a name carries a variable sigil.
func isVariableName(name string) bool {
	return name != "" && strings.ContainsRune(variableSigils, rune(name[0]))
}

// canonicalName builds the cache key for a compound.
func canonicalName(op Operator, comps []*Term) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(string(op))
	for _, c := range comps {
		b.WriteByte(' ')
		b.WriteString(c.name)
	}
	b.WriteByte(')')
	return b.String()
}

// Package task implements the task model: truth values, budgets,
// derivation stamps, and the immutable task bundle flowing through the
// reasoning pipeline.
package task

import "math"

// Evidential horizon for the weight-to-confidence conversion.
const horizon = 1.0

// weakFactor scales confidence for synthesized secondary premises.
const weakFactor = 0.5

// Truth is a frequency/confidence pair. F is in [0,1], C in [0,1).
type Truth struct {
	F float64 `yaml:"f" json:"f"`
	C float64 `yaml:"c" json:"c"`
}

// NewTruth clamps and returns a truth value.
func NewTruth(f, c float64) Truth {
	return Truth{F: clamp01(f), C: clampConfidence(c)}
}

// Expectation returns the decision-theoretic expectation of the value.
func (t Truth) Expectation() float64 {
	return t.C*(t.F-0.5) + 0.5
}

// Negated flips the frequency, keeping confidence.
func (t Truth) Negated() Truth {
	return Truth{F: 1 - t.F, C: t.C}
}

// Weak returns the truth with confidence scaled down, used when a
// secondary premise is synthesized rather than recalled.
func (t Truth) Weak() Truth {
	return Truth{F: t.F, C: t.C * weakFactor}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Confidence stays strictly below 1.
func clampConfidence(v float64) float64 {
	const maxC = 1 - 1e-9
	return math.Max(0, math.Min(maxC, v))
}

// w2c converts evidential weight to confidence.
func w2c(w float64) float64 {
	return clampConfidence(w / (w + horizon))
}

// =============================================================================
// NAL TRUTH FUNCTIONS
// =============================================================================
// Pure functions of one or two premise truth values. The two-premise
// functions take the primary premise first.

// TruthFn computes a conclusion truth from two premise truths. Single
// premise rules receive the zero Truth as b.
type TruthFn func(a, b Truth) Truth

// Deduction: strong syllogism along a shared middle term.
func Deduction(a, b Truth) Truth {
	f := a.F * b.F
	return Truth{F: f, C: clampConfidence(f * a.C * b.C)}
}

// Induction: generalization from a shared subject.
func Induction(a, b Truth) Truth {
	return Truth{F: a.F, C: w2c(b.F * a.C * b.C)}
}

// Abduction: explanation from a shared predicate.
func Abduction(a, b Truth) Truth {
	return Truth{F: b.F, C: w2c(a.F * a.C * b.C)}
}

// Exemplification: weak inversion of a syllogistic chain.
func Exemplification(a, b Truth) Truth {
	return Truth{F: 1, C: w2c(a.F * b.F * a.C * b.C)}
}

// Comparison: similarity from two inheritances sharing a term.
func Comparison(a, b Truth) Truth {
	f0 := or(a.F, b.F)
	f := 0.0
	if f0 > 0 {
		f = (a.F * b.F) / f0
	}
	return Truth{F: clamp01(f), C: w2c(f0 * a.C * b.C)}
}

// Analogy: inheritance carried across a similarity.
func Analogy(a, b Truth) Truth {
	return Truth{F: a.F * b.F, C: clampConfidence(a.C * b.C * b.F)}
}

// Resemblance: similarity carried across a similarity.
func Resemblance(a, b Truth) Truth {
	return Truth{F: a.F * b.F, C: clampConfidence(a.C * b.C * or(a.F, b.F))}
}

// Conversion: single premise, swaps subject and predicate.
func Conversion(a, _ Truth) Truth {
	return Truth{F: 1, C: w2c(a.F * a.C)}
}

// NegationTruth: single premise negation.
func NegationTruth(a, _ Truth) Truth {
	return a.Negated()
}

// Revision merges two truths about the same statement with disjoint
// evidence.
func Revision(a, b Truth) Truth {
	wa := horizon * a.C / (1 - a.C)
	wb := horizon * b.C / (1 - b.C)
	w := wa + wb
	if w == 0 {
		return Truth{F: (a.F + b.F) / 2, C: 0}
	}
	return Truth{F: clamp01((wa*a.F + wb*b.F) / w), C: w2c(w)}
}

// Intersection conjoins two statements' evidence; used when both
// directions of an inheritance support a similarity.
func Intersection(a, b Truth) Truth {
	return Truth{F: a.F * b.F, C: clampConfidence(a.C * b.C)}
}

// Identity returns the second premise's truth unchanged; used by rules
// that surface an existing belief (question answering).
func Identity(_, b Truth) Truth { return b }

func or(a, b float64) float64 {
	return 1 - (1-a)*(1-b)
}

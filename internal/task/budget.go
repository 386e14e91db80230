package task

// Budget guides attention allocation: all three components live in [0,1].
type Budget struct {
	Priority   float64 `yaml:"priority" json:"priority"`
	Durability float64 `yaml:"durability" json:"durability"`
	Quality    float64 `yaml:"quality" json:"quality"`
}

// DefaultBudget is assigned to input tasks without an explicit budget.
func DefaultBudget() Budget {
	return Budget{Priority: 0.8, Durability: 0.5, Quality: 0.5}
}

// NewBudget clamps and returns a budget.
func NewBudget(priority, durability, quality float64) Budget {
	return Budget{
		Priority:   clamp01(priority),
		Durability: clamp01(durability),
		Quality:    clamp01(quality),
	}
}

// WithPriority returns the budget with a replaced priority.
func (b Budget) WithPriority(p float64) Budget {
	b.Priority = clamp01(p)
	return b
}

// DeriveBudget combines two premise budgets into a conclusion budget.
// Priority and durability decay multiplicatively toward the weaker
// premise; quality follows the conclusion's truth expectation.
func DeriveBudget(a, b Budget, conclusion Truth) Budget {
	return Budget{
		Priority:   clamp01(a.Priority * b.Priority),
		Durability: clamp01(a.Durability * b.Durability),
		Quality:    clamp01(conclusion.Expectation()),
	}
}

// DeriveSingleBudget derives a budget from one premise.
func DeriveSingleBudget(a Budget, conclusion Truth) Budget {
	return Budget{
		Priority:   clamp01(a.Priority * 0.9),
		Durability: a.Durability,
		Quality:    clamp01(conclusion.Expectation()),
	}
}

package task

import (
	"errors"
	"fmt"

	"senars/internal/term"
)

// Punctuation marks a task's type.
type Punctuation byte

const (
	Belief   Punctuation = '.'
	Goal     Punctuation = '!'
	Question Punctuation = '?'
)

func (p Punctuation) String() string { return string(rune(p)) }

// Valid reports whether p is one of the three punctuation marks.
func (p Punctuation) Valid() bool {
	return p == Belief || p == Goal || p == Question
}

// ErrInvalidTask is returned when construction violates the task
// invariants (truth/punctuation mismatch, nil term, bad punctuation).
var ErrInvalidTask = errors.New("invalid task")

// Task is the immutable unit of work flowing through the reasoner.
// Questions carry no truth; beliefs and goals always do. Constructing a
// task over a negated term unwraps the negation and inverts the truth.
type Task struct {
	Term        *term.Term
	Punctuation Punctuation
	Truth       *Truth
	Budget      Budget
	Stamp       *Stamp
	Metadata    map[string]any
}

// New constructs a task, enforcing the model invariants.
func New(t *term.Term, p Punctuation, truth *Truth, budget Budget, stamp *Stamp) (*Task, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil term", ErrInvalidTask)
	}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: punctuation %q", ErrInvalidTask, p)
	}
	if p == Question {
		if truth != nil {
			return nil, fmt.Errorf("%w: question carries a truth value", ErrInvalidTask)
		}
	} else if truth == nil {
		return nil, fmt.Errorf("%w: %s requires a truth value", ErrInvalidTask, kindName(p))
	}
	if stamp == nil {
		stamp = NewInputStamp()
	}

	// Top-level negation unwraps: (-- T) with (f,c) becomes T with (1-f,c).
	if t.Op() == term.OpNegation && truth != nil {
		t = t.Components()[0]
		inverted := truth.Negated()
		truth = &inverted
	}

	return &Task{
		Term:        t,
		Punctuation: p,
		Truth:       truth,
		Budget:      budget,
		Stamp:       stamp,
	}, nil
}

// NewBelief builds an input belief with the default budget.
func NewBelief(t *term.Term, truth Truth) (*Task, error) {
	return New(t, Belief, &truth, DefaultBudget(), nil)
}

// NewGoal builds an input goal with the default budget.
func NewGoal(t *term.Term, truth Truth) (*Task, error) {
	return New(t, Goal, &truth, DefaultBudget(), nil)
}

// NewQuestion builds an input question.
func NewQuestion(t *term.Term) (*Task, error) {
	return New(t, Question, nil, DefaultBudget(), nil)
}

// IsBelief reports whether the task is a belief.
func (t *Task) IsBelief() bool { return t.Punctuation == Belief }

// IsQuestion reports whether the task is a question.
func (t *Task) IsQuestion() bool { return t.Punctuation == Question }

// IsGoal reports whether the task is a goal.
func (t *Task) IsGoal() bool { return t.Punctuation == Goal }

// Key identifies the task by term and punctuation, the identity used for
// deduplication.
func (t *Task) Key() string {
	return t.Term.Name() + string(rune(t.Punctuation))
}

// WithStamp returns a shallow copy carrying a replacement stamp.
func (t *Task) WithStamp(s *Stamp) *Task {
	out := *t
	out.Stamp = s
	return &out
}

func (t *Task) String() string {
	if t.Truth != nil {
		return fmt.Sprintf("%s%s {%.2f %.2f}", t.Term.Name(), t.Punctuation, t.Truth.F, t.Truth.C)
	}
	return t.Term.Name() + t.Punctuation.String()
}

func kindName(p Punctuation) string {
	switch p {
	case Belief:
		return "belief"
	case Goal:
		return "goal"
	default:
		return "question"
	}
}

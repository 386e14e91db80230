// Package memory defines the MemoryView contract the premise layer
// consumes, plus a small in-memory store used by the CLI and tests. The
// production concept store is an external collaborator; only the
// interfaces below are load-bearing.
package memory

import (
	"senars/internal/task"
	"senars/internal/term"
)

// Concept groups the tasks held about one term.
type Concept interface {
	// Term returns the concept's identifying term.
	Term() *term.Term
	// Tasks returns up to limit tasks (all when limit <= 0). Returned
	// handles are only valid for the consuming iteration.
	Tasks(limit int) []*task.Task
	// Beliefs returns the concept's belief tasks.
	Beliefs() []*task.Task
}

// View is the read contract over a concept store.
type View interface {
	AllConcepts() []Concept
}

// Focused is optionally implemented by views maintaining a working set.
type Focused interface {
	Focus() View
}

package memory

import (
	"sync"

	"senars/internal/logging"
	"senars/internal/task"
	"senars/internal/term"
)

// DefaultConceptTaskLimit caps tasks retained per concept.
const DefaultConceptTaskLimit = 64

// Store is an in-memory View implementation: one concept per distinct
// task term, with bounded per-concept task lists and an optional focus
// set over the most recently added concepts.
type Store struct {
	mu        sync.RWMutex
	concepts  map[string]*storeConcept
	order     []*storeConcept // insertion order, keeps iteration stable
	taskLimit int
	focusSize int
	focus     []*storeConcept
}

// NewStore creates a store. taskLimit <= 0 uses DefaultConceptTaskLimit;
// focusSize <= 0 disables the focus set.
func NewStore(taskLimit, focusSize int) *Store {
	if taskLimit <= 0 {
		taskLimit = DefaultConceptTaskLimit
	}
	return &Store{
		concepts:  make(map[string]*storeConcept),
		taskLimit: taskLimit,
		focusSize: focusSize,
	}
}

// AddTask files t under the concept for its term, creating the concept on
// first sight. Oldest tasks fall off when the per-concept limit is hit.
func (s *Store) AddTask(t *task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := t.Term.Name()
	c, ok := s.concepts[name]
	if !ok {
		c = &storeConcept{term: t.Term}
		s.concepts[name] = c
		s.order = append(s.order, c)
		logging.Get(logging.CategoryMemory).Debugf("new concept %q", name)
	}
	c.mu.Lock()
	c.tasks = append(c.tasks, t)
	if len(c.tasks) > s.taskLimit {
		c.tasks = c.tasks[len(c.tasks)-s.taskLimit:]
	}
	c.mu.Unlock()

	if s.focusSize > 0 {
		for i, fc := range s.focus {
			if fc == c {
				s.focus = append(s.focus[:i], s.focus[i+1:]...)
				break
			}
		}
		s.focus = append(s.focus, c)
		if len(s.focus) > s.focusSize {
			s.focus = s.focus[len(s.focus)-s.focusSize:]
		}
	}
}

// AllConcepts returns the concepts in insertion order.
func (s *Store) AllConcepts() []Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Concept, len(s.order))
	for i, c := range s.order {
		out[i] = c
	}
	return out
}

// Concept returns the concept for a canonical term name, or nil.
func (s *Store) Concept(name string) Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.concepts[name]; ok {
		return c
	}
	return nil
}

// Focus returns a view over the working set, or nil when disabled.
func (s *Store) Focus() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.focusSize <= 0 {
		return nil
	}
	snapshot := append([]*storeConcept(nil), s.focus...)
	return focusView(snapshot)
}

// TaskCount returns the total number of stored tasks.
func (s *Store) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.order {
		n += len(c.tasks)
	}
	return n
}

// -----------------------------------------------------------------------------
// Concept implementation
// -----------------------------------------------------------------------------

type storeConcept struct {
	mu    sync.RWMutex
	term  *term.Term
	tasks []*task.Task
}

func (c *storeConcept) Term() *term.Term { return c.term }

func (c *storeConcept) Tasks(limit int) []*task.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if limit <= 0 || limit > len(c.tasks) {
		limit = len(c.tasks)
	}
	return append([]*task.Task(nil), c.tasks[len(c.tasks)-limit:]...)
}

func (c *storeConcept) Beliefs() []*task.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*task.Task
	for _, t := range c.tasks {
		if t.IsBelief() {
			out = append(out, t)
		}
	}
	return out
}

type focusView []*storeConcept

func (v focusView) AllConcepts() []Concept {
	out := make([]Concept, len(v))
	for i, c := range v {
		out[i] = c
	}
	return out
}

package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source tags for stamps.
const (
	SourceInput         = "INPUT"
	sourceDerivedPrefix = "DERIVED:"
)

// DerivedSource builds the source tag for a rule's derivations.
func DerivedSource(ruleID string) string {
	return sourceDerivedPrefix + ruleID
}

// Stamp records a task's derivation provenance. Stamps form a DAG of
// shared immutable nodes: derived stamps hold their parents, and every
// stamp carries the set of base (input) ancestors used for evidential
// overlap detection.
type Stamp struct {
	id       string
	creation time.Time
	source   string
	parents  []*Stamp
	depth    int
	bases    map[string]struct{}
}

// NewInputStamp creates a base stamp for externally supplied tasks.
// Its own id is its single evidential base.
func NewInputStamp() *Stamp {
	id := uuid.NewString()
	return &Stamp{
		id:       id,
		creation: time.Now(),
		source:   SourceInput,
		bases:    map[string]struct{}{id: {}},
	}
}

// Derive creates a stamp for a conclusion with the given parents.
// Depth is max(parent depths)+1; the base set is the union of the
// parents' base sets.
func Derive(parents []*Stamp, source string) *Stamp {
	depth := 0
	size := 0
	for _, p := range parents {
		if p.depth+1 > depth {
			depth = p.depth + 1
		}
		size += len(p.bases)
	}
	bases := make(map[string]struct{}, size)
	for _, p := range parents {
		for b := range p.bases {
			bases[b] = struct{}{}
		}
	}
	return &Stamp{
		id:       uuid.NewString(),
		creation: time.Now(),
		source:   source,
		parents:  parents,
		depth:    depth,
		bases:    bases,
	}
}

// WithSource returns a copy of s rebadged with a new source tag, keeping
// parents, depth and evidence. Used by result enrichment.
func (s *Stamp) WithSource(source string) *Stamp {
	return &Stamp{
		id:       s.id,
		creation: s.creation,
		source:   source,
		parents:  s.parents,
		depth:    s.depth,
		bases:    s.bases,
	}
}

// ID returns the stamp's unique serial.
func (s *Stamp) ID() string { return s.id }

// CreationTime returns when the stamp was minted.
func (s *Stamp) CreationTime() time.Time { return s.creation }

// Source returns the source tag (INPUT or DERIVED:<ruleId>).
func (s *Stamp) Source() string { return s.source }

// Parents returns the parent stamps. Callers must not mutate the slice.
func (s *Stamp) Parents() []*Stamp { return s.parents }

// Depth returns the derivation depth (0 for input stamps).
func (s *Stamp) Depth() int { return s.depth }

// Overlaps reports whether two stamps share a base evidential ancestor.
// Rules must not combine overlapping premises.
func (s *Stamp) Overlaps(other *Stamp) bool {
	if s == nil || other == nil {
		return false
	}
	small, large := s.bases, other.bases
	if len(small) > len(large) {
		small, large = large, small
	}
	for b := range small {
		if _, ok := large[b]; ok {
			return true
		}
	}
	return false
}

// EvidenceSize returns the number of distinct base ancestors.
func (s *Stamp) EvidenceSize() int { return len(s.bases) }

func (s *Stamp) String() string {
	return fmt.Sprintf("stamp(%s depth=%d evidence=%d)", s.source, s.depth, len(s.bases))
}

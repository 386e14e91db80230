package premise

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"senars/internal/logging"
	"senars/internal/memory"
	"senars/internal/task"
	"senars/internal/term"
)

// ErrPremiseSource tags faults reading from memory; the offending
// primary is skipped and the stream continues.
var ErrPremiseSource = errors.New("premise source fault")

// Sampling dimension names, also the methods accepted by
// RecordMethodEffectiveness.
const (
	MethodPriority    = "priority"
	MethodRecency     = "recency"
	MethodPunctuation = "punctuation"
	MethodNovelty     = "novelty"
)

// effectivenessAlpha is the EMA step for online weight adaptation.
const effectivenessAlpha = 0.2

// Weights is the sampling mix over the four dimensions. Always kept
// normalized to sum to 1.
type Weights struct {
	Priority    float64
	Recency     float64
	Punctuation float64
	Novelty     float64
}

// Normalized scales the weights to sum to 1.
func (w Weights) Normalized() Weights {
	sum := w.Priority + w.Recency + w.Punctuation + w.Novelty
	if sum <= 0 {
		return Weights{Priority: 1}
	}
	return Weights{
		Priority:    w.Priority / sum,
		Recency:     w.Recency / sum,
		Punctuation: w.Punctuation / sum,
		Novelty:     w.Novelty / sum,
	}
}

// PunctuationMix is the target proportion of task types among primaries.
type PunctuationMix struct {
	Belief   float64
	Goal     float64
	Question float64
}

// SourceConfig configures a premise source.
type SourceConfig struct {
	Weights        Weights
	PunctuationMix PunctuationMix
	// TasksPerConcept caps how many tasks each concept contributes to a
	// sampling snapshot.
	TasksPerConcept int
	// IdleWait is how long the stream sleeps when memory is empty.
	IdleWait time.Duration
	// Seed fixes the sampling RNG; 0 draws a random seed.
	Seed int64
}

// Source produces an endless stream of primary premises sampled from a
// MemoryView under a weighted mix of sampling dimensions.
type Source struct {
	view    memory.View
	factory *term.Factory
	cfg     SourceConfig

	mu      sync.Mutex
	weights Weights
	rng     *rand.Rand
}

// NewSource creates a premise source.
func NewSource(view memory.View, factory *term.Factory, cfg SourceConfig) *Source {
	if cfg.TasksPerConcept <= 0 {
		cfg.TasksPerConcept = 16
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = 10 * time.Millisecond
	}
	if cfg.PunctuationMix == (PunctuationMix{}) {
		cfg.PunctuationMix = PunctuationMix{Belief: 0.7, Goal: 0.15, Question: 0.15}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Source{
		view:    view,
		factory: factory,
		cfg:     cfg,
		weights: cfg.Weights.Normalized(),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Weights returns the current (normalized) sampling mix.
func (s *Source) Weights() Weights {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weights
}

// RecordMethodEffectiveness feeds back an effectiveness score in [0,1]
// for a sampling dimension. The dimension's weight moves toward the
// score by an exponential moving average, then the mix renormalizes.
func (s *Source) RecordMethodEffectiveness(method string, score float64) {
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	blend := func(w float64) float64 { return (1-effectivenessAlpha)*w + effectivenessAlpha*score }
	switch method {
	case MethodPriority:
		s.weights.Priority = blend(s.weights.Priority)
	case MethodRecency:
		s.weights.Recency = blend(s.weights.Recency)
	case MethodPunctuation:
		s.weights.Punctuation = blend(s.weights.Punctuation)
	case MethodNovelty:
		s.weights.Novelty = blend(s.weights.Novelty)
	default:
		logging.Get(logging.CategoryPremise).Warnf("unknown sampling method %q", method)
		return
	}
	s.weights = s.weights.Normalized()
}

// Stream emits sampled primaries until ctx is cancelled. The channel is
// closed on cancellation.
func (s *Source) Stream(ctx context.Context) <-chan *task.Task {
	out := make(chan *task.Task)
	go func() {
		defer close(out)
		log := logging.Get(logging.CategoryPremise)
		for {
			if ctx.Err() != nil {
				return
			}
			primary, err := s.sampleOne()
			if err != nil {
				log.Debugf("sampling fault, skipping: %v", err)
				continue
			}
			if primary == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.cfg.IdleWait):
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- primary:
				s.factory.RecordUsage(primary.Term)
			}
		}
	}()
	return out
}

// sampleOne draws a primary from a fresh memory snapshot, or nil when
// memory is empty. Memory faults are recovered into ErrPremiseSource.
func (s *Source) sampleOne() (primary *task.Task, err error) {
	defer func() {
		if r := recover(); r != nil {
			primary, err = nil, &sourceFault{cause: r}
		}
	}()

	pool := s.snapshot()
	if len(pool) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.pickMethod() {
	case MethodPriority:
		return s.byPriority(pool), nil
	case MethodRecency:
		return s.byRecency(pool), nil
	case MethodPunctuation:
		return s.byPunctuation(pool), nil
	default:
		return s.byNovelty(pool), nil
	}
}

// snapshot collects tasks across all concepts.
func (s *Source) snapshot() []*task.Task {
	var pool []*task.Task
	for _, c := range s.view.AllConcepts() {
		pool = append(pool, c.Tasks(s.cfg.TasksPerConcept)...)
	}
	return pool
}

// pickMethod draws a sampling dimension by the current weights.
// Callers hold s.mu.
func (s *Source) pickMethod() string {
	r := s.rng.Float64()
	w := s.weights
	if r < w.Priority {
		return MethodPriority
	}
	r -= w.Priority
	if r < w.Recency {
		return MethodRecency
	}
	r -= w.Recency
	if r < w.Punctuation {
		return MethodPunctuation
	}
	return MethodNovelty
}

// roulette draws one task with the given non-negative weights.
// Callers hold s.mu.
func (s *Source) roulette(pool []*task.Task, weight func(*task.Task) float64) *task.Task {
	total := 0.0
	for _, t := range pool {
		total += weight(t)
	}
	if total <= 0 {
		return pool[s.rng.Intn(len(pool))]
	}
	r := s.rng.Float64() * total
	for _, t := range pool {
		r -= weight(t)
		if r <= 0 {
			return t
		}
	}
	return pool[len(pool)-1]
}

func (s *Source) byPriority(pool []*task.Task) *task.Task {
	return s.roulette(pool, func(t *task.Task) float64 { return t.Budget.Priority })
}

// byRecency weights tasks by recency rank: the newest gets weight 1,
// the k-th newest 1/(k+1).
func (s *Source) byRecency(pool []*task.Task) *task.Task {
	sorted := append([]*task.Task(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stamp.CreationTime().After(sorted[j].Stamp.CreationTime())
	})
	rank := make(map[*task.Task]float64, len(sorted))
	for i, t := range sorted {
		rank[t] = 1.0 / float64(i+1)
	}
	return s.roulette(pool, func(t *task.Task) float64 { return rank[t] })
}

// byPunctuation draws a task type by the configured mix, then picks
// uniformly within it, falling back to the full pool when the type is
// unrepresented.
func (s *Source) byPunctuation(pool []*task.Task) *task.Task {
	mix := s.cfg.PunctuationMix
	r := s.rng.Float64() * (mix.Belief + mix.Goal + mix.Question)
	var want task.Punctuation
	switch {
	case r < mix.Belief:
		want = task.Belief
	case r < mix.Belief+mix.Goal:
		want = task.Goal
	default:
		want = task.Question
	}
	var filtered []*task.Task
	for _, t := range pool {
		if t.Punctuation == want {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		filtered = pool
	}
	return filtered[s.rng.Intn(len(filtered))]
}

// byNovelty weights tasks inversely to their recorded term usage.
func (s *Source) byNovelty(pool []*task.Task) *task.Task {
	return s.roulette(pool, func(t *task.Task) float64 {
		return 1.0 / float64(1+s.factory.Usage(t.Term.Name()))
	})
}

// sourceFault wraps a recovered memory panic as ErrPremiseSource.
type sourceFault struct{ cause any }

func (f *sourceFault) Error() string { return fmt.Sprintf("premise source fault: %v", f.cause) }
func (f *sourceFault) Unwrap() error { return ErrPremiseSource }

package premise

import (
	"context"
	"math/rand"

	"senars/internal/bag"
	"senars/internal/logging"
	"senars/internal/task"
)

// formationSource tags stamps of synthesized secondary premises.
const formationSource = "formation"

// OrchestratorConfig bounds pair generation.
type OrchestratorConfig struct {
	MaxSecondaryPremises int
	CandidateBagSize     int
	// EmitSolo emits a primary once with a nil secondary when no
	// candidates were found and single-premise rules can use it.
	EmitSolo bool
	// Seed fixes the candidate bag's RNG; 0 draws a random seed.
	Seed int64
}

// Orchestrator drains every enabled formation strategy into a priority
// bag and converts the best candidates into premise pairs.
type Orchestrator struct {
	strategies []FormationStrategy
	fc         *Context
	cfg        OrchestratorConfig
	candidates *bag.Bag[Candidate]
}

// NewOrchestrator creates the strategy aggregator.
func NewOrchestrator(fc *Context, strategies []FormationStrategy, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxSecondaryPremises <= 0 {
		cfg.MaxSecondaryPremises = 8
	}
	if cfg.CandidateBagSize <= 0 {
		cfg.CandidateBagSize = bag.DefaultCapacity
	}
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return &Orchestrator{
		strategies: strategies,
		fc:         fc,
		cfg:        cfg,
		candidates: bag.New[Candidate](cfg.CandidateBagSize, rng),
	}
}

// GeneratePremisePairs converts a primary stream into a pair stream.
// The output channel closes when the input closes or ctx is cancelled.
func (o *Orchestrator) GeneratePremisePairs(ctx context.Context, primaries <-chan *task.Task) <-chan Pair {
	out := make(chan Pair)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case primary, ok := <-primaries:
				if !ok {
					return
				}
				for _, pair := range o.pairsFor(ctx, primary) {
					select {
					case <-ctx.Done():
						return
					case out <- pair:
					}
				}
			}
		}
	}()
	return out
}

// pairsFor runs the aggregation algorithm for one primary.
func (o *Orchestrator) pairsFor(ctx context.Context, primary *task.Task) []Pair {
	log := logging.Get(logging.CategoryStrategy)
	o.candidates.Clear()

	for _, strat := range o.strategies {
		if !strat.Enabled() {
			continue
		}
		cands, err := o.runStrategy(ctx, strat, primary)
		if err != nil {
			log.Debugf("strategy %s failed for %q: %v", strat.Name(), primary.Term.Name(), err)
			continue
		}
		for _, c := range cands {
			key := c.Key()
			if key == "" {
				continue
			}
			o.candidates.Add(key, c, c.Priority*strat.BasePriority())
		}
	}

	picked := o.candidates.Take(o.cfg.MaxSecondaryPremises)
	seen := make(map[string]bool, len(picked))
	pairs := make([]Pair, 0, len(picked))
	for _, c := range picked {
		secondary := o.toTask(primary, c)
		if secondary == nil {
			continue
		}
		name := secondary.Term.Name()
		if seen[name] {
			continue
		}
		seen[name] = true
		pairs = append(pairs, Pair{Primary: primary, Secondary: secondary})
		if len(pairs) >= o.cfg.MaxSecondaryPremises {
			break
		}
	}

	if len(pairs) == 0 {
		if o.cfg.EmitSolo {
			return []Pair{{Primary: primary}}
		}
		log.Debugf("no candidates for %q, primary skipped", primary.Term.Name())
		return nil
	}
	return pairs
}

// runStrategy isolates a strategy call, converting panics to errors so
// one faulty strategy cannot poison the pipeline.
func (o *Orchestrator) runStrategy(ctx context.Context, strat FormationStrategy, primary *task.Task) (cands []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands, err = nil, &sourceFault{cause: r}
		}
	}()
	return strat.GenerateCandidates(ctx, primary, o.fc)
}

// toTask converts a candidate into a secondary premise task. Candidates
// carrying a source task are used directly; bare terms are synthesized
// into beliefs inheriting the primary's frequency at weakened
// confidence. For truthless primaries the weakened default truth
// {1.0 0.9} is used.
func (o *Orchestrator) toTask(primary *task.Task, c Candidate) *task.Task {
	if c.SourceTask != nil {
		return c.SourceTask
	}
	if c.Term == nil {
		return nil
	}
	// Questions have no truth to inherit; solutions synthesized for them
	// (backward-chaining answers) start from the default input truth.
	base := task.NewTruth(1.0, 0.9)
	if primary.Truth != nil {
		base = *primary.Truth
	}
	truth := base.Weak()
	stamp := task.Derive([]*task.Stamp{primary.Stamp}, task.DerivedSource(formationSource))
	t, err := task.New(c.Term, task.Belief, &truth, primary.Budget.WithPriority(c.Priority), stamp)
	if err != nil {
		logging.Get(logging.CategoryStrategy).Debugf("candidate rejected: %v", err)
		return nil
	}
	return t
}

package rules

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"senars/internal/events"
	"senars/internal/logging"
	"senars/internal/premise"
	"senars/internal/task"
)

// ProcessorConfig bounds the rule processor.
type ProcessorConfig struct {
	// Timeout caps total processing; 0 means unbounded.
	Timeout time.Duration
	// AsyncQueueSize bounds the mailbox for LM-rule results.
	AsyncQueueSize int
	// MaxConcurrentLMCalls caps in-flight LM invocations.
	MaxConcurrentLMCalls int
	// BackpressureThreshold is the mailbox depth above which the
	// processor sleeps before taking the next pair.
	BackpressureThreshold int
	// BackpressureInterval is the sleep per backpressure event.
	BackpressureInterval time.Duration
	// MaxChecks bounds the shutdown drain loop.
	MaxChecks int
	// AsyncWaitInterval is the sleep between shutdown drain passes.
	AsyncWaitInterval time.Duration
	// MaxDerivationDepth discards deeper derivations.
	MaxDerivationDepth int
	// DrainBatch bounds how many async results are forwarded between
	// pairs, so a chatty model cannot starve primaries.
	DrainBatch int
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.AsyncQueueSize <= 0 {
		c.AsyncQueueSize = 100
	}
	if c.MaxConcurrentLMCalls <= 0 {
		c.MaxConcurrentLMCalls = 4
	}
	if c.BackpressureThreshold <= 0 {
		c.BackpressureThreshold = 50
	}
	if c.BackpressureInterval <= 0 {
		c.BackpressureInterval = 10 * time.Millisecond
	}
	if c.MaxChecks <= 0 {
		c.MaxChecks = 20
	}
	if c.AsyncWaitInterval <= 0 {
		c.AsyncWaitInterval = 25 * time.Millisecond
	}
	if c.MaxDerivationDepth <= 0 {
		c.MaxDerivationDepth = 12
	}
	if c.DrainBatch <= 0 {
		c.DrainBatch = 16
	}
	return c
}

// Processor consumes the premise-pair stream, runs synchronous pattern
// rules inline and asynchronous LM rules on a capped worker pool, and
// yields every surviving derivation on one output stream.
type Processor struct {
	executor *Executor
	lmRules  []*LMRule
	cfg      ProcessorConfig
	bus      *events.Bus

	sem     *semaphore.Weighted
	mailbox chan []*task.Task
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// NewProcessor creates a rule processor.
func NewProcessor(executor *Executor, lmRules []*LMRule, cfg ProcessorConfig, bus *events.Bus) *Processor {
	cfg = cfg.withDefaults()
	return &Processor{
		executor: executor,
		lmRules:  lmRules,
		cfg:      cfg,
		bus:      bus,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentLMCalls)),
		mailbox:  make(chan []*task.Task, cfg.AsyncQueueSize),
	}
}

// DroppedResults reports async result batches discarded on overflow.
func (p *Processor) DroppedResults() uint64 { return p.dropped.Load() }

// HasSinglePremiseRules reports whether any rule fires on a bare primary.
func (p *Processor) HasSinglePremiseRules() bool {
	if p.executor.HasSinglePremiseRules() {
		return true
	}
	for _, r := range p.lmRules {
		if r.SinglePremise() {
			return true
		}
	}
	return false
}

// Process multiplexes rule execution over the pair stream. The output
// channel closes after the pair stream ends and the async drain
// completes, or on abort/timeout.
func (p *Processor) Process(ctx context.Context, pairs <-chan premise.Pair) <-chan *task.Task {
	out := make(chan *task.Task)
	go func() {
		defer close(out)
		log := logging.Get(logging.CategoryRules)

		var deadline time.Time
		if p.cfg.Timeout > 0 {
			deadline = time.Now().Add(p.cfg.Timeout)
		}
		expired := func() bool {
			return !deadline.IsZero() && time.Now().After(deadline)
		}

		var lastPrimary *task.Task
	loop:
		for {
			if expired() {
				log.Debugf("processing budget expired")
				break
			}
			select {
			case <-ctx.Done():
				return
			case pair, ok := <-pairs:
				if !ok {
					break loop
				}
				if !p.applyBackpressure(ctx) {
					return
				}
				if pair.Primary != lastPrimary {
					lastPrimary = pair.Primary
					if !p.processSolo(ctx, pair.Primary, out) {
						return
					}
				}
				if pair.Secondary != nil {
					if !p.processPair(ctx, pair, out) {
						return
					}
				}
				if !p.drainMailbox(ctx, out, p.cfg.DrainBatch) {
					return
				}
			}
		}

		p.finalDrain(ctx, out, expired)
	}()
	return out
}

// applyBackpressure sleeps while the mailbox is above threshold.
// Returns false on abort.
func (p *Processor) applyBackpressure(ctx context.Context) bool {
	for len(p.mailbox) > p.cfg.BackpressureThreshold {
		p.bus.Publish(events.PipelineBackpressure, events.Backpressure{
			QueueLength: len(p.mailbox),
			Level:       float64(len(p.mailbox)) / float64(p.cfg.AsyncQueueSize),
		})
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.cfg.BackpressureInterval):
		}
	}
	return true
}

// processSolo runs single-premise rules when a new primary appears.
func (p *Processor) processSolo(ctx context.Context, primary *task.Task, out chan<- *task.Task) bool {
	for _, d := range p.executor.Apply(primary, nil) {
		if !p.emit(ctx, out, d) {
			return false
		}
	}
	for _, r := range p.lmRules {
		if r.Applies(primary, nil) {
			p.dispatch(ctx, r, primary, nil)
		}
	}
	return true
}

// processPair runs binary rules for one pair: pattern rules inline, LM
// rules as detached workers.
func (p *Processor) processPair(ctx context.Context, pair premise.Pair, out chan<- *task.Task) bool {
	for _, d := range p.executor.Apply(pair.Primary, pair.Secondary) {
		if !p.emit(ctx, out, d) {
			return false
		}
	}
	for _, r := range p.lmRules {
		if r.Applies(pair.Primary, pair.Secondary) {
			p.dispatch(ctx, r, pair.Primary, pair.Secondary)
		}
	}
	return true
}

// dispatch runs an LM rule on the worker pool, funneling results into
// the mailbox. Overflow drops the batch.
func (p *Processor) dispatch(ctx context.Context, r *LMRule, primary, secondary *task.Task) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		derived, err := r.Apply(ctx, primary, secondary)
		if err != nil || len(derived) == 0 {
			return
		}
		enriched := make([]*task.Task, 0, len(derived))
		for _, d := range derived {
			enriched = append(enriched, d.WithStamp(d.Stamp.WithSource(task.DerivedSource(r.RuleID))))
		}
		select {
		case p.mailbox <- enriched:
		default:
			p.dropped.Add(1)
			logging.Get(logging.CategoryRules).Debugf("async mailbox full, dropped %d results from %s", len(enriched), r.RuleID)
		}
	}()
}

// drainMailbox forwards up to limit queued async results without
// blocking. Returns false on abort.
func (p *Processor) drainMailbox(ctx context.Context, out chan<- *task.Task, limit int) bool {
	for i := 0; i < limit; i++ {
		select {
		case batch := <-p.mailbox:
			for _, d := range batch {
				if !p.emit(ctx, out, d) {
					return false
				}
			}
		default:
			return true
		}
	}
	return true
}

// finalDrain keeps collecting async results after the pair stream ends,
// bounded by MaxChecks passes.
func (p *Processor) finalDrain(ctx context.Context, out chan<- *task.Task, expired func() bool) {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	for i := 0; i < p.cfg.MaxChecks; i++ {
		if !p.drainMailbox(ctx, out, p.cfg.AsyncQueueSize) {
			return
		}
		if expired() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-done:
			// One last sweep for results landed between Wait and here.
			p.drainMailbox(ctx, out, p.cfg.AsyncQueueSize)
			return
		case <-time.After(p.cfg.AsyncWaitInterval):
		}
	}
}

// emit forwards one derivation, enforcing the depth bound. Returns
// false on abort.
func (p *Processor) emit(ctx context.Context, out chan<- *task.Task, d *task.Task) bool {
	if d.Stamp.Depth() > p.cfg.MaxDerivationDepth {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case out <- d:
		return true
	}
}

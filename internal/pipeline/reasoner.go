package pipeline

import (
	"context"

	"senars/internal/config"
	"senars/internal/embedding"
	"senars/internal/events"
	"senars/internal/memory"
	"senars/internal/premise"
	"senars/internal/premise/prolog"
	"senars/internal/rules"
	"senars/internal/task"
	"senars/internal/term"
)

// Reasoner assembles the full pipeline from configuration: term factory,
// premise source, formation strategies, rule executor and processor,
// runner. The memory store, event bus, LM rules and embedding layer are
// injected by the construction site.
type Reasoner struct {
	Factory *term.Factory
	Store   *memory.Store
	Bus     *events.Bus
	Source  *premise.Source
	Runner  *Runner
}

// ReasonerOptions carries the optional collaborators.
type ReasonerOptions struct {
	Bus       *events.Bus
	LMRules   []*rules.LMRule
	Embedding embedding.Layer
	// ExtraRules extends the syllogistic pattern-rule set.
	ExtraRules []*rules.PatternRule
	// Factory lets the construction site share a pre-built term factory
	// (e.g. with LM rules that parse model output). Nil builds one.
	Factory *term.Factory
}

// NewReasoner wires a reasoner from configuration. The store starts
// empty; feed it with AddInput before or during a run.
func NewReasoner(cfg *config.Config, opts ReasonerOptions) *Reasoner {
	factory := opts.Factory
	if factory == nil {
		factory = term.NewFactory(cfg.Terms.MaxCacheSize, opts.Bus)
	}
	store := memory.NewStore(0, 0)

	source := premise.NewSource(store, factory, premise.SourceConfig{
		Weights: premise.Weights{
			Priority:    cfg.Premise.Weights.Priority,
			Recency:     cfg.Premise.Weights.Recency,
			Punctuation: cfg.Premise.Weights.Punctuation,
			Novelty:     cfg.Premise.Weights.Novelty,
		},
		PunctuationMix: premise.PunctuationMix{
			Belief:   cfg.Premise.PunctuationMix.Belief,
			Goal:     cfg.Premise.PunctuationMix.Goal,
			Question: cfg.Premise.PunctuationMix.Question,
		},
		Seed: cfg.Premise.SampleSeed,
	})

	ruleSet := rules.SyllogisticRules(factory)
	ruleSet = append(ruleSet, opts.ExtraRules...)
	executor := rules.NewExecutor(factory, ruleSet, cfg.Rules.MaxDerivationDepth)

	processor := rules.NewProcessor(executor, opts.LMRules, rules.ProcessorConfig{
		Timeout:               cfg.Rules.Timeout(),
		AsyncQueueSize:        cfg.Rules.AsyncQueueSize,
		MaxConcurrentLMCalls:  cfg.Rules.MaxConcurrentLMCalls,
		BackpressureThreshold: cfg.Rules.BackpressureThreshold,
		BackpressureInterval:  cfg.Rules.BackpressureInterval(),
		MaxChecks:             cfg.Rules.MaxChecks,
		AsyncWaitInterval:     cfg.Rules.AsyncWaitInterval(),
		MaxDerivationDepth:    cfg.Rules.MaxDerivationDepth,
	}, opts.Bus)

	fc := &premise.Context{
		View:              store,
		Factory:           factory,
		Embedding:         opts.Embedding,
		Prolog:            prolog.New(factory, cfg.Strategy.PrologMaxDepth, cfg.Strategy.PrologMaxSolutions),
		MaxCandidates:     cfg.Strategy.CandidateBagSize,
		SemanticThreshold: cfg.Strategy.SemanticThreshold,
		SemanticTopK:      cfg.Strategy.SemanticTopK,
	}
	orchestrator := premise.NewOrchestrator(fc, premise.DefaultStrategies(), premise.OrchestratorConfig{
		MaxSecondaryPremises: cfg.Strategy.MaxSecondaryPremises,
		CandidateBagSize:     cfg.Strategy.CandidateBagSize,
		EmitSolo:             processor.HasSinglePremiseRules(),
		Seed:                 cfg.Premise.SampleSeed,
	})

	runner := NewRunner(source, orchestrator, processor, Config{
		CPUThrottleInterval:   cfg.Pipeline.CPUThrottleInterval(),
		BackpressureThreshold: cfg.Pipeline.BackpressureThreshold,
	}, opts.Bus)

	return &Reasoner{
		Factory: factory,
		Store:   store,
		Bus:     opts.Bus,
		Source:  source,
		Runner:  runner,
	}
}

// AddInput files an input task into memory.
func (r *Reasoner) AddInput(t *task.Task) {
	r.Store.AddTask(t)
}

// Start launches the pipeline.
func (r *Reasoner) Start(ctx context.Context) <-chan *task.Task {
	return r.Runner.Start(ctx)
}

// Stop aborts the pipeline. Idempotent.
func (r *Reasoner) Stop() {
	r.Runner.Stop()
}

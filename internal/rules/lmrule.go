package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"senars/internal/events"
	"senars/internal/lm"
	"senars/internal/logging"
	"senars/internal/task"
)

// latencyAlpha smooths the rolling mean latency.
const latencyAlpha = 0.2

// LMRule is an asynchronous rule backed by a language model. The
// user-provided callbacks shape the call: Condition gates applicability,
// Prompt renders the request, Process parses the raw response, Generate
// turns the parsed value into derivation tasks.
type LMRule struct {
	RuleID string
	Single bool

	Condition func(primary, secondary *task.Task) bool
	Prompt    func(ctx context.Context, primary, secondary *task.Task) (string, error)
	Process   func(raw string, primary, secondary *task.Task) (any, error)
	Generate  func(parsed any, primary, secondary *task.Task) ([]*task.Task, error)

	Options lm.Options

	model   any
	invoker *lm.Invoker
	breaker *CircuitBreaker
	bus     *events.Bus

	mu          sync.Mutex
	calls       uint64
	successes   uint64
	tokens      uint64
	meanLatency time.Duration
	unavailable bool
}

// LMRuleConfig wires an LM rule to its model and breaker settings.
type LMRuleConfig struct {
	Model            any
	Bus              *events.Bus
	FailureThreshold int
	ResetTimeout     time.Duration
}

// Bind attaches the model, breaker and event bus. Must be called once
// before Apply.
func (r *LMRule) Bind(cfg LMRuleConfig) *LMRule {
	r.model = cfg.Model
	r.breaker = NewCircuitBreaker(cfg.FailureThreshold, cfg.ResetTimeout)
	r.bus = cfg.Bus
	return r
}

// ID returns the rule identifier.
func (r *LMRule) ID() string { return r.RuleID }

// SinglePremise reports whether the rule fires on a primary alone.
func (r *LMRule) SinglePremise() bool { return r.Single }

// Applies reports whether the rule's condition accepts the pair.
func (r *LMRule) Applies(primary, secondary *task.Task) bool {
	if r.Single != (secondary == nil) {
		return false
	}
	if r.Condition == nil {
		return true
	}
	return r.Condition(primary, secondary)
}

// Breaker exposes the rule's circuit breaker.
func (r *LMRule) Breaker() *CircuitBreaker { return r.breaker }

// Apply runs the model call end to end. An open breaker or a permanent
// probe failure yields an empty result without touching the model.
// Transient failures return an error and count against the breaker.
func (r *LMRule) Apply(ctx context.Context, primary, secondary *task.Task) ([]*task.Task, error) {
	if err := r.ensureBound(); err != nil {
		return nil, err
	}
	if !r.breaker.Allow() {
		logging.Get(logging.CategoryLM).Debugf("rule %s gated: %v", r.RuleID, ErrCircuitOpen)
		return nil, nil
	}
	r.mu.Lock()
	if r.unavailable {
		r.mu.Unlock()
		return nil, nil
	}
	if r.invoker == nil {
		iv, err := lm.NewInvoker(r.model)
		if err != nil {
			// No compatible entry point is permanent: trip the breaker
			// to its threshold and stop probing.
			r.unavailable = true
			r.mu.Unlock()
			for i := 0; i < r.breaker.failureThreshold; i++ {
				r.breaker.RecordFailure()
			}
			logging.Get(logging.CategoryLM).Warnf("rule %s: %v", r.RuleID, err)
			return nil, fmt.Errorf("rule %s: %w", r.RuleID, err)
		}
		r.invoker = iv
	}
	r.mu.Unlock()

	prompt, err := r.Prompt(ctx, primary, secondary)
	if err != nil {
		return nil, r.fail(prompt, time.Duration(0), err)
	}
	r.bus.Publish(events.LMPrompt, events.LMCall{RuleID: r.RuleID, Prompt: prompt})

	start := time.Now()
	raw, err := r.invoker.Invoke(ctx, prompt, r.Options)
	elapsed := time.Since(start)
	if err != nil {
		return nil, r.fail(prompt, elapsed, err)
	}

	parsed := any(raw)
	if r.Process != nil {
		parsed, err = r.Process(raw, primary, secondary)
		if err != nil {
			return nil, r.fail(prompt, elapsed, err)
		}
	}
	derived, err := r.Generate(parsed, primary, secondary)
	if err != nil {
		return nil, r.fail(prompt, elapsed, err)
	}

	r.recordSuccess(raw, elapsed)
	r.bus.Publish(events.LMResponse, events.LMCall{
		RuleID:   r.RuleID,
		Prompt:   prompt,
		Response: raw,
		Duration: elapsed,
	})
	return derived, nil
}

func (r *LMRule) fail(prompt string, elapsed time.Duration, err error) error {
	r.breaker.RecordFailure()
	r.mu.Lock()
	r.calls++
	r.observeLatency(elapsed)
	r.mu.Unlock()
	r.bus.Publish(events.LMFailure, events.LMCall{
		RuleID:   r.RuleID,
		Prompt:   prompt,
		Err:      err.Error(),
		Duration: elapsed,
	})
	logging.Get(logging.CategoryLM).Debugf("rule %s failed: %v", r.RuleID, err)
	return fmt.Errorf("lm rule %s: %w", r.RuleID, err)
}

func (r *LMRule) recordSuccess(raw string, elapsed time.Duration) {
	r.breaker.RecordSuccess()
	r.mu.Lock()
	r.calls++
	r.successes++
	r.tokens += uint64(len(strings.Fields(raw)))
	r.observeLatency(elapsed)
	r.mu.Unlock()
}

// observeLatency updates the rolling mean. Callers hold r.mu.
func (r *LMRule) observeLatency(elapsed time.Duration) {
	if r.meanLatency == 0 {
		r.meanLatency = elapsed
		return
	}
	r.meanLatency = time.Duration((1-latencyAlpha)*float64(r.meanLatency) + latencyAlpha*float64(elapsed))
}

// LMRuleStats is a snapshot of a rule's rolling statistics.
type LMRuleStats struct {
	Calls       uint64
	Successes   uint64
	Tokens      uint64
	MeanLatency time.Duration
	SuccessRate float64
	Breaker     BreakerStats
	Unavailable bool
}

// GetStats returns a snapshot including circuit state.
func (r *LMRule) GetStats() LMRuleStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate := 0.0
	if r.calls > 0 {
		rate = float64(r.successes) / float64(r.calls)
	}
	return LMRuleStats{
		Calls:       r.calls,
		Successes:   r.successes,
		Tokens:      r.tokens,
		MeanLatency: r.meanLatency,
		SuccessRate: rate,
		Breaker:     r.breaker.Stats(),
		Unavailable: r.unavailable,
	}
}

// errNotBound guards misuse.
var errNotBound = errors.New("lm rule not bound to a model")

// ensureBound verifies Bind was called.
func (r *LMRule) ensureBound() error {
	if r.breaker == nil {
		return fmt.Errorf("rule %s: %w", r.RuleID, errNotBound)
	}
	return nil
}

package rules

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"senars/internal/events"
	"senars/internal/lm"
	"senars/internal/task"
	"senars/internal/term"
)

// countingModel records invocations and serves a canned response or error.
type countingModel struct {
	calls atomic.Int64
	out   string
	err   error
}

func (m *countingModel) GenerateText(_ context.Context, _ string, _ lm.Options) (string, error) {
	m.calls.Add(1)
	return m.out, m.err
}

func testLMRule(t *testing.T, f *term.Factory, model any, threshold int) *LMRule {
	t.Helper()
	rule := &LMRule{
		RuleID: "guess",
		Prompt: func(_ context.Context, primary, _ *task.Task) (string, error) {
			return "relate: " + primary.Term.Name(), nil
		},
		Generate: func(parsed any, primary, _ *task.Task) ([]*task.Task, error) {
			raw, _ := parsed.(string)
			if !strings.Contains(raw, "-->") {
				return nil, nil
			}
			tk, err := task.NewBelief(f.MustCompound(term.OpInheritance, f.Atom("lm"), f.Atom("output")), task.NewTruth(0.8, 0.5))
			if err != nil {
				return nil, err
			}
			return []*task.Task{tk}, nil
		},
		Options: lm.Options{Temperature: 0.2, MaxTokens: 64},
	}
	return rule.Bind(LMRuleConfig{Model: model, FailureThreshold: threshold, ResetTimeout: time.Hour})
}

func lmPrimary(t *testing.T, f *term.Factory) *task.Task {
	t.Helper()
	tk, err := task.NewBelief(f.MustCompound(term.OpInheritance, f.Atom("robin"), f.Atom("bird")), task.NewTruth(1, 0.9))
	if err != nil {
		t.Fatal(err)
	}
	return tk
}

func TestLMRuleSuccess(t *testing.T) {
	f := term.NewFactory(0, nil)
	model := &countingModel{out: "(lm --> output)"}
	rule := testLMRule(t, f, model, 5)

	out, err := rule.Apply(context.Background(), lmPrimary(t, f), nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("derivations = %d, want 1", len(out))
	}
	stats := rule.GetStats()
	if stats.Calls != 1 || stats.Successes != 1 || stats.SuccessRate != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Tokens == 0 {
		t.Error("token count should be tracked")
	}
	if stats.MeanLatency < 0 {
		t.Error("latency should be tracked")
	}
}

func TestLMRuleCircuitGating(t *testing.T) {
	f := term.NewFactory(0, nil)
	model := &countingModel{err: errors.New("backend down")}
	rule := testLMRule(t, f, model, 5)
	primary := lmPrimary(t, f)

	for i := 0; i < 5; i++ {
		if _, err := rule.Apply(context.Background(), primary, nil); err == nil {
			t.Fatalf("call %d should fail", i+1)
		}
	}
	if model.calls.Load() != 5 {
		t.Fatalf("model calls = %d, want 5", model.calls.Load())
	}

	// Sixth application: breaker open, model untouched, empty result.
	out, err := rule.Apply(context.Background(), primary, nil)
	if err != nil || len(out) != 0 {
		t.Errorf("gated apply = (%v, %v), want empty and nil", out, err)
	}
	if model.calls.Load() != 5 {
		t.Errorf("model invoked while breaker open: %d calls", model.calls.Load())
	}
	if rule.GetStats().Breaker.State != BreakerOpen {
		t.Error("breaker state should be observable via stats")
	}
}

func TestLMRuleBreakerRecovery(t *testing.T) {
	f := term.NewFactory(0, nil)
	model := &countingModel{err: errors.New("flaky")}
	rule := &LMRule{
		RuleID:   "flaky",
		Prompt:   func(context.Context, *task.Task, *task.Task) (string, error) { return "p", nil },
		Generate: func(any, *task.Task, *task.Task) ([]*task.Task, error) { return nil, nil },
	}
	rule.Bind(LMRuleConfig{Model: model, FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	primary := lmPrimary(t, f)

	_, _ = rule.Apply(context.Background(), primary, nil)
	if out, err := rule.Apply(context.Background(), primary, nil); err != nil || out != nil {
		t.Fatal("second call should be gated")
	}
	time.Sleep(15 * time.Millisecond)
	model.err = nil
	model.out = "ok"
	if _, err := rule.Apply(context.Background(), primary, nil); err != nil {
		t.Fatalf("probe should reach the model: %v", err)
	}
	if rule.GetStats().Breaker.State != BreakerClosed {
		t.Error("successful probe should close the breaker")
	}
}

func TestLMRuleUnavailableModel(t *testing.T) {
	f := term.NewFactory(0, nil)
	rule := testLMRule(t, f, struct{}{}, 5)
	primary := lmPrimary(t, f)

	if _, err := rule.Apply(context.Background(), primary, nil); !errors.Is(err, lm.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// Permanent: breaker tripped, later calls return empty without error.
	if rule.GetStats().Breaker.State != BreakerOpen {
		t.Error("unavailable model must trip the breaker")
	}
	if out, err := rule.Apply(context.Background(), primary, nil); err != nil || out != nil {
		t.Errorf("later applies = (%v, %v), want empty", out, err)
	}
}

func TestLMRuleEvents(t *testing.T) {
	f := term.NewFactory(0, nil)
	bus := events.NewBus()
	defer bus.Close()
	ch := bus.Subscribe()

	model := &countingModel{out: "(lm --> output)"}
	rule := testLMRule(t, f, model, 5)
	rule.bus = bus

	if _, err := rule.Apply(context.Background(), lmPrimary(t, f), nil); err != nil {
		t.Fatal(err)
	}
	first := <-ch
	second := <-ch
	if first.Name != events.LMPrompt || second.Name != events.LMResponse {
		t.Errorf("events = %q, %q", first.Name, second.Name)
	}
	payload := second.Payload.(events.LMCall)
	if payload.RuleID != "guess" || payload.Response == "" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestLMRuleFailureEvent(t *testing.T) {
	f := term.NewFactory(0, nil)
	bus := events.NewBus()
	defer bus.Close()
	ch := bus.Subscribe()

	model := &countingModel{err: errors.New("kaput")}
	rule := testLMRule(t, f, model, 5)
	rule.bus = bus

	_, _ = rule.Apply(context.Background(), lmPrimary(t, f), nil)
	<-ch // lm.prompt
	ev := <-ch
	if ev.Name != events.LMFailure {
		t.Errorf("event = %q, want lm.failure", ev.Name)
	}
	if ev.Payload.(events.LMCall).Err == "" {
		t.Error("failure payload should carry the error")
	}
}

func TestLMRuleApplies(t *testing.T) {
	f := term.NewFactory(0, nil)
	primary := lmPrimary(t, f)
	single := &LMRule{RuleID: "s", Single: true}
	if single.Applies(primary, primary) {
		t.Error("single-premise rule must reject pairs")
	}
	if !single.Applies(primary, nil) {
		t.Error("single-premise rule should accept a bare primary")
	}
	gated := &LMRule{RuleID: "g", Condition: func(p, s *task.Task) bool { return false }}
	if gated.Applies(primary, primary) {
		t.Error("condition must gate applicability")
	}
}

func TestLMRuleUnbound(t *testing.T) {
	rule := &LMRule{RuleID: "loose"}
	if _, err := rule.Apply(context.Background(), nil, nil); err == nil {
		t.Error("unbound rule must error, not panic")
	}
}

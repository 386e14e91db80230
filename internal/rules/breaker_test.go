package rules

import (
	"testing"
	"time"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewCircuitBreaker(3, time.Hour)
	for i := 0; i < 2; i++ {
		b.RecordFailure()
		if !b.Allow() {
			t.Fatalf("breaker opened early after %d failures", i+1)
		}
	}
	b.RecordFailure()
	if b.Allow() {
		t.Error("breaker must open at the threshold")
	}
	if b.State() != BreakerOpen {
		t.Errorf("state = %v, want open", b.State())
	}
}

func TestBreakerSuccessResetsRun(t *testing.T) {
	b := NewCircuitBreaker(3, time.Hour)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	if !b.Allow() {
		t.Error("non-consecutive failures must not open the breaker")
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewCircuitBreaker(1, 10*time.Millisecond)
	b.RecordFailure()
	if b.Allow() {
		t.Fatal("breaker should be open")
	}
	time.Sleep(15 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("breaker should admit a probe after the reset timeout")
	}
	if b.State() != BreakerHalfOpen {
		t.Errorf("state = %v, want half-open", b.State())
	}
	// Probe failure reopens immediately.
	b.RecordFailure()
	if b.Allow() {
		t.Error("failed probe must reopen the breaker")
	}
	// A successful probe closes it.
	time.Sleep(15 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("second probe expected")
	}
	b.RecordSuccess()
	if b.State() != BreakerClosed {
		t.Errorf("state = %v, want closed after successful probe", b.State())
	}
}

func TestBreakerStats(t *testing.T) {
	b := NewCircuitBreaker(5, time.Hour)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	s := b.Stats()
	if s.TotalFailures != 2 || s.TotalSuccesses != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.ConsecutiveFailures != 1 {
		t.Errorf("consecutive = %d, want 1", s.ConsecutiveFailures)
	}
}

func TestBreakerDefaults(t *testing.T) {
	b := NewCircuitBreaker(0, 0)
	if b.failureThreshold != DefaultFailureThreshold {
		t.Errorf("threshold = %d", b.failureThreshold)
	}
	if b.resetTimeout != DefaultResetTimeout {
		t.Errorf("reset = %v", b.resetTimeout)
	}
}

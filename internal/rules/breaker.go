package rules

import (
	"sync"
	"time"
)

// Circuit breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
)

// BreakerState is the breaker's position.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	default:
		return "half-open"
	}
}

// CircuitBreaker opens after a run of consecutive failures and lets one
// probe through after the reset timeout. Fail-open gating: while open,
// the owning rule returns empty without touching the model.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	resetTimeout     time.Duration
	consecutive      int
	openedAt         time.Time
	state            BreakerState

	totalFailures  uint64
	totalSuccesses uint64
}

// NewCircuitBreaker creates a breaker; non-positive arguments use the
// defaults.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// Allow reports whether a call may proceed. An open breaker transitions
// to half-open once the reset timeout has elapsed, admitting one probe.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerClosed, BreakerHalfOpen:
		return true
	default:
		if time.Since(b.openedAt) >= b.resetTimeout {
			b.state = BreakerHalfOpen
			return true
		}
		return false
	}
}

// RecordSuccess closes the breaker and clears the failure run.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
	b.state = BreakerClosed
	b.totalSuccesses++
}

// RecordFailure notes a failure, opening the breaker at the threshold.
// A half-open probe failure reopens immediately.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive++
	b.totalFailures++
	if b.state == BreakerHalfOpen || b.consecutive >= b.failureThreshold {
		b.state = BreakerOpen
		b.openedAt = time.Now()
	}
}

// State returns the current position.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// BreakerStats is a snapshot of breaker activity.
type BreakerStats struct {
	State               BreakerState
	ConsecutiveFailures int
	TotalFailures       uint64
	TotalSuccesses      uint64
}

// Stats returns a snapshot.
func (b *CircuitBreaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		State:               b.state,
		ConsecutiveFailures: b.consecutive,
		TotalFailures:       b.totalFailures,
		TotalSuccesses:      b.totalSuccesses,
	}
}

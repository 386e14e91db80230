// Package events provides the reasoner's introspection event bus.
// Subsystems publish named events (term cache activity, LM calls,
// pipeline backpressure); observers subscribe over bounded channels.
package events

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// Event names published by the core.
const (
	TermCacheHit  = "term.cache.hit"
	TermCacheMiss = "term.cache.miss"
	TermCreated   = "term.created"

	LMPrompt   = "lm.prompt"
	LMResponse = "lm.response"
	LMFailure  = "lm.failure"

	PipelineBackpressure = "pipeline.backpressure"
)

// Event is a single published occurrence. Payload holds the typed
// event-specific record (see payloads.go).
type Event struct {
	Seq       uint64
	Name      string
	Timestamp time.Time
	Payload   any
}

// Bus dispatches events to subscribers. Subscriber channels are bounded;
// a full channel drops the event rather than blocking the publisher.
// A nil *Bus is valid and discards everything.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	seq         atomic.Uint64
	dropped     atomic.Uint64
	closed      bool
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel receiving all events published after the call.
// The channel buffer holds 64 events; overflow is dropped.
func (b *Bus) Subscribe() <-chan Event {
	if b == nil {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, 64)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subscribers = append(b.subscribers, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	if b == nil || ch == nil {
		return
	}
	target := reflect.ValueOf(ch).Pointer()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if reflect.ValueOf(sub).Pointer() == target {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Publish sends an event to all subscribers. Safe on a nil bus and from
// any goroutine. Never blocks.
func (b *Bus) Publish(name string, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed || len(b.subscribers) == 0 {
		return
	}
	ev := Event{
		Seq:       b.seq.Add(1),
		Name:      name,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	for _, sub := range b.subscribers {
		select {
		case sub <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many events were discarded due to slow subscribers.
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
}

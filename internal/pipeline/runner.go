// Package pipeline owns the reasoner's output stream: it composes the
// premise source, the strategy orchestrator and the rule processor,
// throttles emission, tracks metrics, and adapts its pace to the
// consumer.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"senars/internal/events"
	"senars/internal/logging"
	"senars/internal/premise"
	"senars/internal/rules"
	"senars/internal/task"
)

// adaptEvery is the derivation count between adaptive-rate checkpoints.
const adaptEvery = 50

// emaOld and emaNew smooth throttle adjustments (0.9/0.1).
const (
	emaOld = 0.9
	emaNew = 0.1
)

// Config bounds the runner.
type Config struct {
	// CPUThrottleInterval is the post-derivation sleep. Adaptive rate
	// control moves it at runtime.
	CPUThrottleInterval time.Duration
	// BackpressureThreshold sizes the output buffer; the fill level is
	// the backpressure signal.
	BackpressureThreshold int
}

// ConsumerFeedback is the downstream's view of its own load.
type ConsumerFeedback struct {
	ProcessingSpeed *float64 // derivations/s the consumer sustains
	BacklogSize     *int     // items queued at the consumer
}

// Metrics is a snapshot of pipeline activity.
type Metrics struct {
	TotalDerivations    uint64
	TotalProcessingTime time.Duration
	Throughput          float64 // derivations per second
	AvgProcessingTime   time.Duration
	MemoryUsageBytes    uint64
	BackpressureLevel   float64 // 0.0-1.0
	ConsumerSpeed       float64 // estimated derivations/s consumed
	CPUThrottleInterval time.Duration
}

// Runner drives the pipeline and owns the abort signal.
type Runner struct {
	source       *premise.Source
	orchestrator *premise.Orchestrator
	processor    *rules.Processor
	bus          *events.Bus

	mu            sync.Mutex
	throttle      float64 // current interval, milliseconds
	started       bool
	cancel        context.CancelFunc
	stopOnce      sync.Once
	cfg           Config
	startTime     time.Time
	total         uint64
	busyTime      time.Duration
	consumerSpeed float64
	backpressure  float64
}

// NewRunner composes a pipeline.
func NewRunner(source *premise.Source, orchestrator *premise.Orchestrator, processor *rules.Processor, cfg Config, bus *events.Bus) *Runner {
	if cfg.BackpressureThreshold <= 0 {
		cfg.BackpressureThreshold = 100
	}
	return &Runner{
		source:       source,
		orchestrator: orchestrator,
		processor:    processor,
		bus:          bus,
		cfg:          cfg,
		throttle:     float64(cfg.CPUThrottleInterval) / float64(time.Millisecond),
	}
}

// Start launches the pipeline and returns its derivation stream. The
// stream closes after Stop, context cancellation, or source exhaustion.
// Start may be called once.
func (r *Runner) Start(ctx context.Context) <-chan *task.Task {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		closed := make(chan *task.Task)
		close(closed)
		return closed
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.startTime = time.Now()
	r.mu.Unlock()

	primaries := r.source.Stream(ctx)
	pairs := r.orchestrator.GeneratePremisePairs(ctx, primaries)
	derivations := r.processor.Process(ctx, pairs)

	out := make(chan *task.Task, r.cfg.BackpressureThreshold)
	go r.run(ctx, derivations, out)
	return out
}

// Stop aborts the pipeline. Idempotent.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		cancel := r.cancel
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		logging.Get(logging.CategoryPipeline).Infof("pipeline stopped")
	})
}

func (r *Runner) run(ctx context.Context, in <-chan *task.Task, out chan<- *task.Task) {
	defer close(out)
	log := logging.Get(logging.CategoryPipeline)

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-in:
			if !ok {
				log.Debugf("derivation stream drained")
				return
			}
			sendStart := time.Now()
			select {
			case <-ctx.Done():
				return
			case out <- d:
			}
			r.observe(time.Since(sendStart), len(out))

			if interval := r.throttleInterval(); interval > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(interval):
				}
			}
		}
	}
}

// observe updates metrics after one emission and runs the adaptive-rate
// checkpoint every 50 derivations.
func (r *Runner) observe(sendDuration time.Duration, queued int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	r.busyTime += sendDuration

	if sendDuration > 0 {
		speed := float64(time.Second) / float64(sendDuration)
		if r.consumerSpeed == 0 {
			r.consumerSpeed = speed
		} else {
			r.consumerSpeed = emaOld*r.consumerSpeed + emaNew*speed
		}
	}
	r.backpressure = float64(queued) / float64(r.cfg.BackpressureThreshold)
	if r.backpressure > 1 {
		r.backpressure = 1
	}

	if r.total%adaptEvery == 0 {
		r.adaptRateLocked()
	}
}

// adaptRateLocked nudges the throttle by a factor picked from the
// backpressure level, smoothed by a 0.9/0.1 EMA. Callers hold r.mu.
func (r *Runner) adaptRateLocked() {
	var factor float64
	switch {
	case r.backpressure >= 0.75:
		factor = 1.2
	case r.backpressure >= 0.5:
		factor = 1.0
	case r.backpressure >= 0.25:
		factor = 0.8
	default:
		factor = 0.5
	}
	target := r.throttle * factor
	r.throttle = emaOld*r.throttle + emaNew*target
	if r.bus != nil && r.backpressure > 0.5 {
		r.bus.Publish(events.PipelineBackpressure, events.Backpressure{
			QueueLength: int(r.backpressure * float64(r.cfg.BackpressureThreshold)),
			Level:       r.backpressure,
		})
	}
	logging.Get(logging.CategoryPipeline).Debugf("adaptive rate: backpressure=%.2f factor=%.1f throttle=%.2fms",
		r.backpressure, factor, r.throttle)
}

func (r *Runner) throttleInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(r.throttle * float64(time.Millisecond))
}

// ReceiveConsumerFeedback adjusts the throttle from downstream load:
// a backlog above threshold slows emission (x1.5, or +5ms from a
// standstill), headroom speeds it up (x0.9, or -1ms when coarse).
func (r *Runner) ReceiveConsumerFeedback(fb ConsumerFeedback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fb.BacklogSize != nil {
		if *fb.BacklogSize > r.cfg.BackpressureThreshold {
			if r.throttle < 1 {
				r.throttle += 5
			} else {
				r.throttle *= 1.5
			}
		} else {
			if r.throttle > 10 {
				r.throttle -= 1
			} else {
				r.throttle *= 0.9
			}
		}
	}
	if fb.ProcessingSpeed != nil && *fb.ProcessingSpeed > 0 {
		r.consumerSpeed = emaOld*r.consumerSpeed + emaNew**fb.ProcessingSpeed
	}
	logging.Get(logging.CategoryPipeline).Debugf("consumer feedback applied: throttle=%.2fms", r.throttle)
}

// Metrics returns a snapshot.
func (r *Runner) Metrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	elapsed := time.Since(r.startTime)
	m := Metrics{
		TotalDerivations:    r.total,
		TotalProcessingTime: r.busyTime,
		MemoryUsageBytes:    mem.Alloc,
		BackpressureLevel:   r.backpressure,
		ConsumerSpeed:       r.consumerSpeed,
		CPUThrottleInterval: time.Duration(r.throttle * float64(time.Millisecond)),
	}
	if r.total > 0 {
		m.AvgProcessingTime = r.busyTime / time.Duration(r.total)
	}
	if r.started && elapsed > 0 {
		m.Throughput = float64(r.total) / elapsed.Seconds()
	}
	return m
}

package driver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
	"k8s.io/utils/clock"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	log "github.com/mrscrape/docbench/internal/common/logging"
	"github.com/mrscrape/docbench/internal/docbench/factory"
	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

const DefaultPhaseTimeout = 10 * time.Minute

// Config controls one driver. A driver runs phases against a single store.
type Config struct {
	// Scenario is used only to label logs and metrics.
	Scenario string
	// Concurrency is the maximum number of operations in flight.
	Concurrency int
	// TotalOperations caps the number of tasks in read and mutation phases. Zero means one task per id.
	TotalOperations int
	// PhaseTimeout bounds the wall time of each phase.
	PhaseTimeout time.Duration
	Retry        RetryConfig
}

// Driver executes benchmark phases against one store.Operations at a bounded concurrency.
type Driver struct {
	ops      store.Operations
	factory  *factory.EntityFactory
	config   Config
	clock    clock.PassiveClock
	observer metrics.Observer
	logger   *log.Logger
}

type Option func(*Driver)

// WithClock sets the clock used for measurement windows.
func WithClock(clock clock.PassiveClock) Option {
	return func(d *Driver) { d.clock = clock }
}

// WithObserver forwards every latency and failure to observer as well as to the phase collector.
func WithObserver(observer metrics.Observer) Option {
	return func(d *Driver) { d.observer = observer }
}

func New(ops store.Operations, factory *factory.EntityFactory, config Config, opts ...Option) *Driver {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.PhaseTimeout <= 0 {
		config.PhaseTimeout = DefaultPhaseTimeout
	}
	d := &Driver{
		ops:      ops,
		factory:  factory,
		config:   config,
		clock:    clock.RealClock{},
		observer: metrics.NopObserver,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = log.WithFields(map[string]any{
		"scenario":    config.Scenario,
		"store":       ops.Name(),
		"model":       ops.Model(),
		"concurrency": config.Concurrency,
	})
	return d
}

// outcome is what a task reports back.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeSkipped
)

// task performs one logical operation. It is built on the submitting goroutine.
type task func(ctx context.Context) (outcome, error)

// runPhase submits n tasks, at most Concurrency at a time, and returns once all have completed or the phase
// ran out of time. Every task is accounted for exactly once: as a sample, a skip or a failure.
func (d *Driver) runPhase(ctx context.Context, operation string, n int, build func(i int) task) metrics.OperationResult {
	ctx, cancel := context.WithTimeout(ctx, d.config.PhaseTimeout)
	defer cancel()

	logger := d.logger.WithField("operation", operation)
	logger.WithField("tasks", n).Info("Starting phase")

	collector := metrics.NewCollector(d.clock)
	sem := semaphore.NewWeighted(int64(d.config.Concurrency))
	settled := make([]atomic.Bool, n)
	// Tasks hold the read lock while they claim and record their result; abandoning the phase takes the write
	// lock so no claimed result is still being recorded when the snapshot is taken.
	var recordMu sync.RWMutex
	var wg sync.WaitGroup

	collector.Start()
	for i := range n {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		t := build(i)
		wg.Go(func() {
			defer sem.Release(1)
			d.observer.InFlight(operation, 1)
			defer d.observer.InFlight(operation, -1)

			start := time.Now()
			result, err := t(ctx)
			elapsed := time.Since(start)

			recordMu.RLock()
			defer recordMu.RUnlock()
			if !settled[i].CompareAndSwap(false, true) {
				return
			}
			switch {
			case err != nil:
				collector.RecordFailure(operation, err)
				d.observer.ObserveFailure(operation, benchmarkerrors.KindFromError(err))
			case result == outcomeSkipped:
				collector.RecordSkip()
			default:
				collector.RecordLatency(float64(elapsed) / float64(time.Millisecond))
				d.observer.ObserveLatency(operation, elapsed)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	abandoned := d.settleRemaining(ctx, operation, settled, &recordMu, collector)
	collector.Stop()
	result := collector.Snapshot()
	result.TimedOut = abandoned > 0

	fields := map[string]any{
		"samples":    result.Samples,
		"failures":   result.Failures,
		"skipped":    result.Skipped,
		"throughput": result.ThroughputOpsSec,
		"p50":        result.P50,
		"p99":        result.P99,
	}
	switch {
	case result.TimedOut:
		logger.WithFields(fields).WithField("abandoned", abandoned).Warn("Phase did not complete in time")
	case result.Failures > 0:
		logger.WithFields(fields).WithField("firstFailure", result.FirstFailure).Warn("Phase completed with failures")
	default:
		logger.WithFields(fields).Info("Phase completed")
	}
	return result
}

// settleRemaining records a failure for every task that has not reported yet and returns how many there were.
func (d *Driver) settleRemaining(
	ctx context.Context,
	operation string,
	settled []atomic.Bool,
	recordMu *sync.RWMutex,
	collector *metrics.Collector,
) int {
	recordMu.Lock()
	defer recordMu.Unlock()

	var cause error
	abandoned := 0
	for i := range settled {
		if !settled[i].CompareAndSwap(false, true) {
			continue
		}
		if cause == nil {
			cause = d.abandonCause(ctx, operation)
		}
		collector.RecordFailure(operation, cause)
		d.observer.ObserveFailure(operation, benchmarkerrors.KindFromError(cause))
		abandoned++
	}
	return abandoned
}

func (d *Driver) abandonCause(ctx context.Context, operation string) error {
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		return errors.WithStack(&benchmarkerrors.ErrPhaseTimeout{
			Operation: operation,
			Timeout:   d.config.PhaseTimeout.String(),
		})
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(context.Canceled)
}

// call runs one store call with retries.
func (d *Driver) call(ctx context.Context, f func() error) error {
	return withRetry(ctx, d.config.Retry, f)
}

// readCount is the number of tasks for phases that cycle over existing ids.
func (d *Driver) readCount(ids int) int {
	if d.config.TotalOperations <= 0 {
		return ids
	}
	return min(d.config.TotalOperations, ids)
}

package metrics

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
	"k8s.io/utils/clock"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
)

const numShards = 64

type shard struct {
	mu      sync.Mutex
	samples []float64
	_       cpu.CacheLinePad
}

// Failure is one failed task.
type Failure struct {
	Operation string
	Kind      benchmarkerrors.Kind
	Cause     string
}

// Collector accumulates latency samples from many goroutines and summarises them on demand.
// Samples are spread over cache-line padded shards so concurrent callers rarely contend.
type Collector struct {
	clock  clock.PassiveClock
	shards [numShards]shard

	failuresMu sync.Mutex
	failures   []Failure

	skipped atomic.Int64

	windowMu sync.Mutex
	start    time.Time
	stop     time.Time
}

func NewCollector(clock clock.PassiveClock) *Collector {
	return &Collector{clock: clock}
}

// Start marks the beginning of the measurement window.
func (c *Collector) Start() {
	c.windowMu.Lock()
	defer c.windowMu.Unlock()
	c.start = c.clock.Now()
	c.stop = time.Time{}
}

// Stop marks the end of the measurement window.
func (c *Collector) Stop() {
	c.windowMu.Lock()
	defer c.windowMu.Unlock()
	c.stop = c.clock.Now()
}

// RecordLatency adds one successful sample, in milliseconds.
func (c *Collector) RecordLatency(millis float64) {
	s := &c.shards[rand.IntN(numShards)]
	s.mu.Lock()
	s.samples = append(s.samples, millis)
	s.mu.Unlock()
}

// RecordFailure adds one failed task. Failures are excluded from latencies and throughput.
func (c *Collector) RecordFailure(operation string, cause error) {
	f := Failure{
		Operation: operation,
		Kind:      benchmarkerrors.KindFromError(cause),
	}
	if cause != nil {
		f.Cause = cause.Error()
	}
	c.failuresMu.Lock()
	c.failures = append(c.failures, f)
	c.failuresMu.Unlock()
}

// RecordSkip counts a task that had nothing to do, such as an update against an order without items.
func (c *Collector) RecordSkip() {
	c.skipped.Add(1)
}

// Failures returns a copy of the failures recorded so far.
func (c *Collector) Failures() []Failure {
	c.failuresMu.Lock()
	defer c.failuresMu.Unlock()
	return slices.Clone(c.failures)
}

// Snapshot summarises everything recorded so far. If Stop has not been called the window ends now.
func (c *Collector) Snapshot() OperationResult {
	var samples []float64
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		samples = append(samples, s.samples...)
		s.mu.Unlock()
	}
	slices.Sort(samples)

	failures := c.Failures()
	result := OperationResult{
		Samples:        len(samples),
		Failures:       len(failures),
		Skipped:        int(c.skipped.Load()),
		WindowMs:       c.windowMs(),
		FailuresByKind: map[benchmarkerrors.Kind]int{},
	}
	for _, f := range failures {
		result.FailuresByKind[f.Kind]++
	}
	if len(failures) > 0 {
		result.FirstFailure = failures[0].Cause
	}

	if len(samples) == 0 {
		return result
	}

	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	result.Mean = sum / float64(len(samples))
	result.Min = samples[0]
	result.Max = samples[len(samples)-1]
	result.P50 = Percentile(samples, 50)
	result.P75 = Percentile(samples, 75)
	result.P95 = Percentile(samples, 95)
	result.P99 = Percentile(samples, 99)
	if result.WindowMs > 0 {
		result.ThroughputOpsSec = float64(len(samples)) * 1000 / result.WindowMs
	}
	return result
}

func (c *Collector) windowMs() float64 {
	c.windowMu.Lock()
	defer c.windowMu.Unlock()
	if c.start.IsZero() {
		return 0
	}
	stop := c.stop
	if stop.IsZero() {
		stop = c.clock.Now()
	}
	return float64(stop.Sub(c.start)) / float64(time.Millisecond)
}

// Percentile returns the ceil-rank percentile of an ascending slice: the element at
// ceil(p/100 * n) - 1, clamped to the slice bounds. An empty slice yields zero.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(n)/100)) - 1
	idx = max(0, min(idx, n-1))
	return sorted[idx]
}

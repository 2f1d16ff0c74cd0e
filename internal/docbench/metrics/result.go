package metrics

import (
	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
)

// OperationResult is the sealed summary of one phase against one store. Latencies are in milliseconds.
type OperationResult struct {
	Samples          int
	Failures         int
	Skipped          int
	P50              float64
	P75              float64
	P95              float64
	P99              float64
	Mean             float64
	Min              float64
	Max              float64
	ThroughputOpsSec float64
	WindowMs         float64
	// TimedOut is set when the phase was abandoned before every task finished.
	TimedOut bool
	// FailuresByKind counts failures per error kind.
	FailuresByKind map[benchmarkerrors.Kind]int
	// FirstFailure is the message of the earliest recorded failure, for logging.
	FirstFailure string
}

// Tasks is the number of tasks the result accounts for.
func (r OperationResult) Tasks() int {
	return r.Samples + r.Failures + r.Skipped
}

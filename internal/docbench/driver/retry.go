package driver

import (
	"context"
	"time"

	"github.com/avast/retry-go"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
)

// RetryConfig bounds how often a transient failure is retried. Backoff doubles from InitialBackoff with random jitter.
type RetryConfig struct {
	MaxAttempts    uint
	InitialBackoff time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 100 * time.Millisecond,
}

// withRetry calls f until it succeeds, fails with a non-transient error, runs out of attempts or ctx is done.
// Only the final error is returned.
func withRetry(ctx context.Context, config RetryConfig, f func() error) error {
	return retry.Do(
		f,
		retry.Context(ctx),
		retry.Attempts(max(1, config.MaxAttempts)),
		retry.Delay(config.InitialBackoff),
		retry.MaxJitter(config.InitialBackoff),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(benchmarkerrors.IsTransient),
		retry.LastErrorOnly(true),
	)
}

package orchestrator

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	log "github.com/mrscrape/docbench/internal/common/logging"
	"github.com/mrscrape/docbench/internal/docbench/configuration"
	"github.com/mrscrape/docbench/internal/docbench/driver"
	"github.com/mrscrape/docbench/internal/docbench/factory"
	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/report"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

const (
	// cleanupTimeout bounds teardown and close, which run even after the run has been cancelled.
	cleanupTimeout = time.Minute
	// amountTolerance is the largest difference between the stored amount and the item total that is accepted.
	amountTolerance = 0.01
)

// Triple identifies one benchmark run.
type Triple struct {
	Scenario    Scenario
	ScaleName   string
	Scale       configuration.Scale
	Concurrency int
}

// Runner runs every enabled (scenario, scale, concurrency) triple against both stores and writes a report
// for each one.
type Runner struct {
	config    configuration.BenchmarkConfig
	connector Connector
	factory   *factory.EntityFactory
	recorder  *metrics.PrometheusRecorder
	clock     clock.PassiveClock
	out       io.Writer
}

type Option func(*Runner)

// WithRecorder exports live phase metrics through recorder.
func WithRecorder(recorder *metrics.PrometheusRecorder) Option {
	return func(r *Runner) { r.recorder = recorder }
}

// WithClock sets the clock used for output directory timestamps and phase windows.
func WithClock(clock clock.PassiveClock) Option {
	return func(r *Runner) { r.clock = clock }
}

// WithSummaryOutput prints a console summary of every completed run to out.
func WithSummaryOutput(out io.Writer) Option {
	return func(r *Runner) { r.out = out }
}

func NewRunner(config configuration.BenchmarkConfig, connector Connector, opts ...Option) *Runner {
	r := &Runner{
		config:    config,
		connector: connector,
		factory:   factory.NewEntityFactory(),
		clock:     clock.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every triple in scenario, scale, concurrency order. A failed triple is logged and the next
// one is started. Run returns the output directories of the triples that completed, and an error if none did
// or if ctx was cancelled before all triples ran.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	triples, err := r.triples()
	if err != nil {
		return nil, err
	}
	log.Infof("Starting docbench: %d runs", len(triples))

	var dirs []string
	failed := 0
	for _, triple := range triples {
		if ctx.Err() != nil {
			break
		}
		dir, err := r.RunTriple(ctx, triple)
		if err != nil {
			failed++
			tripleLogger(triple).WithStacktrace(err).Error("Benchmark run failed")
			continue
		}
		dirs = append(dirs, dir)
	}

	log.WithFields(map[string]any{
		"completed": len(dirs),
		"failed":    failed,
		"skipped":   len(triples) - len(dirs) - failed,
	}).Info("docbench finished")

	if err := ctx.Err(); err != nil {
		return dirs, errors.WithMessage(err, "benchmark interrupted")
	}
	if len(dirs) == 0 {
		return nil, errors.Errorf("none of the %d benchmark runs completed", len(triples))
	}
	return dirs, nil
}

func (r *Runner) triples() ([]Triple, error) {
	var triples []Triple
	for _, name := range r.config.EnabledScenarios() {
		scenario, err := LookupScenario(name)
		if err != nil {
			return nil, err
		}
		for _, scaleName := range r.config.Benchmark.Scales {
			scale, err := r.config.ResolveScale(scaleName)
			if err != nil {
				return nil, err
			}
			for _, concurrency := range r.config.Benchmark.ConcurrencyLevels {
				triples = append(triples, Triple{
					Scenario:    scenario,
					ScaleName:   scaleName,
					Scale:       scale,
					Concurrency: concurrency,
				})
			}
		}
	}
	return triples, nil
}

// RunTriple connects to both stores, benchmarks PostgreSQL and then MongoDB, and writes the report. The stores
// are torn down and closed on every path out.
func (r *Runner) RunTriple(ctx context.Context, triple Triple) (dir string, err error) {
	logger := tripleLogger(triple)
	logger.Info("Starting benchmark run")
	startedAt := r.clock.Now()

	pair, err := r.connector.Connect(ctx, triple.Scenario)
	if err != nil {
		return "", errors.WithMessage(err, "connecting to stores")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if closeErr := pair.Close(closeCtx); closeErr != nil {
			logger.WithError(closeErr).Warn("Failed to close stores")
		}
	}()

	results := report.NewBenchmarkResults(triple.Scenario.Name, triple.ScaleName, triple.Concurrency)
	for _, ops := range pair.Ordered() {
		if err := r.runStore(ctx, triple, ops, results); err != nil {
			return "", errors.WithMessagef(err, "benchmarking %s/%s", ops.Name(), ops.Model())
		}
	}

	dir = report.Dir(r.config.Output.ResultsDir, results, startedAt)
	if err := report.Write(dir, results); err != nil {
		return "", err
	}
	if r.out != nil {
		if err := report.PrintSummary(r.out, results); err != nil {
			logger.WithError(err).Warn("Failed to print summary")
		}
	}
	logger.WithField("dir", dir).Info("Benchmark run complete")
	return dir, nil
}

// runStore sets up one store, runs every phase against it and tears it down again.
func (r *Runner) runStore(ctx context.Context, triple Triple, ops store.Operations, results *report.BenchmarkResults) (err error) {
	if err := ops.Setup(ctx); err != nil {
		return err
	}
	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if teardownErr := ops.Teardown(teardownCtx); teardownErr != nil {
			err = multierror.Append(err, teardownErr).ErrorOrNil()
		}
	}()

	opts := []driver.Option{driver.WithClock(r.clock)}
	if r.recorder != nil {
		opts = append(opts, driver.WithObserver(r.recorder.Observer(triple.Scenario.Name, ops.Name())))
	}
	d := driver.New(ops, r.factory, driver.Config{
		Scenario:        triple.Scenario.Name,
		Concurrency:     triple.Concurrency,
		TotalOperations: r.config.Benchmark.TotalOperations,
		PhaseTimeout:    r.config.Benchmark.PhaseTimeout,
		Retry: driver.RetryConfig{
			MaxAttempts:    r.config.Benchmark.Retry.MaxAttempts,
			InitialBackoff: r.config.Benchmark.Retry.InitialBackoff,
		},
	}, opts...)

	params := triple.Scale.OrderParams()
	var ids []uuid.UUID
	for _, phase := range driver.PhaseOrder {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		var result metrics.OperationResult
		switch phase {
		case driver.OpInsert:
			result, ids = d.RunInsert(ctx, triple.Scale.OrderCount, params)
			r.checkAmountInvariant(ctx, ops, ids)
		case driver.OpAppend:
			result = d.RunAppend(ctx, ids)
		case driver.OpUpdate:
			result = d.RunUpdate(ctx, ids)
		case driver.OpDelete:
			result = d.RunDelete(ctx, ids)
		case driver.OpBatchInsert:
			result = d.RunBatchInsert(ctx, triple.Scale.OrderCount, params)
		case driver.OpFetchOrder:
			result = d.RunFetch(ctx, ids)
		case driver.OpFetchFiltered:
			result = d.RunFetchFiltered(ctx, ids)
		case driver.OpCount:
			result = d.RunCount(ctx, ids)
		case driver.OpAggregate:
			result = d.RunAggregate(ctx, ids)
		case driver.OpBatchFetch:
			result = d.RunBatchFetch(ctx, ids)
		default:
			return errors.Errorf("unknown phase %s", phase)
		}
		results.Add(phase, ops.Name(), result)
	}
	return nil
}

// checkAmountInvariant compares the stored amount of one random order with the sum of its items. A mismatch
// is logged and does not fail the run.
func (r *Runner) checkAmountInvariant(ctx context.Context, ops store.Operations, ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	orderID := ids[rand.IntN(len(ids))]
	logger := log.WithFields(map[string]any{
		"store":   ops.Name(),
		"model":   ops.Model(),
		"orderId": orderID,
	})
	order, err := ops.FetchOrder(ctx, orderID)
	if err != nil || order == nil {
		logger.WithError(err).Warn("Could not fetch order to check its amount")
		return
	}
	amount, err := ops.Aggregate(ctx, orderID)
	if err != nil {
		logger.WithError(err).Warn("Could not aggregate order to check its amount")
		return
	}
	total := order.ItemsTotal().InexactFloat64()
	if math.Abs(amount-total) > amountTolerance {
		logger.WithFields(map[string]any{
			"amount":     amount,
			"itemsTotal": total,
		}).Warn("Order amount does not match the sum of its items")
	}
}

func tripleLogger(triple Triple) *log.Logger {
	return log.WithFields(map[string]any{
		"scenario":    triple.Scenario.Name,
		"scale":       triple.ScaleName,
		"concurrency": triple.Concurrency,
	})
}

package orchestrator

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/configuration"
	"github.com/mrscrape/docbench/internal/docbench/driver"
	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/report"
	"github.com/mrscrape/docbench/internal/docbench/store"
	"github.com/mrscrape/docbench/internal/docbench/store/mongodb"
	"github.com/mrscrape/docbench/internal/docbench/store/postgres"
)

var testTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func testConfig(t *testing.T) configuration.BenchmarkConfig {
	return configuration.BenchmarkConfig{
		Benchmark: configuration.Benchmark{
			Scales: []string{"tiny"},
			CustomScales: map[string]configuration.Scale{
				"tiny": {
					OrderCount:       120,
					ItemsPerOrderMin: 0,
					ItemsPerOrderMax: 3,
					UnitPriceMin:     decimal.NewFromInt(1),
					UnitPriceMax:     decimal.NewFromInt(20),
					QuantityMin:      1,
					QuantityMax:      3,
				},
			},
			ConcurrencyLevels: []int{1, 4},
			EnabledScenarios:  []string{configuration.Scenario1, configuration.Scenario4},
			TotalOperations:   50,
			PhaseTimeout:      time.Minute,
			Retry:             configuration.RetryConfig{MaxAttempts: 1},
		},
		Output: configuration.OutputConfig{ResultsDir: t.TempDir()},
	}
}

// failingSetupConnector hands out memory stores whose setup fails for the listed scenarios.
type failingSetupConnector struct {
	failFor  map[string]bool
	connects atomic.Int32
	closed   atomic.Int32
}

func (c *failingSetupConnector) Connect(ctx context.Context, scenario Scenario) (StorePair, error) {
	c.connects.Add(1)
	pair, err := MemoryConnector{}.Connect(ctx, scenario)
	if err != nil {
		return StorePair{}, err
	}
	wrap := func(ops store.Operations) store.Operations {
		return &trackedStore{Operations: ops, failSetup: c.failFor[scenario.Name], closed: &c.closed}
	}
	return StorePair{Postgres: wrap(pair.Postgres), Mongo: wrap(pair.Mongo)}, nil
}

type trackedStore struct {
	store.Operations
	failSetup bool
	closed    *atomic.Int32
}

func (s *trackedStore) Setup(ctx context.Context) error {
	if s.failSetup {
		return errors.WithStack(&benchmarkerrors.ErrSetup{Store: s.Name(), Err: errors.New("boom")})
	}
	return s.Operations.Setup(ctx)
}

func (s *trackedStore) Close(ctx context.Context) error {
	s.closed.Add(1)
	return s.Operations.Close(ctx)
}

type failingConnector struct{}

func (failingConnector) Connect(context.Context, Scenario) (StorePair, error) {
	return StorePair{}, errors.New("connection refused")
}

func TestRunner_Run(t *testing.T) {
	config := testConfig(t)
	registry := prometheus.NewRegistry()
	var summary strings.Builder
	runner := NewRunner(config, MemoryConnector{},
		WithRecorder(metrics.NewPrometheusRecorder(registry)),
		WithSummaryOutput(&summary),
	)

	dirs, err := runner.Run(context.Background())
	require.NoError(t, err)

	// scenario x scale x concurrency
	require.Len(t, dirs, 4)
	prefixes := []string{"scenario1-tiny-c1-", "scenario1-tiny-c4-", "scenario4-tiny-c1-", "scenario4-tiny-c4-"}
	for i, dir := range dirs {
		assert.True(t, strings.HasPrefix(filepath.Base(dir), prefixes[i]), "unexpected directory %s", dir)
		assert.FileExists(t, filepath.Join(dir, report.CSVFile))
		assert.FileExists(t, filepath.Join(dir, report.MarkdownFile))
	}

	f, err := os.Open(filepath.Join(dirs[0], report.CSVFile))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+len(driver.PhaseOrder)*len(report.Metrics))
	for i, phase := range driver.PhaseOrder {
		assert.Equal(t, phase, records[1+i*len(report.Metrics)][0])
	}

	assert.Equal(t, 4, strings.Count(summary.String(), "/ tiny / concurrency"))

	series, err := testutil.GatherAndCount(registry, "docbench_operation_latency_seconds")
	require.NoError(t, err)
	assert.Positive(t, series)
}

func TestRunner_RunTripleResults(t *testing.T) {
	config := testConfig(t)
	scenario, err := LookupScenario(configuration.Scenario1)
	require.NoError(t, err)
	runner := NewRunner(config, MemoryConnector{}, WithClock(clocktesting.NewFakePassiveClock(testTime)))

	dir, err := runner.RunTriple(context.Background(), Triple{
		Scenario:    scenario,
		ScaleName:   "tiny",
		Scale:       config.Benchmark.CustomScales["tiny"],
		Concurrency: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(config.Output.ResultsDir, "scenario1-tiny-c2-20250102-030405"), dir)
}

func TestRunner_FailedTriplesAreSkipped(t *testing.T) {
	config := testConfig(t)
	connector := &failingSetupConnector{failFor: map[string]bool{configuration.Scenario1: true}}
	runner := NewRunner(config, connector)

	dirs, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	for _, dir := range dirs {
		assert.True(t, strings.HasPrefix(filepath.Base(dir), "scenario4-"))
	}
	assert.Equal(t, int32(4), connector.connects.Load())
	// Both stores of every triple are closed, including those whose setup failed.
	assert.Equal(t, int32(8), connector.closed.Load())
}

func TestRunner_NoTripleSucceeded(t *testing.T) {
	runner := NewRunner(testConfig(t), failingConnector{})

	dirs, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the 4 benchmark runs completed")
	assert.Empty(t, dirs)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(testConfig(t), MemoryConnector{})

	dirs, err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dirs)
}

func TestLookupScenario(t *testing.T) {
	tests := map[string]struct {
		mongoModel    string
		postgresModel string
	}{
		configuration.Scenario1: {mongoModel: mongodb.ModelEmbedded, postgresModel: postgres.ModelJsonb},
		configuration.Scenario2: {mongoModel: mongodb.ModelEmbedded, postgresModel: postgres.ModelNormalized},
		configuration.Scenario3: {mongoModel: mongodb.ModelMultiCollection, postgresModel: postgres.ModelJsonb},
		configuration.Scenario4: {mongoModel: mongodb.ModelMultiCollection, postgresModel: postgres.ModelNormalized},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			scenario, err := LookupScenario(name)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name)
			assert.Equal(t, tc.mongoModel, scenario.MongoModel)
			assert.Equal(t, tc.postgresModel, scenario.PostgresModel)
		})
	}

	_, err := LookupScenario("scenario5")
	assert.Equal(t, benchmarkerrors.KindFatalConfig, benchmarkerrors.KindFromError(err))
}

func TestDatabaseConnector_Configs(t *testing.T) {
	config := testConfig(t)
	config.Benchmark.ConnectionPool = configuration.ConnectionPoolConfig{
		MinSize:             5,
		MaxSize:             20,
		ConnectionTimeoutMs: 30000,
		IdleTimeoutMs:       600000,
	}
	config.PostgreSQL = configuration.PostgresConfig{Database: "benchmark", User: "postgres", Password: "secret"}
	config.MongoDB = configuration.MongoDBConfig{Database: "benchmark"}
	endpoints := configuration.ScenarioEndpoints{
		MongoDBURI:   "mongodb://localhost:27017/?replicaSet=rs0",
		PostgresHost: "db:5433",
	}
	connector := NewDatabaseConnector(config)

	pg := connector.postgresConfig(endpoints)
	assert.Equal(t, "db:5433", pg.Host)
	assert.Equal(t, "secret", pg.Password)
	assert.Equal(t, int32(5), pg.Pool.MinConns)
	assert.Equal(t, int32(20), pg.Pool.MaxConns)
	assert.Equal(t, 30*time.Second, pg.Pool.ConnectTimeout)
	assert.Equal(t, 10*time.Minute, pg.Pool.MaxConnIdleTime)

	mongo := connector.mongoConfig(endpoints)
	assert.Equal(t, endpoints.MongoDBURI, mongo.URI)
	assert.Equal(t, "benchmark", mongo.Database)
	assert.Equal(t, uint64(5), mongo.MinPoolSize)
	assert.Equal(t, uint64(20), mongo.MaxPoolSize)

	_, err := connector.Connect(context.Background(), Scenario{Name: "scenario9"})
	assert.Error(t, err)
}

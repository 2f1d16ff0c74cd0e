package configuration

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
)

func validConfig() BenchmarkConfig {
	return BenchmarkConfig{
		Benchmark: Benchmark{
			Scales: []string{"small"},
			CustomScales: map[string]Scale{
				"small": {
					OrderCount:       1000,
					ItemsPerOrderMin: 1,
					ItemsPerOrderMax: 10,
					UnitPriceMin:     decimal.RequireFromString("1.00"),
					UnitPriceMax:     decimal.RequireFromString("500.00"),
					QuantityMin:      1,
					QuantityMax:      10,
				},
			},
			ConcurrencyLevels: []int{1, 10},
			EnabledScenarios:  []string{Scenario1},
			TotalOperations:   1000,
			PhaseTimeout:      10 * time.Minute,
			Retry: RetryConfig{
				MaxAttempts:    3,
				InitialBackoff: 100 * time.Millisecond,
			},
			ConnectionPool: ConnectionPoolConfig{
				MinSize:             5,
				MaxSize:             20,
				ConnectionTimeoutMs: 30000,
				IdleTimeoutMs:       600000,
			},
		},
		Scenarios: map[string]ScenarioEndpoints{
			Scenario1: {
				MongoDBURI:   "mongodb://localhost:27017/?replicaSet=rs0",
				PostgresHost: "localhost:5432",
			},
		},
		MongoDB:    MongoDBConfig{Database: "benchmark"},
		PostgreSQL: PostgresConfig{Database: "benchmark", User: "postgres", Password: "postgres"},
		Output:     OutputConfig{ResultsDir: "results"},
	}
}

func TestBenchmarkConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*BenchmarkConfig)
		wantErr bool
		errText string
	}{
		{
			name:    "valid configuration",
			modify:  func(c *BenchmarkConfig) {},
			wantErr: false,
		},
		{
			name: "no scales",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.Scales = nil
			},
			wantErr: true,
			errText: "Scales",
		},
		{
			name: "undefined scale",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.Scales = []string{"small", "huge"}
			},
			wantErr: true,
			errText: `scale "huge" is not defined in benchmark.custom_scales (defined: [small])`,
		},
		{
			name: "zero concurrency",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.ConcurrencyLevels = []int{1, 0}
			},
			wantErr: true,
			errText: "ConcurrencyLevels[1]",
		},
		{
			name: "unknown enabled scenario",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.EnabledScenarios = []string{"scenario5"}
			},
			wantErr: true,
			errText: "oneof",
		},
		{
			name: "duplicate enabled scenario",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.EnabledScenarios = []string{Scenario1, Scenario1}
			},
			wantErr: true,
			errText: "unique",
		},
		{
			name: "enabled scenario without endpoints",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.EnabledScenarios = []string{Scenario1, Scenario2}
			},
			wantErr: true,
			errText: `scenario "scenario2" has no entry in scenarios`,
		},
		{
			name: "all scenarios enabled by default",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.EnabledScenarios = nil
			},
			wantErr: true,
			errText: `scenario "scenario4" has no entry in scenarios`,
		},
		{
			name: "unknown scenario endpoints",
			modify: func(c *BenchmarkConfig) {
				c.Scenarios["scenario9"] = ScenarioEndpoints{MongoDBURI: "mongodb://x", PostgresHost: "x"}
			},
			wantErr: true,
			errText: `unknown scenario "scenario9"`,
		},
		{
			name: "missing mongodb uri",
			modify: func(c *BenchmarkConfig) {
				c.Scenarios[Scenario1] = ScenarioEndpoints{PostgresHost: "localhost:5432"}
			},
			wantErr: true,
			errText: "MongoDBURI",
		},
		{
			name: "items range inverted",
			modify: func(c *BenchmarkConfig) {
				scale := c.Benchmark.CustomScales["small"]
				scale.ItemsPerOrderMax = 0
				c.Benchmark.CustomScales["small"] = scale
			},
			wantErr: true,
			errText: "ItemsPerOrderMax",
		},
		{
			name: "price range inverted",
			modify: func(c *BenchmarkConfig) {
				scale := c.Benchmark.CustomScales["small"]
				scale.UnitPriceMax = decimal.RequireFromString("0.50")
				c.Benchmark.CustomScales["small"] = scale
			},
			wantErr: true,
			errText: "UnitPriceMax",
		},
		{
			name: "negative price",
			modify: func(c *BenchmarkConfig) {
				scale := c.Benchmark.CustomScales["small"]
				scale.UnitPriceMin = decimal.RequireFromString("-1")
				c.Benchmark.CustomScales["small"] = scale
			},
			wantErr: true,
			errText: "UnitPriceMin",
		},
		{
			name: "zero quantity",
			modify: func(c *BenchmarkConfig) {
				scale := c.Benchmark.CustomScales["small"]
				scale.QuantityMin = 0
				c.Benchmark.CustomScales["small"] = scale
			},
			wantErr: true,
			errText: "QuantityMin",
		},
		{
			name: "zero retry attempts",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.Retry.MaxAttempts = 0
			},
			wantErr: true,
			errText: "MaxAttempts",
		},
		{
			name: "negative phase timeout",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.PhaseTimeout = -time.Second
			},
			wantErr: true,
			errText: "PhaseTimeout",
		},
		{
			name: "pool min above max",
			modify: func(c *BenchmarkConfig) {
				c.Benchmark.ConnectionPool.MinSize = 50
			},
			wantErr: true,
			errText: "min_size 50 is greater than max_size 20",
		},
		{
			name: "missing postgres user",
			modify: func(c *BenchmarkConfig) {
				c.PostgreSQL.User = ""
			},
			wantErr: true,
			errText: "User",
		},
		{
			name: "missing results dir",
			modify: func(c *BenchmarkConfig) {
				c.Output.ResultsDir = ""
			},
			wantErr: true,
			errText: "ResultsDir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
				assert.Equal(t, benchmarkerrors.KindFatalConfig, benchmarkerrors.KindFromError(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidate_TagFailuresAreValidationErrors(t *testing.T) {
	config := validConfig()
	config.MongoDB.Database = ""

	err := config.Validate()

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	require.Len(t, validationErrors, 1)
	assert.Equal(t, "BenchmarkConfig.MongoDB.Database", validationErrors[0].Namespace())
	assert.Equal(t, "required", validationErrors[0].Tag())
}

func TestEnabledScenarios(t *testing.T) {
	config := validConfig()
	assert.Equal(t, []string{Scenario1}, config.EnabledScenarios())

	config.Benchmark.EnabledScenarios = nil
	assert.Equal(t, []string{Scenario1, Scenario2, Scenario3, Scenario4}, config.EnabledScenarios())
}

func TestResolveScale(t *testing.T) {
	config := validConfig()

	scale, err := config.ResolveScale("small")
	require.NoError(t, err)
	assert.Equal(t, 1000, scale.OrderCount)

	params := scale.OrderParams()
	assert.Equal(t, 1, params.ItemsMin)
	assert.Equal(t, 10, params.ItemsMax)
	assert.True(t, decimal.RequireFromString("500").Equal(params.PriceMax))
	assert.Equal(t, 10, params.QtyMax)

	_, err = config.ResolveScale("large")
	assert.Equal(t, benchmarkerrors.KindFatalConfig, benchmarkerrors.KindFromError(err))
}

func TestConnectionPoolDurations(t *testing.T) {
	pool := validConfig().Benchmark.ConnectionPool
	assert.Equal(t, 30*time.Second, pool.ConnectTimeout())
	assert.Equal(t, 10*time.Minute, pool.IdleTimeout())
}

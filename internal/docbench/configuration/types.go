package configuration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrscrape/docbench/internal/docbench/factory"
)

const (
	Scenario1 = "scenario1"
	Scenario2 = "scenario2"
	Scenario3 = "scenario3"
	Scenario4 = "scenario4"
)

// AllScenarios is the run order used when no scenarios are enabled explicitly.
var AllScenarios = []string{Scenario1, Scenario2, Scenario3, Scenario4}

type BenchmarkConfig struct {
	Benchmark Benchmark
	// Scenarios holds the connection endpoints per scenario name.
	Scenarios  map[string]ScenarioEndpoints `validate:"required,min=1,dive"`
	MongoDB    MongoDBConfig                `mapstructure:"mongodb"`
	PostgreSQL PostgresConfig               `mapstructure:"postgresql"`
	Output     OutputConfig
	Metrics    MetricsConfig
}

type Benchmark struct {
	Scales            []string         `validate:"required,min=1,dive,required"`
	CustomScales      map[string]Scale `mapstructure:"custom_scales" validate:"dive"`
	ConcurrencyLevels []int            `mapstructure:"concurrency_levels" validate:"required,min=1,dive,min=1"`
	// EnabledScenarios defaults to AllScenarios when empty.
	EnabledScenarios []string `mapstructure:"enabled_scenarios" validate:"unique,dive,oneof=scenario1 scenario2 scenario3 scenario4"`
	// TotalOperations caps the tasks per phase. Zero means one task per inserted order.
	TotalOperations int           `mapstructure:"total_operations" validate:"min=0"`
	PhaseTimeout    time.Duration `mapstructure:"phase_timeout" validate:"min=0"`
	Retry           RetryConfig
	ConnectionPool  ConnectionPoolConfig `mapstructure:"connection_pool"`
}

// Scale sizes the generated data set.
type Scale struct {
	OrderCount       int             `mapstructure:"order_count" validate:"min=1"`
	ItemsPerOrderMin int             `mapstructure:"items_per_order_min" validate:"min=0"`
	ItemsPerOrderMax int             `mapstructure:"items_per_order_max" validate:"gtefield=ItemsPerOrderMin"`
	UnitPriceMin     decimal.Decimal `mapstructure:"unit_price_min"`
	UnitPriceMax     decimal.Decimal `mapstructure:"unit_price_max"`
	QuantityMin      int             `mapstructure:"quantity_min" validate:"min=1"`
	QuantityMax      int             `mapstructure:"quantity_max" validate:"gtefield=QuantityMin"`
}

type RetryConfig struct {
	MaxAttempts    uint          `mapstructure:"max_attempts" validate:"min=1"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"min=0"`
}

// ConnectionPoolConfig applies to both the pgx pool and the mongo client.
type ConnectionPoolConfig struct {
	MinSize             int `mapstructure:"min_size" validate:"min=0"`
	MaxSize             int `mapstructure:"max_size" validate:"min=1"`
	ConnectionTimeoutMs int `mapstructure:"connection_timeout_ms" validate:"min=0"`
	IdleTimeoutMs       int `mapstructure:"idle_timeout_ms" validate:"min=0"`
}

type ScenarioEndpoints struct {
	MongoDBURI   string `mapstructure:"mongodb_uri" validate:"required"`
	PostgresHost string `mapstructure:"postgres_host" validate:"required"`
}

type MongoDBConfig struct {
	Database string `validate:"required"`
}

type PostgresConfig struct {
	Database string `validate:"required"`
	User     string `validate:"required"`
	Password string
}

type OutputConfig struct {
	ResultsDir string `mapstructure:"results_dir" validate:"required"`
}

type MetricsConfig struct {
	// Port serves /metrics when non-zero.
	Port uint16
}

// OrderParams converts the scale into generator bounds.
func (s Scale) OrderParams() factory.OrderParams {
	return factory.OrderParams{
		ItemsMin: s.ItemsPerOrderMin,
		ItemsMax: s.ItemsPerOrderMax,
		ItemParams: factory.ItemParams{
			PriceMin: s.UnitPriceMin,
			PriceMax: s.UnitPriceMax,
			QtyMin:   s.QuantityMin,
			QtyMax:   s.QuantityMax,
		},
	}
}

func (p ConnectionPoolConfig) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectionTimeoutMs) * time.Millisecond
}

func (p ConnectionPoolConfig) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutMs) * time.Millisecond
}

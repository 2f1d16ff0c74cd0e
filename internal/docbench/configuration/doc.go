/*
Package configuration defines the input configuration for docbench.

docbench runs the same order/item workload against MongoDB and PostgreSQL under four data
modelling scenarios and reports per-operation latency and throughput for each store.

# Configuration Structure

The main configuration type is BenchmarkConfig, which defines:

  - The scales to run and the data set each scale generates
  - The concurrency levels and the scenarios to run at each level
  - Per-phase limits (operation count, phase timeout, retries)
  - Connection pool sizing shared by both stores
  - Per-scenario connection endpoints and the database credentials
  - Where reports are written and whether Prometheus metrics are served

The scenarios are fixed:

  - scenario1: MongoDB embedded documents vs PostgreSQL JSONB
  - scenario2: MongoDB embedded documents vs PostgreSQL normalized tables
  - scenario3: MongoDB multiple collections vs PostgreSQL JSONB
  - scenario4: MongoDB multiple collections vs PostgreSQL normalized tables

# Example YAML Configuration

	benchmark:
	  scales: [small]
	  custom_scales:
	    small:
	      order_count: 1000
	      items_per_order_min: 1
	      items_per_order_max: 10
	      unit_price_min: 1.00
	      unit_price_max: 500.00
	      quantity_min: 1
	      quantity_max: 10
	  concurrency_levels: [1, 10]
	  enabled_scenarios: [scenario1, scenario2, scenario3, scenario4]
	  total_operations: 1000
	  phase_timeout: 10m
	  retry:
	    max_attempts: 3
	    initial_backoff: 100ms
	  connection_pool:
	    min_size: 5
	    max_size: 20
	    connection_timeout_ms: 30000
	    idle_timeout_ms: 600000
	scenarios:
	  scenario1:
	    mongodb_uri: mongodb://localhost:27017/?replicaSet=rs0
	    postgres_host: localhost:5432
	mongodb:
	  database: benchmark
	postgresql:
	  database: benchmark
	  user: postgres
	  password: postgres
	output:
	  results_dir: results
	metrics:
	  port: 0

Every key can be overridden with an environment variable prefixed DOCBENCH_, with dots replaced by
underscores, e.g. DOCBENCH_POSTGRESQL_PASSWORD.

# Validation

BenchmarkConfig.Validate() checks the configuration in two passes:

  - Field constraints declared with go-playground/validator tags (positive counts, min <= max ranges,
    known scenario names, required credentials)
  - Cross-section checks: every listed scale is defined, every enabled scenario has endpoints and the
    pool minimum does not exceed its maximum

Any failure is returned as a *benchmarkerrors.ErrFatalConfig, which aborts the run.
*/

package configuration

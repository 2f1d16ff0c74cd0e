package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrscrape/docbench/internal/common/app"
	log "github.com/mrscrape/docbench/internal/common/logging"
	"github.com/mrscrape/docbench/internal/common/serve"
	"github.com/mrscrape/docbench/internal/docbench/configuration"
	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/orchestrator"
)

func runCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark for every enabled scenario, scale and concurrency level.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			inMemory, err := cmd.Flags().GetBool("in-memory")
			if err != nil {
				return err
			}
			return runBenchmark(cmd, config, inMemory)
		},
	}

	cmd.Flags().Bool("in-memory", false, "Run against in-memory stores instead of MongoDB and PostgreSQL.")
	cmd.Flags().StringSlice("scenario", []string{}, "Scenario to run, overriding benchmark.enabled_scenarios (repeatable).")
	cmd.Flags().Uint16("metrics-port", 0, "Serve Prometheus metrics on this port, overriding metrics.port. 0 disables.")
	bindPFlag(v, "benchmark.enabled_scenarios", cmd.Flags().Lookup("scenario"))
	bindPFlag(v, "metrics.port", cmd.Flags().Lookup("metrics-port"))

	return cmd
}

func runBenchmark(cmd *cobra.Command, config configuration.BenchmarkConfig, inMemory bool) error {
	ctx, cancel := app.CreateContextWithShutdown()
	defer cancel()

	// Phase metrics live in their own registry so that repeated runs in one process do not collide.
	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	if config.Metrics.Port > 0 {
		shutdown, err := serve.ServeMetrics(config.Metrics.Port, prometheus.Gatherers{prometheus.DefaultGatherer, registry})
		if err != nil {
			return err
		}
		defer shutdown()
	}

	var connector orchestrator.Connector = orchestrator.NewDatabaseConnector(config)
	if inMemory {
		log.Info("Running against in-memory stores")
		connector = orchestrator.MemoryConnector{}
	}

	runner := orchestrator.NewRunner(config, connector,
		orchestrator.WithRecorder(recorder),
		orchestrator.WithSummaryOutput(cmd.OutOrStdout()),
	)
	dirs, err := runner.Run(ctx)
	for _, dir := range dirs {
		log.Infof("Results written to %s", dir)
	}
	if err != nil {
		log.WithStacktrace(err).Error("docbench failed")
	}
	return err
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mrscrape/docbench/internal/common"
	commonconfig "github.com/mrscrape/docbench/internal/common/config"
	"github.com/mrscrape/docbench/internal/docbench/build"
	"github.com/mrscrape/docbench/internal/docbench/configuration"
)

const (
	CustomConfigLocation = "config"
	defaultConfigPath    = "./config/docbench"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "docbench",
		SilenceUsage: true,
		Short:        "docbench compares MongoDB and PostgreSQL on the same order/item workload.",
		Long: `docbench compares MongoDB and PostgreSQL on the same order/item workload.

The base configuration is read from ./config/docbench/config.yaml. Further files given with --config are
merged over it in order, and DOCBENCH_-prefixed environment variables override both, e.g.
DOCBENCH_POSTGRESQL_PASSWORD.`,
	}

	cmd.PersistentFlags().StringSlice(
		CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")

	cmd.AddCommand(
		runCmd(),
		validateConfigCmd(),
		aggregateCmd(),
		versionCmd(),
	)

	return cmd
}

// loadConfig reads and validates the configuration. Validation failures are logged per field.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (configuration.BenchmarkConfig, error) {
	var config configuration.BenchmarkConfig
	userSpecifiedConfigs, err := cmd.Flags().GetStringSlice(CustomConfigLocation)
	if err != nil {
		return config, err
	}
	if err := common.LoadConfig(v, &config, defaultConfigPath, userSpecifiedConfigs); err != nil {
		commonconfig.LogValidationErrors(err)
		return config, err
	}
	if err := config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		return config, err
	}
	return config, nil
}

func bindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func validateConfigCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Check the configuration and print the runs it describes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			runs := len(config.EnabledScenarios()) * len(config.Benchmark.Scales) * len(config.Benchmark.ConcurrencyLevels)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 1, 1, ' ', 0)
			fmt.Fprintf(w, "Scenarios:\t%v\n", config.EnabledScenarios())
			fmt.Fprintf(w, "Scales:\t%v\n", config.Benchmark.Scales)
			fmt.Fprintf(w, "Concurrency levels:\t%v\n", config.Benchmark.ConcurrencyLevels)
			fmt.Fprintf(w, "Runs:\t%d\n", runs)
			fmt.Fprintf(w, "Results directory:\t%s\n", config.Output.ResultsDir)
			fmt.Fprintln(w, "Configuration is valid")
			return w.Flush()
		},
	}
	return cmd
}

// Print version info and exit.
func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 1, 1, ' ', 0)
			fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
			fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
			fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
			fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
			return w.Flush()
		},
	}
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"

	log "github.com/mrscrape/docbench/internal/common/logging"
	"github.com/mrscrape/docbench/internal/docbench/report"
)

// Merge several results.csv files into one table with a column per run.
func aggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate --output merged.csv results1.csv [results2.csv ...]",
		Short: "Merge the results.csv files of several runs into one table.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			if err := report.Aggregate(output, args); err != nil {
				return err
			}
			log.Infof("Merged %d result files into %s", len(args), output)
			return nil
		},
	}

	cmd.Flags().String("output", "", "Path of the merged CSV file.")
	if err := cmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}

	return cmd
}

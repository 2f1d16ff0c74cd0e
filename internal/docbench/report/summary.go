package report

import (
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// PrintSummary prints the throughput and median latency of every operation side by side.
func PrintSummary(out io.Writer, results *BenchmarkResults) error {
	w := tabwriter.NewWriter(out, 1, 1, 2, ' ', 0)
	printer.Fprintf(w, "%s / %s / concurrency %d\n", results.Scenario, results.Scale, results.Concurrency)
	printer.Fprintf(w, "Operation")
	for _, storeName := range Stores {
		printer.Fprintf(w, "\t%s ops/s\t%s p50 ms", storeTitle(storeName), storeTitle(storeName))
	}
	printer.Fprintf(w, "\tFailures\n")
	for _, operation := range results.Complete() {
		printer.Fprintf(w, "%s", operation)
		failures := 0
		for _, storeName := range Stores {
			result, _ := results.Get(operation, storeName)
			printer.Fprintf(w, "\t%.2f\t%.2f", result.ThroughputOpsSec, result.P50)
			failures += result.Failures
		}
		printer.Fprintf(w, "\t%d\n", failures)
	}
	return errors.WithStack(w.Flush())
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

// markdownMetrics is the subset of Metrics shown in results.md.
var markdownMetrics = Metrics[:4]

var storeTitles = map[string]string{
	store.StorePostgres: "PostgreSQL",
	store.StoreMongo:    "MongoDB",
}

// WriteMarkdown writes a header naming the run followed by a latency table and a task accounting table.
func WriteMarkdown(w io.Writer, results *BenchmarkResults) error {
	var sb strings.Builder
	sb.WriteString("# Benchmark Results\n\n")
	fmt.Fprintf(&sb, "**Scenario:** %s\n", results.Scenario)
	fmt.Fprintf(&sb, "**Scale:** %s\n", results.Scale)
	fmt.Fprintf(&sb, "**Concurrency:** %d\n\n", results.Concurrency)

	sb.WriteString("| Operation | Metric |")
	for _, storeName := range Stores {
		fmt.Fprintf(&sb, " %s |", storeTitle(storeName))
	}
	sb.WriteString("\n|-----------|--------|")
	for range Stores {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")

	operations := results.Complete()
	for _, operation := range operations {
		for _, metric := range markdownMetrics {
			fmt.Fprintf(&sb, "| %s | %s |", operation, metric.Name)
			for _, storeName := range Stores {
				result, _ := results.Get(operation, storeName)
				fmt.Fprintf(&sb, " %s |", formatValue(metric.Value(result)))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n## Tasks\n\n")
	sb.WriteString("| Operation | Store | Samples | Failures | Skipped | Timed out |\n")
	sb.WriteString("|-----------|-------|---------|----------|---------|-----------|\n")
	for _, operation := range operations {
		for _, storeName := range Stores {
			result, _ := results.Get(operation, storeName)
			fmt.Fprintf(&sb, "| %s | %s | %d | %d | %d | %s |\n",
				operation, storeTitle(storeName), result.Samples, result.Failures, result.Skipped, timedOut(result))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return errors.WithStack(err)
}

func storeTitle(storeName string) string {
	if title, ok := storeTitles[storeName]; ok {
		return title
	}
	return storeName
}

func timedOut(result metrics.OperationResult) string {
	if result.TimedOut {
		return "yes"
	}
	return "no"
}

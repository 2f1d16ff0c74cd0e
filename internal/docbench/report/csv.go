package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/docbench/metrics"
)

// Metric is one row of the report per operation.
type Metric struct {
	Name  string
	Value func(metrics.OperationResult) float64
}

var Metrics = []Metric{
	{Name: "throughput_ops_sec", Value: func(r metrics.OperationResult) float64 { return r.ThroughputOpsSec }},
	{Name: "p50_ms", Value: func(r metrics.OperationResult) float64 { return r.P50 }},
	{Name: "p95_ms", Value: func(r metrics.OperationResult) float64 { return r.P95 }},
	{Name: "p99_ms", Value: func(r metrics.OperationResult) float64 { return r.P99 }},
	{Name: "avg_ms", Value: func(r metrics.OperationResult) float64 { return r.Mean }},
	{Name: "min_ms", Value: func(r metrics.OperationResult) float64 { return r.Min }},
	{Name: "max_ms", Value: func(r metrics.OperationResult) float64 { return r.Max }},
}

var csvHeader = append([]string{"operation", "metric"}, Stores...)

// WriteCSV writes one row per operation and metric, with a column per store. Operations missing a result for
// either store are left out.
func WriteCSV(w io.Writer, results *BenchmarkResults) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errors.WithStack(err)
	}
	for _, operation := range results.Complete() {
		for _, metric := range Metrics {
			row := []string{operation, metric.Name}
			for _, storeName := range Stores {
				result, _ := results.Get(operation, storeName)
				row = append(row, formatValue(metric.Value(result)))
			}
			if err := writer.Write(row); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	writer.Flush()
	return errors.WithStack(writer.Error())
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

func testResults() *BenchmarkResults {
	results := NewBenchmarkResults("scenario1", "small", 10)
	results.Add("insert", store.StorePostgres, metrics.OperationResult{
		Samples: 100, ThroughputOpsSec: 1234.567, P50: 1.5, P95: 3.25, P99: 4.999, Mean: 1.75, Min: 0.5, Max: 7,
	})
	results.Add("insert", store.StoreMongo, metrics.OperationResult{
		Samples: 98, Failures: 2, ThroughputOpsSec: 2000, P50: 0.75, P95: 1, P99: 2, Mean: 0.8, Min: 0.1, Max: 3,
	})
	results.Add("append", store.StorePostgres, metrics.OperationResult{Samples: 10, ThroughputOpsSec: 10})
	results.Add("append", store.StoreMongo, metrics.OperationResult{Samples: 10, ThroughputOpsSec: 20, TimedOut: true})
	// Only one store: left out of every report.
	results.Add("count", store.StorePostgres, metrics.OperationResult{Samples: 1})
	return results
}

func TestBenchmarkResults_Order(t *testing.T) {
	results := testResults()
	assert.Equal(t, []string{"insert", "append", "count"}, results.Operations())
	assert.Equal(t, []string{"insert", "append"}, results.Complete())

	_, ok := results.Get("count", store.StoreMongo)
	assert.False(t, ok)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+2*len(Metrics))
	assert.Equal(t, []string{"operation", "metric", "postgresql", "mongodb"}, records[0])
	assert.Equal(t, []string{"insert", "throughput_ops_sec", "1234.57", "2000.00"}, records[1])
	assert.Equal(t, []string{"insert", "p50_ms", "1.50", "0.75"}, records[2])
	assert.Equal(t, []string{"insert", "p95_ms", "3.25", "1.00"}, records[3])
	assert.Equal(t, []string{"insert", "p99_ms", "5.00", "2.00"}, records[4])
	assert.Equal(t, []string{"insert", "avg_ms", "1.75", "0.80"}, records[5])
	assert.Equal(t, []string{"insert", "min_ms", "0.50", "0.10"}, records[6])
	assert.Equal(t, []string{"insert", "max_ms", "7.00", "3.00"}, records[7])
	assert.Equal(t, []string{"append", "throughput_ops_sec", "10.00", "20.00"}, records[8])
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, testResults()))
	md := buf.String()

	assert.Contains(t, md, "**Scenario:** scenario1\n")
	assert.Contains(t, md, "**Scale:** small\n")
	assert.Contains(t, md, "**Concurrency:** 10\n")
	assert.Contains(t, md, "| Operation | Metric | PostgreSQL | MongoDB |\n")
	assert.Contains(t, md, "| insert | p99_ms | 5.00 | 2.00 |\n")
	assert.NotContains(t, md, "avg_ms")
	assert.NotContains(t, md, "| count |")
	assert.Contains(t, md, "| insert | MongoDB | 98 | 2 | 0 | no |\n")
	assert.Contains(t, md, "| append | MongoDB | 10 | 0 | 0 | yes |\n")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, testResults()))
	out := buf.String()

	assert.Contains(t, out, "scenario1 / small / concurrency 10")
	assert.Contains(t, out, "1,234.57")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "insert"))
	assert.True(t, strings.HasSuffix(lines[2], "2"))
}

func TestWriteAndDir(t *testing.T) {
	results := testResults()
	startedAt := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	dir := Dir(t.TempDir(), results, startedAt)
	assert.Equal(t, "scenario1-small-c10-20250304-050607", filepath.Base(dir))

	require.NoError(t, Write(dir, results))
	assert.FileExists(t, filepath.Join(dir, CSVFile))
	assert.FileExists(t, filepath.Join(dir, MarkdownFile))
}

func TestAggregate(t *testing.T) {
	root := t.TempDir()
	writeResults := func(name string, results *BenchmarkResults) string {
		dir := filepath.Join(root, name)
		require.NoError(t, Write(dir, results))
		return filepath.Join(dir, CSVFile)
	}
	first := writeResults("run-a", testResults())
	second := NewBenchmarkResults("scenario2", "small", 1)
	second.Add("count", store.StorePostgres, metrics.OperationResult{ThroughputOpsSec: 42})
	second.Add("count", store.StoreMongo, metrics.OperationResult{ThroughputOpsSec: 24})
	secondPath := writeResults("run-b", second)

	output := filepath.Join(root, "merged.csv")
	require.NoError(t, Aggregate(output, []string{first, secondPath}))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"operation", "metric", "store", "run-a", "run-b"}, records[0])
	// Two complete operations from the first run and one from the second, each with two stores.
	require.Len(t, records, 1+3*len(Metrics)*2)
	assert.Equal(t, []string{"insert", "throughput_ops_sec", "postgresql", "1234.57", "N/A"}, records[1])
	assert.Equal(t, []string{"insert", "throughput_ops_sec", "mongodb", "2000.00", "N/A"}, records[2])

	var countRow []string
	for _, record := range records {
		if record[0] == "count" && record[1] == "throughput_ops_sec" && record[2] == "mongodb" {
			countRow = record
		}
	}
	assert.Equal(t, []string{"count", "throughput_ops_sec", "mongodb", "N/A", "24.00"}, countRow)
}

func TestAggregate_Errors(t *testing.T) {
	root := t.TempDir()
	assert.Error(t, Aggregate(filepath.Join(root, "out.csv"), nil))
	assert.Error(t, Aggregate(filepath.Join(root, "out.csv"), []string{filepath.Join(root, "missing.csv")}))

	bogus := filepath.Join(root, "bogus.csv")
	require.NoError(t, os.WriteFile(bogus, []byte("a,b\n1,2\n"), 0o644))
	assert.Error(t, Aggregate(filepath.Join(root, "out.csv"), []string{bogus}))
}

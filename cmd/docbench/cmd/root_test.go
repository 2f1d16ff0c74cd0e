package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/report"
)

const testConfigTemplate = `
benchmark:
  scales: [tiny]
  custom_scales:
    tiny:
      order_count: 100
      items_per_order_min: 1
      items_per_order_max: 3
      unit_price_min: 1.50
      unit_price_max: 20.00
      quantity_min: 1
      quantity_max: 2
  concurrency_levels: [2]
  enabled_scenarios: [scenario1, scenario2]
  total_operations: 20
  phase_timeout: 1m
  retry:
    max_attempts: 1
    initial_backoff: 1ms
  connection_pool:
    min_size: 1
    max_size: 4
scenarios:
  scenario1:
    mongodb_uri: mongodb://localhost:27017
    postgres_host: localhost:5432
  scenario2:
    mongodb_uri: mongodb://localhost:27017
    postgres_host: localhost:5432
mongodb:
  database: benchmark
postgresql:
  database: benchmark
  user: postgres
output:
  results_dir: RESULTS_DIR
`

func writeTestConfig(t *testing.T, resultsDir string, edit func(string) string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.ReplaceAll(testConfigTemplate, "RESULTS_DIR", resultsDir)
	if edit != nil {
		content = edit(content)
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateConfig(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), nil)

	out, err := execute(t, "validate-config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Runs:")
	assert.Contains(t, out, "[scenario1 scenario2]")
	assert.Contains(t, out, "Configuration is valid")
}

func TestValidateConfig_Invalid(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), func(s string) string {
		return strings.Replace(s, "scales: [tiny]", "scales: [huge]", 1)
	})

	_, err := execute(t, "validate-config", "--config", path)
	require.Error(t, err)
	assert.Equal(t, benchmarkerrors.KindFatalConfig, benchmarkerrors.KindFromError(err))
}

func TestValidateConfig_MissingFile(t *testing.T) {
	_, err := execute(t, "validate-config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, benchmarkerrors.KindFatalConfig, benchmarkerrors.KindFromError(err))
}

func TestRunInMemory(t *testing.T) {
	resultsDir := t.TempDir()
	path := writeTestConfig(t, resultsDir, nil)

	out, err := execute(t, "run", "--in-memory", "--config", path, "--scenario", "scenario2")
	require.NoError(t, err)
	assert.Contains(t, out, "scenario2 / tiny / concurrency 2")
	assert.NotContains(t, out, "scenario1")

	entries, err := os.ReadDir(resultsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "scenario2-tiny-c2-"))
	assert.FileExists(t, filepath.Join(resultsDir, entries[0].Name(), report.CSVFile))

	merged := filepath.Join(t.TempDir(), "merged.csv")
	_, err = execute(t, "aggregate", "--output", merged, filepath.Join(resultsDir, entries[0].Name(), report.CSVFile))
	require.NoError(t, err)
	assert.FileExists(t, merged)
}

func TestAggregate_RequiresOutput(t *testing.T) {
	_, err := execute(t, "aggregate", "results.csv")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Go version:")
}

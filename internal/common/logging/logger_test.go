package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithField(t *testing.T) {
	logger, buf := testLogger()

	newLogger := logger.WithField("foo", "bar")
	newLogger.Info("test message")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "test message", entries[0]["message"])
	assert.Equal(t, "bar", entries[0]["foo"])
}

func TestWithFields(t *testing.T) {
	logger, buf := testLogger()

	newLogger := logger.WithFields(map[string]any{
		"user":   "test_user",
		"action": "test_action",
	})
	newLogger.Info("test message")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "test message", entries[0]["message"])
	assert.Equal(t, "test_user", entries[0]["user"])
	assert.Equal(t, "test_action", entries[0]["action"])
}

func TestWithError(t *testing.T) {
	logger, buf := testLogger()
	err := errors.New("test error")

	newLogger := logger.WithError(err)
	newLogger.Error("error occurred")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "error", entries[0]["level"])
	assert.Equal(t, "test error", entries[0]["error"])
}

func TestWithStacktrace(t *testing.T) {
	logger, buf := testLogger()
	err := errors.WithStack(errors.New("test error"))

	newLogger := logger.WithStacktrace(err)
	newLogger.Error("error occurred")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1, "Expected exactly one log entry")
	assert.Equal(t, "test error", entries[0]["error"])
	assert.Contains(t, entries[0][Stacktrace], "logger_test.go")
}

func TestWithStacktrace_NoStack(t *testing.T) {
	logger, buf := testLogger()

	logger.WithStacktrace(stackless("plain")).Warn("careful")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "plain", entries[0]["error"])
	assert.NotContains(t, entries[0], Stacktrace)
}

func TestFormattedLevels(t *testing.T) {
	logger, buf := testLogger()

	logger.Debugf("a %d", 1)
	logger.Infof("b %d", 2)
	logger.Warnf("c %d", 3)
	logger.Errorf("d %d", 4)

	entries := parseEntries(t, buf)
	require.Len(t, entries, 4)
	assert.Equal(t, []string{"debug", "info", "warn", "error"}, []string{
		entries[0]["level"].(string),
		entries[1]["level"].(string),
		entries[2]["level"].(string),
		entries[3]["level"].(string),
	})
	assert.Equal(t, "d 4", entries[3]["message"])
}

func TestFilteredLevelWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := FromZerolog(zerolog.New(zerolog.MultiLevelWriter(createJsonWriter(buf, zerolog.WarnLevel))))

	logger.Info("dropped")
	logger.Warn("kept")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["message"])
}

func TestPrometheusHook(t *testing.T) {
	registry := prometheus.NewRegistry()
	hook := NewPrometheusHook(registry)
	buf := &bytes.Buffer{}
	logger := FromZerolog(zerolog.New(buf).Hook(hook))

	logger.Info("one")
	logger.Info("two")
	logger.Error("three")

	assert.Equal(t, 2.0, testutil.ToFloat64(hook.lines.WithLabelValues("info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.lines.WithLabelValues("error")))
	assert.Equal(t, 2, testutil.CollectAndCount(hook.lines))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validate(DefaultConfig()))

	badFormat := DefaultConfig()
	badFormat.Console.Format = "xml"
	assert.Error(t, validate(badFormat))

	badLevel := DefaultConfig()
	badLevel.Console.Level = "loud"
	assert.Error(t, validate(badLevel))

	noFile := DefaultConfig()
	noFile.File.Enabled = true
	noFile.File.Level = "debug"
	noFile.File.Format = FormatJSON
	assert.Error(t, validate(noFile))
}

type stackless string

func (s stackless) Error() string { return string(s) }

func testLogger() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return FromZerolog(zerolog.New(buf).Level(zerolog.DebugLevel)), buf
}

func parseEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	decoder := json.NewDecoder(buf)
	for decoder.More() {
		entry := map[string]any{}
		require.NoError(t, decoder.Decode(&entry))
		entries = append(entries, entry)
	}
	return entries
}

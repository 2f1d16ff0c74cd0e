package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// stdLogger backs the package-level functions. It writes colourful console output to stderr until
// ConfigureApplicationLogging replaces it; stdout is left to command output such as run summaries.
var stdLogger = FromZerolog(zerolog.New(createConsoleWriter(os.Stderr, zerolog.DebugLevel, FormatColourful)).
	With().
	Timestamp().
	Logger())

// ReplaceStdLogger swaps the logger behind the package-level functions. Call it once, before any goroutines log.
func ReplaceStdLogger(l *Logger) {
	stdLogger = l
}

func Info(args ...any) {
	stdLogger.Info(args...)
}

func Infof(format string, args ...any) {
	stdLogger.Infof(format, args...)
}

func Warn(args ...any) {
	stdLogger.Warn(args...)
}

func Warnf(format string, args ...any) {
	stdLogger.Warnf(format, args...)
}

func Error(args ...any) {
	stdLogger.Error(args...)
}

func Errorf(format string, args ...any) {
	stdLogger.Errorf(format, args...)
}

// WithField returns the standard logger with one extra field.
func WithField(key string, value any) *Logger {
	return stdLogger.WithField(key, value)
}

// WithFields returns the standard logger with every key-value pair of args added as a field.
func WithFields(args map[string]any) *Logger {
	return stdLogger.WithFields(args)
}

func WithError(err error) *Logger {
	return stdLogger.WithError(err)
}

// WithStacktrace returns the standard logger with err and, if err carries one, its stack trace.
func WithStacktrace(err error) *Logger {
	return stdLogger.WithStacktrace(err)
}

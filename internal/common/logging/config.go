package logging

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
)

type LogFormat string

const (
	FormatText      LogFormat = "text"
	FormatColourful LogFormat = "colourful"
	FormatJSON      LogFormat = "json"
)

var validLogFormats = map[LogFormat]bool{
	FormatText:      true,
	FormatColourful: true,
	FormatJSON:      true,
}

// Config defines docbench logging configuration.
type Config struct {
	// Defines configuration for console logging on stdout
	Console struct {
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, either text, colourful or json
		Format LogFormat `yaml:"format"`
	} `yaml:"console"`
	// Defines configuration for file logging
	File struct {
		// Whether file logging is enabled.
		Enabled bool `yaml:"enabled"`
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, either text or json
		Format LogFormat `yaml:"format"`
		// The Location of the logfile on disk
		LogFile string `yaml:"logfile"`
		// Log Rotation Options
		Rotation struct {
			// Whether Log Rotation is enabled
			Enabled bool `yaml:"enabled"`
			// Maximum size in megabytes of the log file before it gets rotated
			MaxSizeMb int `yaml:"maxSizeMb"`
			// Maximum number of old log files to retain
			MaxBackups int `yaml:"maxBackups"`
			// Maximum number of days to retain old log files
			MaxAgeDays int `yaml:"maxAgeDays"`
			// Whether to compress rotated log files
			Compress bool `yaml:"compress"`
		} `yaml:"rotation"`
	} `yaml:"file"`
}

// DefaultConfig logs at info level to the console only.
func DefaultConfig() Config {
	c := Config{}
	c.Console.Level = "info"
	c.Console.Format = FormatColourful
	return c
}

func validate(c Config) error {
	_, err := parseLogLevel(c.Console.Level)
	if err != nil {
		return err
	}

	err = validateLogFormat(c.Console.Format)
	if err != nil {
		return err
	}

	if c.File.Enabled {
		_, err := parseLogLevel(c.File.Level)
		if err != nil {
			return err
		}

		err = validateLogFormat(c.File.Format)
		if err != nil {
			return err
		}

		if c.File.LogFile == "" {
			return errors.New("file.logfile must be set when file logging is enabled")
		}

		rotation := c.File.Rotation
		if rotation.Enabled {
			if rotation.MaxSizeMb <= 0 {
				return errors.New("rotation.maxSizeMb must be greater than zero")
			}
			if rotation.MaxBackups <= 0 {
				return errors.New("rotation.maxBackups must be greater than zero")
			}
			if rotation.MaxAgeDays <= 0 {
				return errors.New("rotation.maxAgeDays must be greater than zero")
			}
		}
	}

	return nil
}

func validateLogFormat(f LogFormat) error {
	_, ok := validLogFormats[f]
	if !ok {
		formats := maps.Keys(validLogFormats)
		sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, formats)
	}
	return nil
}

func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "panic":
		return zerolog.PanicLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.InfoLevel, errors.Errorf("unknown level: %s", level)
	}
}

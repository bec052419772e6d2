// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogLevel is consulted when no level is configured explicitly.
const EnvLogLevel = "LOG_LEVEL"

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
// Only errors are logged unless asked otherwise, so the CLI output stays clean.
func DefaultConfig() Config {
	return Config{
		Level:  LevelError,
		Pretty: true,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// ParseLevel validates a level name. An empty name falls back to $LOG_LEVEL
// and then to LevelError.
func ParseLevel(name string) (LogLevel, error) {
	if name == "" {
		name = os.Getenv(EnvLogLevel)
	}
	if name == "" {
		return LevelError, nil
	}

	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "critical":
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid log level: %s", name)
	}
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.ErrorLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual requests and pages
//   - Quota state updates (healthy)
//   - Term weights
//
// Info: Normal operation events
//   - Expected active listing count per shop
//   - Backoff waits after rate limiting
//   - Shop fetch completion
//
// Warn: Warning conditions that don't prevent operation
//   - Non-200 responses
//   - Low quota
//   - Failed active listing count lookups
//
// Error: Error conditions requiring attention
//   - Failed shop fetches (after retries)
//   - Exhausted quota
//
// Context Fields:
//   - shop_id: Etsy shop ID
//   - fetch_id: Correlation ID of one shop fetch
//   - endpoint: Etsy endpoint label
//   - status: HTTP status code
//   - error_class: Error classification (rate_limit, api, network, decode)
//   - operation, args, attempt, wait: Retry backoff events

// Package logging configures the process-wide zerolog logger.
//
// Packages log through github.com/rs/zerolog/log, or through zerolog.Ctx(ctx) on
// request paths so that the request ID travels with every line.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error
	Level string `koanf:"level"`

	// Format is json or console
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller adds file:line to every entry
	Caller bool `koanf:"caller"`

	Output io.Writer `koanf:"-"`
}

// Init replaces the global logger and the default context logger
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Format == "" || cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).With().Timestamp()
	if cfg.Caller {
		logger = logger.Caller()
	}

	log.Logger = logger.Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

// ParseLevel converts a level name; an empty name means info
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// GenerateRequestID creates a new unique request ID
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns ctx carrying a child of the global logger tagged with id
func WithRequestID(ctx context.Context, id string) context.Context {
	return log.Logger.With().Str("request_id", id).Logger().WithContext(ctx)
}

package utils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// Level sets the minimum log level (debug, info, warn, error, fatal, panic)
	Level string
	// Pretty enables console output for operators running the migrator by hand
	Pretty bool
	// CallerInfo adds file and line number to logs
	CallerInfo bool
	// LogFile appends logs to a file instead of stderr
	LogFile string
}

// NewLogger creates a logger from config. The returned closer releases the log
// file, if one was opened; it is always safe to call.
func NewLogger(config LoggerConfig) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}

	var output io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if config.LogFile != "" {
		if file, err := openLogFile(config.LogFile); err == nil {
			output = file
			closer = file
		}
	}

	if config.Pretty && config.LogFile == "" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(output).
		Level(level).
		With().
		Timestamp()
	if config.CallerInfo {
		ctx = ctx.Caller()
	}

	return ctx.Logger(), closer
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupGlobalLogger installs a logger built from config as the zerolog global logger
func SetupGlobalLogger(config LoggerConfig) io.Closer {
	logger, closer := NewLogger(config)
	log.Logger = logger
	return closer
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext retrieves the logger from the context
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// ForRun tags every entry with the migration run identifier
func ForRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// ForColumn tags every entry with the table and column being normalized
func ForColumn(logger zerolog.Logger, table, column string) zerolog.Logger {
	return logger.With().Str("table", table).Str("column", column).Logger()
}

// WithError adds an error field, and the SQLSTATE when the server reported one
func WithError(logger zerolog.Logger, err error) *zerolog.Logger {
	ctx := logger.With().Err(err)
	if code := SQLState(err); code != "" {
		ctx = ctx.Str("sqlstate", code)
	}
	l := ctx.Logger()
	return &l
}

package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LoggerConfig
		check  func(t *testing.T, buf *bytes.Buffer)
	}{
		{
			name:   "JSON output with info level",
			config: LoggerConfig{Level: "info"},
			check: func(t *testing.T, buf *bytes.Buffer) {
				entry := decodeEntry(t, buf)
				assert.Equal(t, "info", entry["level"])
				assert.Equal(t, "test message", entry["message"])
				assert.Contains(t, entry, "time")
			},
		},
		{
			name:   "With caller info",
			config: LoggerConfig{Level: "info", CallerInfo: true},
			check: func(t *testing.T, buf *bytes.Buffer) {
				assert.Contains(t, decodeEntry(t, buf), "caller")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, closer := NewLogger(tt.config)
			defer closer.Close()
			logger = logger.Output(buf)

			logger.Info().Msg("test message")

			tt.check(t, buf)
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := NewLogger(LoggerConfig{Level: "invalid"})
	logger = logger.Output(buf)

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	assert.NotContains(t, buf.String(), "debug message")
	assert.Contains(t, buf.String(), "info message")
}

func TestNewLogger_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "migrate.log")

	logger, closer := NewLogger(LoggerConfig{Level: "info", LogFile: path})
	logger.Info().Msg("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestWithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)

	ctx := WithContext(context.Background(), logger)
	fromCtx := FromContext(ctx)
	require.NotNil(t, fromCtx)

	fromCtx.Info().Msg("context test")
	assert.Contains(t, buf.String(), "context test")
}

func TestForRunAndColumn(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := ForColumn(ForRun(zerolog.New(buf), "run-1"), "users", "created_at")

	logger.Info().Msg("normalizing")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "users", entry["table"])
	assert.Equal(t, "created_at", entry["column"])
}

func TestWithError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		WithError(zerolog.New(buf), assert.AnError).Error().Msg("failed")

		entry := decodeEntry(t, buf)
		assert.Equal(t, assert.AnError.Error(), entry["error"])
		assert.NotContains(t, entry, "sqlstate")
	})

	t.Run("postgres error carries sqlstate", func(t *testing.T) {
		buf := &bytes.Buffer{}
		pgErr := &pgconn.PgError{Code: "42703", Message: `column "user_id" does not exist`}
		err := WrapStatementError("users", "user_id", "ALTER TABLE", pgErr)
		WithError(zerolog.New(buf), err).Error().Msg("failed")

		entry := decodeEntry(t, buf)
		assert.Equal(t, "42703", entry["sqlstate"])
	})

	t.Run("wrapped twice", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "55P03"}
		err := errors.Join(errors.New("outer"), pgErr)
		assert.Equal(t, "55P03", SQLState(err))
	})
}

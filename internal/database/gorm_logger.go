package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlowStatementThreshold marks statements worth a warning; DDL waiting on a
// table lock shows up here first.
const SlowStatementThreshold = 2 * time.Second

// gormLogger routes gorm's SQL trace into zerolog
type gormLogger struct {
	logger zerolog.Logger
	level  logger.LogLevel
	slow   time.Duration
}

// NewGormLogger returns a gorm logger writing to l at the given gorm level
func NewGormLogger(l zerolog.Logger, level logger.LogLevel) logger.Interface {
	return &gormLogger{
		logger: l.With().Str("component", "gorm").Logger(),
		level:  level,
		slow:   SlowStatementThreshold,
	}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Info {
		g.logger.Info().Msg(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Warn {
		g.logger.Warn().Msg(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Error {
		g.logger.Error().Msg(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.logger.Error().
			Err(err).
			Str("statement", sql).
			Int64("rows_affected", rows).
			Dur("elapsed", elapsed).
			Msg("SQL statement failed")
	case elapsed > g.slow && g.level >= logger.Warn:
		sql, rows := fc()
		g.logger.Warn().
			Str("statement", sql).
			Int64("rows_affected", rows).
			Dur("elapsed", elapsed).
			Msg("Slow SQL statement")
	case g.level >= logger.Info:
		sql, rows := fc()
		g.logger.Debug().
			Str("statement", sql).
			Int64("rows_affected", rows).
			Dur("elapsed", elapsed).
			Msg("SQL statement")
	}
}

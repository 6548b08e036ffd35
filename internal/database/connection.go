package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ksred/reservations-migrate/internal/config"
	"github.com/ksred/reservations-migrate/internal/utils"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultHealthTimeout bounds the startup ping
const DefaultHealthTimeout = 5 * time.Second

// Database manages the database connection
type Database struct {
	db     *gorm.DB
	config config.Database
	logger zerolog.Logger
	mu     sync.RWMutex
}

// NewDatabase creates a new Database instance
func NewDatabase(cfg config.Database, logger zerolog.Logger) *Database {
	return &Database{
		config: cfg,
		logger: logger,
	}
}

// Connect establishes a connection to PostgreSQL, retrying transient failures
// with exponential backoff
func (d *Database) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	gormConfig := &gorm.Config{
		Logger: NewGormLogger(d.logger, d.getLogLevel()),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	maxRetries := d.config.ConnectRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	retryDelay := time.Second

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(d.buildDSN()), gormConfig)
		if err == nil {
			break
		}
		if !isRetryableError(err) || i == maxRetries-1 {
			break
		}

		d.logger.Warn().
			Err(err).
			Int("attempt", i+1).
			Dur("retry_in", retryDelay).
			Msg("Database connection failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
		retryDelay *= 2
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(d.config.MaxConnections)
	sqlDB.SetMaxIdleConns(d.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(d.config.ConnMaxLifetime)

	d.db = db
	return nil
}

// Open connects and verifies the connection within the health timeout
func (d *Database) Open(ctx context.Context, healthTimeout time.Duration) error {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	return d.Verify(ctx, healthTimeout)
}

// Verify pings the database and closes the pool when the ping fails
func (d *Database) Verify(ctx context.Context, timeout time.Duration) error {
	healthCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.Health(healthCtx); err != nil {
		if closeErr := d.Close(); closeErr != nil {
			d.logger.Warn().Err(closeErr).Msg("Failed to close database after failed health check")
		}
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Health checks the database connection health
func (d *Database) Health(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return utils.ErrNotConnected
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	d.db = nil
	return nil
}

// DB returns the underlying gorm.DB instance
func (d *Database) DB() *gorm.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// SetDB sets the underlying gorm.DB instance (for testing)
func (d *Database) SetDB(db *gorm.DB) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.db = db
}

// Catalog returns a Postgres catalog over the connection
func (d *Database) Catalog(schema string, lockTimeout time.Duration) (*PostgresCatalog, error) {
	db := d.DB()
	if db == nil {
		return nil, utils.ErrNotConnected
	}
	return NewPostgresCatalog(db, schema, lockTimeout), nil
}

// buildDSN constructs the PostgreSQL connection URL from config, filling in
// defaults for unset fields
func (d *Database) buildDSN() string {
	c := d.config
	c.Host = valueOr(c.Host, "localhost")
	if c.Port == 0 {
		c.Port = 5432
	}
	c.User = valueOr(c.User, "postgres")
	c.DBName = valueOr(c.DBName, "postgres")
	c.SSLMode = valueOr(c.SSLMode, "disable")
	c.TimeZone = valueOr(c.TimeZone, "UTC")
	return c.URL()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// getLogLevel returns the GORM log level from config
func (d *Database) getLogLevel() logger.LogLevel {
	switch d.config.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Error
	}
}

// isRetryableError determines if a connection error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"too many connections",
		"connection timeout",
		"timeout",
		"the database system is starting up",
		"no such host",
	}

	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	return false
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ksred/reservations-migrate/internal/config"
	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/database/migrations"
	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/utils"
	"github.com/rs/zerolog"
)

const version = "v1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		dryRun     bool
		bootstrap  bool
		schema     string
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&dryRun, "dry-run", false, "Print corrective statements without executing them")
	flag.BoolVar(&bootstrap, "bootstrap", false, "Create missing users, tables and bookings tables first")
	flag.StringVar(&schema, "schema", "", "Schema holding the booking tables (default from config, then public)")
	flag.Parse()

	cfg, err := loadConfiguration(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Explicit flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dry-run":
			cfg.Migration.DryRun = dryRun
		case "bootstrap":
			cfg.Migration.Bootstrap = bootstrap
		case "schema":
			cfg.Migration.Schema = schema
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logger, closer := setupLogging(cfg)
	defer closer()

	logger.Info().
		Str("version", version).
		Str("schema", cfg.Migration.Schema).
		Bool("dry_run", cfg.Migration.DryRun).
		Bool("bootstrap", cfg.Migration.Bootstrap).
		Msg("Starting reservations schema migration")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Migration.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Migration.Timeout)
		defer cancel()
	}

	db, err := connectToDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}()

	if cfg.Migration.Bootstrap {
		if cfg.Migration.DryRun {
			logger.Warn().Msg("Bootstrap skipped in dry-run mode")
		} else {
			created, err := database.Bootstrap(ctx, db.DB(), logger)
			if err != nil {
				logger.Error().Err(err).Msg("Bootstrap failed")
				return 1
			}
			logger.Info().Strs("created", created).Msg("Bootstrap completed")
		}
	}

	report, err := runMigrations(ctx, db, cfg, logger)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error().Dur("timeout", cfg.Migration.Timeout).Msg("Migration timed out")
		}
		return 1
	}

	return 0
}

// loadConfiguration loads configuration from file, .env and environment
func loadConfiguration(configPath string) (*config.Config, error) {
	return config.LoadConfig(configPath)
}

// setupLogging configures the logger based on configuration
func setupLogging(cfg *config.Config) (zerolog.Logger, func()) {
	logConfig := utils.LoggerConfig{
		Level:      cfg.Server.LogLevel,
		Pretty:     cfg.Server.Debug,
		CallerInfo: cfg.Server.Debug,
		LogFile:    cfg.Server.LogFile,
	}

	globalCloser := utils.SetupGlobalLogger(logConfig)
	logger, closer := utils.NewLogger(logConfig)
	return logger, func() {
		_ = closer.Close()
		_ = globalCloser.Close()
	}
}

// connectToDatabase establishes the connection and verifies it
func connectToDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*database.Database, error) {
	logger.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.DBName).
		Msg("Connecting to PostgreSQL database")

	db := database.NewDatabase(cfg.Database, logger)
	if err := db.Open(ctx, database.DefaultHealthTimeout); err != nil {
		return nil, err
	}

	logger.Info().Msg("Database connection established")
	return db, nil
}

// runMigrations normalizes the schema in a single transaction
func runMigrations(ctx context.Context, db *database.Database, cfg *config.Config, logger zerolog.Logger) (*models.Report, error) {
	catalog, err := db.Catalog(cfg.Migration.Schema, cfg.Migration.LockTimeout)
	if err != nil {
		return nil, err
	}

	runner := database.NewMigrationRunner(catalog, logger)
	runner.Register(migrations.GetMigrations()...)
	runner.SetDryRun(cfg.Migration.DryRun)

	return runner.Run(ctx)
}

// printReport writes a human readable summary to stdout
func printReport(report *models.Report) {
	switch {
	case report.RolledBack:
		fmt.Printf("Run %s failed; all changes rolled back.\n", report.RunID)
	case report.Compliant():
		fmt.Printf("Run %s: schema already compliant, nothing to do.\n", report.RunID)
	case report.DryRun:
		fmt.Printf("Run %s (dry run): %d statement(s) would be executed:\n", report.RunID, report.ActionCount())
	default:
		fmt.Printf("Run %s: %d statement(s) executed:\n", report.RunID, report.ActionCount())
	}

	for _, m := range report.Migrations {
		for _, a := range m.Actions {
			if report.DryRun {
				fmt.Printf("  [%s] %s;\n", m.Version, a.Statement)
				continue
			}
			fmt.Printf("  [%s] %s; -- %d row(s)\n", m.Version, a.Statement, a.RowsAffected)
		}
	}
}

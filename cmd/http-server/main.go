package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ksred/reservations-migrate/internal/api"
	"github.com/ksred/reservations-migrate/internal/config"
	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/database/migrations"
	"github.com/ksred/reservations-migrate/internal/utils"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		schema     string
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&schema, "schema", "", "Schema holding the booking tables (default from config, then public)")
	flag.Parse()

	cfg, err := loadConfiguration(configPath, schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, closer := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Server.LogLevel,
		Pretty:     cfg.Server.Debug,
		CallerInfo: cfg.Server.Debug,
		LogFile:    cfg.Server.LogFile,
	})
	defer closer.Close()

	logger.Info().
		Int("port", cfg.HTTP.Port).
		Str("schema", cfg.Migration.Schema).
		Bool("auth", cfg.JWT.Secret != "").
		Msg("Starting reservations schema inspection server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	catalog, err := db.Catalog(cfg.Migration.Schema, cfg.Migration.LockTimeout)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create catalog")
		return 1
	}

	server, err := api.NewServer(cfg, db, catalog, migrations.GetMigrations(), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create HTTP server")
		return 1
	}

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal")
	case err := <-serverErrChan:
		logger.Error().Err(err).Msg("HTTP server error")
		exitCode = 1
	}

	logger.Info().Msg("Starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to gracefully shutdown HTTP server")
	}

	logger.Info().Msg("Shutdown complete")
	return exitCode
}

// loadConfiguration loads configuration and applies the -schema override,
// validating the result again so the override obeys the same rules
func loadConfiguration(configPath, schema string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if schema != "" {
		cfg.Migration.Schema = schema
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// connectToDatabase establishes the connection and verifies it
func connectToDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*database.Database, error) {
	logger.Info().Msg("Connecting to database")

	db := database.NewDatabase(cfg.Database, logger)
	if err := db.Open(ctx, database.DefaultHealthTimeout); err != nil {
		return nil, err
	}

	logger.Info().Msg("Database connection established")
	return db, nil
}

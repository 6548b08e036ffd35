package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/utils"
	"github.com/rs/zerolog"
)

// MigrationFunc applies one migration's rules and returns the corrective
// actions it issued
type MigrationFunc func(ctx context.Context, cat Catalog, logger zerolog.Logger) ([]models.Action, error)

// Migration represents a migration to be run
type Migration struct {
	Version string
	Name    string
	Run     MigrationFunc
}

// MigrationRunner runs every registered migration on each invocation. There is
// no history table: each migration guards its own writes, so a compliant
// schema sees only reads.
type MigrationRunner struct {
	catalog    TxCatalog
	logger     zerolog.Logger
	migrations []Migration
	dryRun     bool
	now        func() time.Time
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(catalog TxCatalog, logger zerolog.Logger) *MigrationRunner {
	return &MigrationRunner{
		catalog:    catalog,
		logger:     logger,
		migrations: []Migration{},
		now:        time.Now,
	}
}

// Register adds migrations to the runner
func (r *MigrationRunner) Register(migrations ...Migration) {
	r.migrations = append(r.migrations, migrations...)
}

// SetDryRun makes Run record corrective statements without executing them
func (r *MigrationRunner) SetDryRun(dryRun bool) {
	r.dryRun = dryRun
}

// Migrations returns the registered migrations in version order
func (r *MigrationRunner) Migrations() []Migration {
	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})
	return out
}

// Run executes all migrations inside one transaction. The first failure rolls
// the whole run back; the returned report then lists what was attempted and
// has RolledBack set.
func (r *MigrationRunner) Run(ctx context.Context) (*models.Report, error) {
	report := &models.Report{
		RunID:     uuid.NewString(),
		DryRun:    r.dryRun,
		StartedAt: r.now().UTC(),
	}
	logger := utils.ForRun(r.logger, report.RunID)

	logger.Info().
		Bool("dry_run", r.dryRun).
		Int("migrations", len(r.migrations)).
		Msg("Starting schema normalization")

	err := r.catalog.Transaction(ctx, func(tx Catalog) error {
		target := tx
		if r.dryRun {
			target = NewDryRunCatalog(tx)
		}

		for _, migration := range r.Migrations() {
			mlog := logger.With().
				Str("version", migration.Version).
				Str("name", migration.Name).
				Logger()
			mlog.Debug().Msg("Running migration")

			actions, err := migration.Run(ctx, target, mlog)
			report.Migrations = append(report.Migrations, models.MigrationResult{
				Version: migration.Version,
				Name:    migration.Name,
				Actions: actions,
			})
			if err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Version, err)
			}

			if len(actions) == 0 {
				mlog.Debug().Msg("Already compliant, nothing to do")
			} else {
				mlog.Info().Int("actions", len(actions)).Msg("Migration applied corrections")
			}
		}
		return nil
	})

	report.FinishedAt = r.now().UTC()
	if err != nil {
		report.RolledBack = true
		utils.WithError(logger, err).Error().Msg("Schema normalization failed, transaction rolled back")
		return report, err
	}

	logger.Info().
		Int("actions", report.ActionCount()).
		Bool("dry_run", r.dryRun).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Schema normalization completed")

	return report, nil
}

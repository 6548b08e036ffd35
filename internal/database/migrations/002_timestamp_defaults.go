package migrations

import (
	"context"

	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/services"
	"github.com/rs/zerolog"
)

// TimestampTables are the tables whose created_at and updated_at columns must
// default to CURRENT_TIMESTAMP and hold no NULLs
var TimestampTables = []string{"users", "tables", "bookings"}

// TimestampColumns are normalized on every table in TimestampTables
var TimestampColumns = []string{"created_at", "updated_at"}

// TimestampRules returns, table by table, the default rules followed by the
// backfill rules for the timestamp columns
func TimestampRules() []models.TargetRule {
	var rules []models.TargetRule
	for _, table := range TimestampTables {
		rules = append(rules, models.DefaultAndBackfill(table, models.CurrentTimestamp, TimestampColumns...)...)
	}
	return rules
}

// NormalizeTimestampDefaults sets the timestamp defaults and fills NULLs
func NormalizeTimestampDefaults(ctx context.Context, cat database.Catalog, logger zerolog.Logger) ([]models.Action, error) {
	return services.NewNormalizer(cat, logger).Enforce(ctx, TimestampRules())
}

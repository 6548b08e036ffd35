package database

import (
	"context"
	"fmt"

	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// bootstrapModel pairs a model with the indexes it must carry
type bootstrapModel struct {
	model   interface{ TableName() string }
	indexes []string
}

// bookingSchema lists the booking tables in foreign key order
var bookingSchema = []bootstrapModel{
	{model: &models.User{}, indexes: []string{"idx_users_email", "idx_users_username"}},
	{model: &models.Table{}, indexes: []string{"idx_tables_table_number"}},
	{model: &models.Booking{}, indexes: []string{
		"idx_bookings_user_id",
		"idx_bookings_table_id",
		"idx_bookings_status",
		"idx_bookings_date",
	}},
}

// Bootstrap creates the users, tables and bookings tables when they are
// missing and ensures their indexes exist. Existing tables are never altered
// beyond index creation. It returns the names of the tables it created.
func Bootstrap(ctx context.Context, db *gorm.DB, logger zerolog.Logger) ([]string, error) {
	migrator := db.WithContext(ctx).Migrator()

	var created []string
	for _, m := range bookingSchema {
		name := m.model.TableName()

		if !migrator.HasTable(m.model) {
			if err := migrator.CreateTable(m.model); err != nil {
				return created, fmt.Errorf("failed to create table %s: %w", name, err)
			}
			created = append(created, name)
			logger.Info().Str("table", name).Msg("Created table")
			continue
		}

		for _, idx := range m.indexes {
			if migrator.HasIndex(m.model, idx) {
				continue
			}
			if err := migrator.CreateIndex(m.model, idx); err != nil {
				return created, fmt.Errorf("failed to create index %s on %s: %w", idx, name, err)
			}
			logger.Info().Str("table", name).Str("index", idx).Msg("Created index")
		}
	}

	return created, nil
}

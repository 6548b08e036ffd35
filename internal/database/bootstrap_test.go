package database

import (
	"context"
	"testing"
	"time"

	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestBootstrap_CreatesMissingTables(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	created, err := Bootstrap(ctx, db, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "tables", "bookings"}, created)

	migrator := db.Migrator()
	for _, m := range bookingSchema {
		assert.True(t, migrator.HasTable(m.model), m.model.TableName())
		for _, idx := range m.indexes {
			assert.True(t, migrator.HasIndex(m.model, idx), idx)
		}
	}
	assert.True(t, migrator.HasColumn(&models.Booking{}, "notes"))
	assert.False(t, migrator.HasColumn(&models.User{}, "user_id"))
}

func TestBootstrap_Idempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	_, err := Bootstrap(ctx, db, zerolog.Nop())
	require.NoError(t, err)

	created, err := Bootstrap(ctx, db, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestBootstrap_AddsIndexesToExistingTables(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(`CREATE TABLE tables (
		id INTEGER PRIMARY KEY,
		table_number VARCHAR(50) NOT NULL,
		capacity INTEGER NOT NULL,
		location VARCHAR(100),
		is_available BOOLEAN DEFAULT TRUE,
		description TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	created, err := Bootstrap(ctx, db, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "bookings"}, created)
	assert.True(t, db.Migrator().HasIndex(&models.Table{}, "idx_tables_table_number"))
}

func TestBootstrap_DefaultsFillTimestamps(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	_, err := Bootstrap(ctx, db, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, db.Exec(`INSERT INTO users (username, email) VALUES ('anna', 'anna@example.com')`).Error)

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.Equal(t, "client", user.Role)
	assert.True(t, user.IsActive)
	assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Minute)
	assert.WithinDuration(t, time.Now(), user.UpdatedAt, time.Minute)
}

package migrations

import (
	"github.com/ksred/reservations-migrate/internal/database"
)

// GetMigrations returns all registered migrations. Each one is idempotent and
// runs on every invocation.
func GetMigrations() []database.Migration {
	return []database.Migration{
		{
			Version: "20250601_001",
			Name:    "drop_users_user_id",
			Run:     DropUsersUserID,
		},
		{
			Version: "20250601_002",
			Name:    "normalize_timestamp_defaults",
			Run:     NormalizeTimestampDefaults,
		},
		{
			Version: "20250601_003",
			Name:    "normalize_booking_notes",
			Run:     NormalizeBookingNotes,
		},
	}
}

package migrations

import (
	"context"

	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/services"
	"github.com/rs/zerolog"
)

// DropUsersUserID removes the stray user_id column some users tables carry.
// The users primary key is id; user_id belongs on bookings only.
func DropUsersUserID(ctx context.Context, cat database.Catalog, logger zerolog.Logger) ([]models.Action, error) {
	return services.NewNormalizer(cat, logger).Enforce(ctx, []models.TargetRule{
		models.DropColumn("users", "user_id"),
	})
}

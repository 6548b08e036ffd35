package migrations

import (
	"context"

	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/services"
	"github.com/rs/zerolog"
)

// EmptyText is the default for free-text booking notes
const EmptyText = "''"

// NormalizeBookingNotes makes bookings.notes default to an empty string and
// replaces NULL notes with one
func NormalizeBookingNotes(ctx context.Context, cat database.Catalog, logger zerolog.Logger) ([]models.Action, error) {
	return services.NewNormalizer(cat, logger).Enforce(ctx, models.DefaultAndBackfill("bookings", EmptyText, "notes"))
}

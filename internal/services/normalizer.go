package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/utils"
)

// Normalizer enforces target rules against a catalog. Every write is preceded
// by a read that decides whether the write is needed, so enforcing rules that
// already hold issues no writes.
//
// The read and the write are not atomic with respect to other sessions: two
// normalizers running against the same schema at once can both decide to act.
// Run one at a time.
type Normalizer struct {
	catalog database.Catalog
	logger  zerolog.Logger
}

// NewNormalizer creates a normalizer over catalog
func NewNormalizer(catalog database.Catalog, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		catalog: catalog,
		logger:  logger,
	}
}

// Enforce applies rules in order and returns the corrective actions issued.
// It stops at the first error; actions issued before it are still returned.
func (n *Normalizer) Enforce(ctx context.Context, rules []models.TargetRule) ([]models.Action, error) {
	var actions []models.Action

	for _, rule := range rules {
		if err := validateRule(rule); err != nil {
			return actions, err
		}
		if err := ctx.Err(); err != nil {
			return actions, err
		}

		action, err := n.enforce(ctx, rule)
		if err != nil {
			return actions, err
		}
		if action != nil {
			actions = append(actions, *action)
		}
	}

	return actions, nil
}

func (n *Normalizer) enforce(ctx context.Context, rule models.TargetRule) (*models.Action, error) {
	logger := utils.ForColumn(n.logger, rule.Table, rule.Column)

	switch rule.Kind {
	case models.RuleDropColumn:
		col, err := n.catalog.Column(ctx, rule.Table, rule.Column)
		if err != nil {
			return nil, err
		}
		if !col.Present {
			logger.Debug().Msg("Column already absent")
			return nil, nil
		}
		return n.apply(ctx, logger, database.Statement{
			Kind:   models.ActionDropColumn,
			Table:  rule.Table,
			Column: rule.Column,
		})

	case models.RuleEnsureDefault:
		col, err := n.catalog.Column(ctx, rule.Table, rule.Column)
		if err != nil {
			return nil, err
		}
		if !col.Present {
			return nil, &utils.MissingColumnError{Table: rule.Table, Column: rule.Column}
		}
		if database.ExprEqual(col.Default, rule.Expr) {
			logger.Debug().Str("default", *col.Default).Msg("Default already set")
			return nil, nil
		}
		return n.apply(ctx, logger, database.Statement{
			Kind:   models.ActionSetDefault,
			Table:  rule.Table,
			Column: rule.Column,
			Expr:   rule.Expr,
		})

	case models.RuleBackfill:
		col, err := n.catalog.Column(ctx, rule.Table, rule.Column)
		if err != nil {
			return nil, err
		}
		if !col.Present {
			return nil, &utils.MissingColumnError{Table: rule.Table, Column: rule.Column}
		}
		hasNulls, err := n.catalog.HasNulls(ctx, rule.Table, rule.Column)
		if err != nil {
			return nil, err
		}
		if !hasNulls {
			logger.Debug().Msg("No NULL values to backfill")
			return nil, nil
		}
		return n.apply(ctx, logger, database.Statement{
			Kind:   models.ActionBackfill,
			Table:  rule.Table,
			Column: rule.Column,
			Expr:   rule.Expr,
		})
	}

	return nil, utils.InvalidFieldError("kind", fmt.Sprintf("unknown rule kind %q", rule.Kind))
}

func (n *Normalizer) apply(ctx context.Context, logger zerolog.Logger, stmt database.Statement) (*models.Action, error) {
	query := n.catalog.Render(stmt)

	rows, err := n.catalog.Apply(ctx, stmt)
	if err != nil {
		utils.WithError(logger, err).Error().Str("statement", query).Msg("Corrective statement failed")
		return nil, err
	}

	logger.Info().
		Str("action", string(stmt.Kind)).
		Str("statement", query).
		Int64("rows_affected", rows).
		Msg("Applied corrective statement")

	return &models.Action{
		Kind:         stmt.Kind,
		Table:        stmt.Table,
		Column:       stmt.Column,
		Statement:    query,
		RowsAffected: rows,
	}, nil
}

func validateRule(rule models.TargetRule) error {
	if rule.Table == "" {
		return utils.RequiredFieldError("table")
	}
	if rule.Column == "" {
		return utils.RequiredFieldError("column")
	}
	switch rule.Kind {
	case models.RuleDropColumn:
	case models.RuleEnsureDefault, models.RuleBackfill:
		if rule.Expr == "" {
			return utils.InvalidFieldError("expr", fmt.Sprintf("required for %s rules", rule.Kind))
		}
	default:
		return utils.InvalidFieldError("kind", fmt.Sprintf("unknown rule kind %q", rule.Kind))
	}
	return nil
}

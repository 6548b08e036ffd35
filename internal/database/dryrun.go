package database

import (
	"context"

	"github.com/ksred/reservations-migrate/internal/models"
)

// DryRunCatalog passes reads through to an inner Catalog and discards writes.
// Callers still see each statement through Render, so the actions they report
// are the ones a real run would issue.
type DryRunCatalog struct {
	inner Catalog
}

// NewDryRunCatalog wraps inner
func NewDryRunCatalog(inner Catalog) *DryRunCatalog {
	return &DryRunCatalog{inner: inner}
}

func (d *DryRunCatalog) DescribeTable(ctx context.Context, table string) (models.TableDescriptor, error) {
	return d.inner.DescribeTable(ctx, table)
}

func (d *DryRunCatalog) Column(ctx context.Context, table, column string) (models.ColumnDescriptor, error) {
	return d.inner.Column(ctx, table, column)
}

func (d *DryRunCatalog) HasNulls(ctx context.Context, table, column string) (bool, error) {
	return d.inner.HasNulls(ctx, table, column)
}

// Apply executes nothing. Row counts are unknown without executing, so it
// always reports zero.
func (d *DryRunCatalog) Apply(ctx context.Context, stmt Statement) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return 0, nil
}

func (d *DryRunCatalog) Render(stmt Statement) string {
	return d.inner.Render(stmt)
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/utils"
	"gorm.io/gorm"
)

const columnsQuery = `
	SELECT column_name, column_default, data_type, is_nullable
	FROM information_schema.columns
	WHERE table_schema = ? AND table_name = ?
	ORDER BY ordinal_position`

const columnQuery = `
	SELECT column_name, column_default, data_type, is_nullable
	FROM information_schema.columns
	WHERE table_schema = ? AND table_name = ? AND column_name = ?`

// columnRow is one row of information_schema.columns
type columnRow struct {
	ColumnName    string
	ColumnDefault *string
	DataType      string
	IsNullable    string
}

func (r columnRow) descriptor() models.ColumnDescriptor {
	return models.ColumnDescriptor{
		Name:     r.ColumnName,
		Present:  true,
		Default:  r.ColumnDefault,
		DataType: r.DataType,
		Nullable: r.IsNullable == "YES",
	}
}

// PostgresCatalog reads information_schema and issues DDL through gorm.
type PostgresCatalog struct {
	db          *gorm.DB
	schema      string
	lockTimeout time.Duration
}

// NewPostgresCatalog creates a catalog over db scoped to schema. A positive
// lockTimeout is applied to every transaction opened through Transaction.
func NewPostgresCatalog(db *gorm.DB, schema string, lockTimeout time.Duration) *PostgresCatalog {
	if schema == "" {
		schema = "public"
	}
	return &PostgresCatalog{
		db:          db,
		schema:      schema,
		lockTimeout: lockTimeout,
	}
}

// Schema returns the table_schema the catalog inspects
func (c *PostgresCatalog) Schema() string {
	return c.schema
}

func (c *PostgresCatalog) DescribeTable(ctx context.Context, table string) (models.TableDescriptor, error) {
	var rows []columnRow
	if err := c.db.WithContext(ctx).Raw(columnsQuery, c.schema, table).Scan(&rows).Error; err != nil {
		return models.TableDescriptor{}, fmt.Errorf("failed to describe table %s: %w", table, err)
	}

	desc := models.TableDescriptor{Name: table, Columns: make([]models.ColumnDescriptor, 0, len(rows))}
	for _, r := range rows {
		desc.Columns = append(desc.Columns, r.descriptor())
	}
	return desc, nil
}

func (c *PostgresCatalog) Column(ctx context.Context, table, column string) (models.ColumnDescriptor, error) {
	var rows []columnRow
	if err := c.db.WithContext(ctx).Raw(columnQuery, c.schema, table, column).Scan(&rows).Error; err != nil {
		return models.ColumnDescriptor{}, fmt.Errorf("failed to inspect column %s.%s: %w", table, column, err)
	}
	if len(rows) == 0 {
		return models.ColumnDescriptor{Name: column}, nil
	}
	return rows[0].descriptor(), nil
}

func (c *PostgresCatalog) HasNulls(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	if err := c.db.WithContext(ctx).Raw(HasNullsSQL(c.schema, table, column)).Scan(&exists).Error; err != nil {
		return false, fmt.Errorf("failed to check %s.%s for NULLs: %w", table, column, err)
	}
	return exists, nil
}

func (c *PostgresCatalog) Apply(ctx context.Context, stmt Statement) (int64, error) {
	query := c.Render(stmt)
	if query == "" {
		return 0, fmt.Errorf("unsupported statement kind %q", stmt.Kind)
	}

	result := c.db.WithContext(ctx).Exec(query)
	if result.Error != nil {
		return 0, utils.WrapStatementError(stmt.Table, stmt.Column, query, result.Error)
	}
	return result.RowsAffected, nil
}

func (c *PostgresCatalog) Render(stmt Statement) string {
	return RenderStatement(c.schema, stmt)
}

// Transaction runs fn against a catalog bound to a single READ COMMITTED
// transaction, after applying the configured lock_timeout.
func (c *PostgresCatalog) Transaction(ctx context.Context, fn func(Catalog) error) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.lockTimeout > 0 {
			if err := tx.Exec(LockTimeoutSQL(c.lockTimeout)).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		return fn(&PostgresCatalog{db: tx, schema: c.schema})
	}, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
}

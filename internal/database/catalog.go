package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/lib/pq"
)

// Statement is a corrective write the normalizer asks a Catalog to perform.
type Statement struct {
	Kind   models.ActionKind
	Table  string
	Column string
	// Expr is the default or fill expression; unused for drops.
	Expr string
}

// Catalog exposes the metadata catalog reads and corrective writes a
// normalization run needs. Reads never mutate; Apply is the only write.
type Catalog interface {
	// DescribeTable lists the table's columns in ordinal order. A missing table
	// yields a descriptor with no columns.
	DescribeTable(ctx context.Context, table string) (models.TableDescriptor, error)
	// Column reports one column. A missing column has Present unset.
	Column(ctx context.Context, table, column string) (models.ColumnDescriptor, error)
	// HasNulls reports whether any row holds NULL in the column.
	HasNulls(ctx context.Context, table, column string) (bool, error)
	// Apply executes the statement and returns the number of rows it touched.
	Apply(ctx context.Context, stmt Statement) (int64, error)
	// Render returns the SQL text Apply would execute for stmt.
	Render(stmt Statement) string
}

// TxCatalog is a Catalog that can scope work to a single transaction. When fn
// returns an error every write made through the inner Catalog is rolled back.
type TxCatalog interface {
	Catalog
	Transaction(ctx context.Context, fn func(Catalog) error) error
}

// RenderStatement renders stmt as Postgres SQL. Identifiers are quoted; when
// schema is non-empty the table is schema-qualified.
func RenderStatement(schema string, stmt Statement) string {
	table := QualifiedTable(schema, stmt.Table)
	column := pq.QuoteIdentifier(stmt.Column)

	switch stmt.Kind {
	case models.ActionDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)
	case models.ActionSetDefault:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, column, stmt.Expr)
	case models.ActionBackfill:
		return fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL", table, column, stmt.Expr, column)
	default:
		return ""
	}
}

// HasNullsSQL renders the read that gates a backfill.
func HasNullsSQL(schema, table, column string) string {
	col := pq.QuoteIdentifier(column)
	return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s IS NULL)", QualifiedTable(schema, table), col)
}

// LockTimeoutSQL renders a transaction-scoped lock_timeout setting.
func LockTimeoutSQL(d time.Duration) string {
	return fmt.Sprintf("SET LOCAL lock_timeout = %s", pq.QuoteLiteral(fmt.Sprintf("%dms", d.Milliseconds())))
}

// QualifiedTable quotes table, prefixed by schema when one is given.
func QualifiedTable(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

var castSuffix = regexp.MustCompile(`::\s*[a-z_][a-z0-9_ ]*(\(\d+(,\s*\d+)?\))?[a-z_ ]*(\[\])?$`)

// ExprEqual reports whether a stored default expression is the wanted one.
// Case outside string literals, whitespace, wrapping parentheses and trailing
// type casts are ignored, so CURRENT_TIMESTAMP matches "(current_timestamp)"
// and an empty string literal matches the same literal cast to text.
// Equivalent functions such as now() do not match.
func ExprEqual(stored *string, want string) bool {
	if stored == nil {
		return false
	}
	return NormalizeExpr(*stored) == NormalizeExpr(want)
}

// NormalizeExpr returns the canonical form ExprEqual compares.
func NormalizeExpr(expr string) string {
	s := foldCase(strings.TrimSpace(expr))
	for {
		prev := s
		s = strings.TrimSpace(castSuffix.ReplaceAllString(s, ""))
		if isWrapped(s) {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
		if s == prev {
			return collapseSpace(s)
		}
	}
}

// foldCase lower-cases everything outside single-quoted literals.
func foldCase(s string) string {
	var b strings.Builder
	inLiteral := false
	for _, r := range s {
		if r == '\'' {
			inLiteral = !inLiteral
		}
		if !inLiteral {
			r = toLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// isWrapped reports whether the outermost parentheses enclose all of s.
func isWrapped(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

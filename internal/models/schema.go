package models

// CurrentTimestamp is the default expression governed timestamp columns must carry.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// ColumnDescriptor describes a single column as reported by the metadata catalog.
// Default is nil when the column has no default expression.
type ColumnDescriptor struct {
	Name     string  `json:"name"`
	Present  bool    `json:"present"`
	Default  *string `json:"default"`
	DataType string  `json:"data_type,omitempty"`
	Nullable bool    `json:"nullable"`
}

// TableDescriptor describes a table and the columns it currently has.
type TableDescriptor struct {
	Name    string             `json:"name"`
	Columns []ColumnDescriptor `json:"columns"`
}

// Column returns the named column, or a descriptor with Present unset.
func (t TableDescriptor) Column(name string) ColumnDescriptor {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return ColumnDescriptor{Name: name}
}

// RuleKind identifies the assertion a TargetRule makes about a column.
type RuleKind string

const (
	// RuleDropColumn asserts the column must not exist
	RuleDropColumn RuleKind = "drop_column"
	// RuleEnsureDefault asserts the column carries a given default expression
	RuleEnsureDefault RuleKind = "ensure_default"
	// RuleBackfill asserts the column holds no NULL values
	RuleBackfill RuleKind = "backfill"
)

// TargetRule is a declarative assertion about one column of one table.
type TargetRule struct {
	Table  string   `json:"table"`
	Column string   `json:"column"`
	Kind   RuleKind `json:"kind"`
	// Expr is the wanted default (RuleEnsureDefault) or the fill value (RuleBackfill).
	Expr string `json:"expr,omitempty"`
}

// DropColumn builds a rule asserting table.column does not exist.
func DropColumn(table, column string) TargetRule {
	return TargetRule{Table: table, Column: column, Kind: RuleDropColumn}
}

// EnsureDefault builds a rule asserting table.column defaults to expr.
func EnsureDefault(table, column, expr string) TargetRule {
	return TargetRule{Table: table, Column: column, Kind: RuleEnsureDefault, Expr: expr}
}

// Backfill builds a rule asserting table.column has no NULLs, filling them with expr.
func Backfill(table, column, expr string) TargetRule {
	return TargetRule{Table: table, Column: column, Kind: RuleBackfill, Expr: expr}
}

// DefaultAndBackfill builds, for each column, a default rule followed by a
// backfill rule. All defaults precede all backfills.
func DefaultAndBackfill(table, expr string, columns ...string) []TargetRule {
	rules := make([]TargetRule, 0, len(columns)*2)
	for _, c := range columns {
		rules = append(rules, EnsureDefault(table, c, expr))
	}
	for _, c := range columns {
		rules = append(rules, Backfill(table, c, expr))
	}
	return rules
}

// Package dbtest provides an in-memory database.TxCatalog for tests. It keeps
// column metadata and row values, renders the same SQL as the Postgres catalog
// and restores its state when a transaction fails.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/models"
)

// ColumnSpec declares a column for AddTable
type ColumnSpec struct {
	Name     string
	DataType string
	Default  *string
}

// Col declares a column without a default
func Col(name, dataType string) ColumnSpec {
	return ColumnSpec{Name: name, DataType: dataType}
}

// ColDefault declares a column with a default expression
func ColDefault(name, dataType, def string) ColumnSpec {
	return ColumnSpec{Name: name, DataType: dataType, Default: &def}
}

type table struct {
	columns []ColumnSpec
	rows    []map[string]any
}

func (t *table) column(name string) (int, bool) {
	for i, c := range t.columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (t *table) clone() *table {
	out := &table{columns: make([]ColumnSpec, len(t.columns))}
	for i, c := range t.columns {
		if c.Default != nil {
			d := *c.Default
			c.Default = &d
		}
		out.columns[i] = c
	}
	for _, row := range t.rows {
		r := make(map[string]any, len(row))
		for k, v := range row {
			r[k] = v
		}
		out.rows = append(out.rows, r)
	}
	return out
}

type failure struct {
	kind   models.ActionKind
	table  string
	column string
	err    error
}

// Memory is an in-memory catalog. The zero value is not usable; call New.
type Memory struct {
	mu         sync.Mutex
	tables     map[string]*table
	statements []string
	reads      int
	failures   []failure
	txTime     time.Time

	// Now supplies CURRENT_TIMESTAMP; a transaction freezes it at its start.
	Now func() time.Time
}

// New creates an empty catalog
func New() *Memory {
	return &Memory{
		tables: map[string]*table{},
		Now:    time.Now,
	}
}

// AddTable creates or replaces a table
func (m *Memory) AddTable(name string, columns ...ColumnSpec) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &table{columns: columns}
	return m
}

// Insert appends a row; columns left out hold NULL
func (m *Memory) Insert(tableName string, row map[string]any) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("dbtest: insert into unknown table %s", tableName))
	}
	r := make(map[string]any, len(row))
	for k, v := range row {
		r[k] = v
	}
	t.rows = append(t.rows, r)
	return m
}

// Rows returns a copy of the table's rows
func (m *Memory) Rows(tableName string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableName]
	if !ok {
		return nil
	}
	return t.clone().rows
}

// Default returns the column's default expression and whether the column exists
func (m *Memory) Default(tableName, column string) (*string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableName]
	if !ok {
		return nil, false
	}
	i, ok := t.column(column)
	if !ok {
		return nil, false
	}
	return t.columns[i].Default, true
}

// FailOn makes Apply return err for the matching statement
func (m *Memory) FailOn(kind models.ActionKind, tableName, column string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, failure{kind: kind, table: tableName, column: column, err: err})
}

// Statements returns every write attempted, including rolled back ones
func (m *Memory) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.statements))
	copy(out, m.statements)
	return out
}

// Reads returns how many catalog reads were served
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// ResetStatements clears the write log and read counter
func (m *Memory) ResetStatements() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = nil
	m.reads = 0
}

func (m *Memory) DescribeTable(ctx context.Context, tableName string) (models.TableDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++

	desc := models.TableDescriptor{Name: tableName, Columns: []models.ColumnDescriptor{}}
	t, ok := m.tables[tableName]
	if !ok {
		return desc, nil
	}
	for _, c := range t.columns {
		desc.Columns = append(desc.Columns, describe(c))
	}
	return desc, nil
}

func (m *Memory) Column(ctx context.Context, tableName, column string) (models.ColumnDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++

	t, ok := m.tables[tableName]
	if !ok {
		return models.ColumnDescriptor{Name: column}, nil
	}
	i, ok := t.column(column)
	if !ok {
		return models.ColumnDescriptor{Name: column}, nil
	}
	return describe(t.columns[i]), nil
}

func describe(c ColumnSpec) models.ColumnDescriptor {
	desc := models.ColumnDescriptor{Name: c.Name, Present: true, DataType: c.DataType, Nullable: true}
	if c.Default != nil {
		d := *c.Default
		desc.Default = &d
	}
	return desc
}

func (m *Memory) HasNulls(ctx context.Context, tableName, column string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++

	t, err := m.lookup(tableName, column)
	if err != nil {
		return false, err
	}
	for _, row := range t.rows {
		if row[column] == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Apply(ctx context.Context, stmt database.Statement) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statements = append(m.statements, database.RenderStatement("", stmt))
	for _, f := range m.failures {
		if f.kind == stmt.Kind && f.table == stmt.Table && f.column == stmt.Column {
			return 0, f.err
		}
	}

	t, err := m.lookup(stmt.Table, stmt.Column)
	if err != nil {
		return 0, err
	}
	i, _ := t.column(stmt.Column)

	switch stmt.Kind {
	case models.ActionDropColumn:
		t.columns = append(t.columns[:i], t.columns[i+1:]...)
		for _, row := range t.rows {
			delete(row, stmt.Column)
		}
		return 0, nil
	case models.ActionSetDefault:
		expr := stmt.Expr
		t.columns[i].Default = &expr
		return 0, nil
	case models.ActionBackfill:
		value, err := m.eval(stmt.Expr)
		if err != nil {
			return 0, err
		}
		var n int64
		for _, row := range t.rows {
			if row[stmt.Column] == nil {
				row[stmt.Column] = value
				n++
			}
		}
		return n, nil
	default:
		return 0, fmt.Errorf("dbtest: unsupported statement kind %q", stmt.Kind)
	}
}

func (m *Memory) Render(stmt database.Statement) string {
	return database.RenderStatement("", stmt)
}

// Transaction runs fn and restores every table when it fails.
// CURRENT_TIMESTAMP is constant for the duration of fn.
func (m *Memory) Transaction(ctx context.Context, fn func(database.Catalog) error) error {
	m.mu.Lock()
	snapshot := make(map[string]*table, len(m.tables))
	for name, t := range m.tables {
		snapshot[name] = t.clone()
	}
	m.txTime = m.Now()
	m.mu.Unlock()

	err := fn(m)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.txTime = time.Time{}
	if err != nil {
		m.tables = snapshot
	}
	return err
}

func (m *Memory) lookup(tableName, column string) (*table, error) {
	t, ok := m.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", tableName)
	}
	if _, ok := t.column(column); !ok {
		return nil, fmt.Errorf("column %q of relation %q does not exist", column, tableName)
	}
	return t, nil
}

// eval understands CURRENT_TIMESTAMP and single-quoted string literals
func (m *Memory) eval(expr string) (any, error) {
	if database.NormalizeExpr(expr) == database.NormalizeExpr(models.CurrentTimestamp) {
		if !m.txTime.IsZero() {
			return m.txTime, nil
		}
		return m.Now(), nil
	}
	s := strings.TrimSpace(expr)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), nil
	}
	return nil, fmt.Errorf("dbtest: cannot evaluate expression %q", expr)
}

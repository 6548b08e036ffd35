package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableDescriptor_Column(t *testing.T) {
	def := CurrentTimestamp
	table := TableDescriptor{
		Name: "users",
		Columns: []ColumnDescriptor{
			{Name: "id", Present: true},
			{Name: "created_at", Present: true, Default: &def},
		},
	}

	col := table.Column("created_at")
	assert.True(t, col.Present)
	assert.Equal(t, CurrentTimestamp, *col.Default)

	missing := table.Column("user_id")
	assert.Equal(t, "user_id", missing.Name)
	assert.False(t, missing.Present)
	assert.Nil(t, missing.Default)
}

func TestDefaultAndBackfill(t *testing.T) {
	rules := DefaultAndBackfill("tables", CurrentTimestamp, "created_at", "updated_at")

	assert.Equal(t, []TargetRule{
		{Table: "tables", Column: "created_at", Kind: RuleEnsureDefault, Expr: CurrentTimestamp},
		{Table: "tables", Column: "updated_at", Kind: RuleEnsureDefault, Expr: CurrentTimestamp},
		{Table: "tables", Column: "created_at", Kind: RuleBackfill, Expr: CurrentTimestamp},
		{Table: "tables", Column: "updated_at", Kind: RuleBackfill, Expr: CurrentTimestamp},
	}, rules)
}

func TestReport(t *testing.T) {
	report := &Report{
		Migrations: []MigrationResult{
			{Version: "1", Actions: []Action{{Kind: ActionDropColumn, Table: "users", Column: "user_id"}}},
			{Version: "2"},
			{Version: "3", Actions: []Action{
				{Kind: ActionSetDefault, Table: "users", Column: "created_at"},
				{Kind: ActionBackfill, Table: "users", Column: "updated_at", RowsAffected: 3},
			}},
		},
	}

	assert.Equal(t, 3, report.ActionCount())
	assert.False(t, report.Compliant())
	actions := report.Actions()
	assert.Len(t, actions, 3)
	assert.Equal(t, ActionDropColumn, actions[0].Kind)
	assert.Equal(t, int64(3), actions[2].RowsAffected)

	assert.True(t, (&Report{}).Compliant())
}

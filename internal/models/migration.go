package models

import (
	"time"
)

// ActionKind names a corrective statement type.
type ActionKind string

const (
	ActionDropColumn ActionKind = "drop_column"
	ActionSetDefault ActionKind = "set_default"
	ActionBackfill   ActionKind = "backfill"
)

// Action is a corrective statement issued against the schema (or, in a dry run,
// one that would have been issued).
type Action struct {
	Kind         ActionKind `json:"kind"`
	Table        string     `json:"table"`
	Column       string     `json:"column"`
	Statement    string     `json:"statement"`
	RowsAffected int64      `json:"rows_affected"`
}

// MigrationResult collects the actions one registered migration produced.
type MigrationResult struct {
	Version string   `json:"version"`
	Name    string   `json:"name"`
	Actions []Action `json:"actions"`
}

// Report summarizes a migration run.
type Report struct {
	RunID  string `json:"run_id"`
	DryRun bool   `json:"dry_run"`
	// RolledBack is set when the run failed; none of its actions persist.
	RolledBack bool              `json:"rolled_back"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Migrations []MigrationResult `json:"migrations"`
}

// ActionCount returns the number of corrective statements across all migrations.
func (r *Report) ActionCount() int {
	n := 0
	for _, m := range r.Migrations {
		n += len(m.Actions)
	}
	return n
}

// Actions returns every action in run order.
func (r *Report) Actions() []Action {
	var out []Action
	for _, m := range r.Migrations {
		out = append(out, m.Actions...)
	}
	return out
}

// Compliant reports whether the run found nothing to correct.
func (r *Report) Compliant() bool {
	return r.ActionCount() == 0
}

// Package storage defines the engine-facing side of the migration core:
// the schema editor contract each storage engine implements, the deferred
// DDL queue statements are staged on, and the deterministic object naming
// shared by create and drop paths.
package storage

import (
	"context"
	"database/sql"

	"github.com/tsvfield/tsvfield/tsvfield"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// DeferredSQL is the append-only queue of DDL statements accumulated while
// a migration step runs and flushed after the step's primary table and
// column changes. Ordering is preserved.
type DeferredSQL struct {
	stmts []string
}

func (d *DeferredSQL) Append(stmts ...string) {
	d.stmts = append(d.stmts, stmts...)
}

// Statements returns the queued DDL in append order.
func (d *DeferredSQL) Statements() []string {
	out := make([]string, len(d.stmts))
	copy(out, d.stmts)
	return out
}

func (d *DeferredSQL) Len() int { return len(d.stmts) }

func (d *DeferredSQL) Reset() { d.stmts = nil }

// SchemaEditor abstracts one storage engine's schema editing session. All
// DDL hooks stage statements on the deferred queue; nothing touches the
// database until ExecuteDeferred runs, so a session can equally be used to
// print a plan without connecting.
type SchemaEditor interface {
	Backend() Backend

	// QuoteName quotes an identifier for the engine.
	QuoteName(name string) string
	// QuoteValue quotes a literal value for inlining into DDL.
	QuoteValue(value string) string

	// IndexName derives a length-bounded object name from table, columns
	// and a purpose suffix. It must return byte-identical names when
	// called with the same arguments at create and at drop time.
	IndexName(table string, columns []string, suffix string) string

	Deferred() *DeferredSQL

	CreateModel(m tsvfield.Model) error
	DeleteModel(m tsvfield.Model) error
	AddField(m tsvfield.Model, f tsvfield.Field) error
	RemoveField(m tsvfield.Model, f tsvfield.Field) error
	AlterField(m tsvfield.Model, old, new tsvfield.Field) error

	// Connect opens a database handle for this editor's target.
	Connect(ctx context.Context) (*sql.DB, error)

	// ExecuteDeferred runs the queued statements in order inside one
	// transaction and clears the queue on success. A failed statement
	// aborts the transaction and surfaces as the migration step's failure.
	ExecuteDeferred(ctx context.Context, db *sql.DB) error
}

// Package postgres implements the schema editor for PostgreSQL, the
// primary engine: general table and column DDL plus identifier quoting and
// name truncation to the 63-byte identifier limit. Execution goes through
// the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
)

// maxIdentifierLength is NAMEDATALEN-1.
const maxIdentifierLength = 63

type Editor struct {
	DSN string

	deferred storage.DeferredSQL
}

// New returns an editor for the given DSN. The DSN may be empty when the
// editor is only used to stage and print DDL.
func New(dsn string) *Editor {
	return &Editor{DSN: dsn}
}

func (e *Editor) Backend() storage.Backend { return storage.BackendPostgres }

func (e *Editor) Deferred() *storage.DeferredSQL { return &e.deferred }

func (e *Editor) QuoteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (e *Editor) QuoteValue(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (e *Editor) IndexName(table string, columns []string, suffix string) string {
	return storage.IndexName(table, columns, suffix, maxIdentifierLength)
}

func columnType(f tsvfield.Field) string {
	switch f.Type {
	case tsvfield.FieldChar:
		return "varchar(255)"
	case tsvfield.FieldText:
		return "text"
	case tsvfield.FieldInteger:
		return "bigint"
	case tsvfield.FieldFloat:
		return "double precision"
	case tsvfield.FieldBool:
		return "boolean"
	case tsvfield.FieldDate:
		return "timestamptz"
	case tsvfield.FieldSearchVector:
		return "tsvector"
	}
	return "text"
}

func (e *Editor) CreateModel(m tsvfield.Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	cols := []string{"id bigserial PRIMARY KEY"}
	for _, f := range m.Fields {
		cols = append(cols, e.QuoteName(f.Name)+" "+columnType(f)+" NULL")
	}
	e.deferred.Append(fmt.Sprintf("CREATE TABLE %s (%s)", e.QuoteName(m.Table), strings.Join(cols, ", ")))
	return nil
}

func (e *Editor) DeleteModel(m tsvfield.Model) error {
	e.deferred.Append("DROP TABLE IF EXISTS " + e.QuoteName(m.Table))
	return nil
}

func (e *Editor) AddField(m tsvfield.Model, f tsvfield.Field) error {
	e.deferred.Append(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s NULL",
		e.QuoteName(m.Table), e.QuoteName(f.Name), columnType(f)))
	return nil
}

func (e *Editor) RemoveField(m tsvfield.Model, f tsvfield.Field) error {
	e.deferred.Append(fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s",
		e.QuoteName(m.Table), e.QuoteName(f.Name)))
	return nil
}

func (e *Editor) AlterField(m tsvfield.Model, old, new tsvfield.Field) error {
	if old.Name != new.Name {
		e.deferred.Append(fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			e.QuoteName(m.Table), e.QuoteName(old.Name), e.QuoteName(new.Name)))
	}
	if old.Type != new.Type {
		e.deferred.Append(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
			e.QuoteName(m.Table), e.QuoteName(new.Name), columnType(new)))
	}
	return nil
}

// Connect opens and pings a database handle for the editor's DSN.
func (e *Editor) Connect(ctx context.Context) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(e.DSN)
	if err != nil {
		return nil, tsvfield.Wrap(tsvfield.ErrIO, "parse postgres DSN", err)
	}
	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, tsvfield.Wrap(tsvfield.ErrIO, "connect to postgres", err)
	}
	return db, nil
}

// ExecuteDeferred runs the queued DDL in order inside one transaction.
func (e *Editor) ExecuteDeferred(ctx context.Context, db *sql.DB) error {
	stmts := e.deferred.Statements()
	if len(stmts) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return tsvfield.Wrap(tsvfield.ErrSQL, "begin transaction", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return tsvfield.Wrap(tsvfield.ErrSQL, fmt.Sprintf("execute deferred DDL: %s", stmt), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return tsvfield.Wrap(tsvfield.ErrSQL, "commit deferred DDL", err)
	}
	e.deferred.Reset()
	return nil
}

// Package sqlite implements the schema editor for SQLite. SQLite has no
// tsvector, so a search vector field is realized as an external-content
// FTS5 table kept in sync by AFTER INSERT/UPDATE/DELETE triggers on the
// base table; the lifecycle (create with the table, drop before it, full
// rebuild on alter) matches the Postgres engine. Callers register a
// driver named "sqlite", e.g. by blank-importing modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
)

// SQLite imposes no real identifier limit; bound names anyway so the
// naming algorithm behaves the same across engines.
const maxIdentifierLength = 200

type Editor struct {
	Path string

	deferred storage.DeferredSQL
}

func New(path string) *Editor {
	return &Editor{Path: path}
}

func (e *Editor) Backend() storage.Backend { return storage.BackendSQLite }

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
	case tsvfield.FieldInteger:
		return "INTEGER"
	case tsvfield.FieldFloat:
		return "REAL"
	case tsvfield.FieldBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func (e *Editor) CreateModel(m tsvfield.Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	cols := []string{"id INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, f := range m.Fields {
		if f.Type == tsvfield.FieldSearchVector {
			// The FTS5 mirror is the derived value; no base column needed.
			continue
		}
		cols = append(cols, e.QuoteName(f.Name)+" "+columnType(f))
	}
	e.deferred.Append(fmt.Sprintf("CREATE TABLE %s (%s)", e.QuoteName(m.Table), strings.Join(cols, ", ")))

	for _, f := range m.VectorFields() {
		e.deferred.Append(e.createFTS(m, f)...)
	}
	return nil
}

func (e *Editor) DeleteModel(m tsvfield.Model) error {
	for _, f := range m.VectorFields() {
		e.deferred.Append(e.dropFTS(m, f)...)
	}
	e.deferred.Append("DROP TABLE IF EXISTS " + e.QuoteName(m.Table))
	return nil
}

func (e *Editor) AddField(m tsvfield.Model, f tsvfield.Field) error {
	if f.Type == tsvfield.FieldSearchVector {
		e.deferred.Append(e.createFTS(m, f)...)
		return nil
	}
	e.deferred.Append(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		e.QuoteName(m.Table), e.QuoteName(f.Name), columnType(f)))
	return nil
}

func (e *Editor) RemoveField(m tsvfield.Model, f tsvfield.Field) error {
	if f.Type == tsvfield.FieldSearchVector {
		e.deferred.Append(e.dropFTS(m, f)...)
		return nil
	}
	e.deferred.Append(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		e.QuoteName(m.Table), e.QuoteName(f.Name)))
	return nil
}

func (e *Editor) AlterField(m tsvfield.Model, old, new tsvfield.Field) error {
	if old.Type == tsvfield.FieldSearchVector || new.Type == tsvfield.FieldSearchVector {
		if err := e.RemoveField(m, old); err != nil {
			return err
		}
		return e.AddField(m, new)
	}
	if old.Name != new.Name {
		e.deferred.Append(fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			e.QuoteName(m.Table), e.QuoteName(old.Name), e.QuoteName(new.Name)))
	}
	return nil
}

// names returns the FTS table name plus the three sync trigger names.
func (e *Editor) names(m tsvfield.Model, f tsvfield.Field) (fts, ai, ad, au string) {
	fts = e.IndexName(m.Table, []string{f.Name}, "_fts")
	ai = e.IndexName(m.Table, []string{f.Name}, "_trig_ai")
	ad = e.IndexName(m.Table, []string{f.Name}, "_trig_ad")
	au = e.IndexName(m.Table, []string{f.Name}, "_trig_au")
	return
}

func (e *Editor) createFTS(m tsvfield.Model, f tsvfield.Field) []string {
	var cols []string
	if f.Vector != nil {
		cols = f.Vector.SourceColumns()
	}
	if len(cols) == 0 {
		// Externally populated vector: nothing for the engine to sync.
		return nil
	}

	fts, ai, ad, au := e.names(m, f)
	table := e.QuoteName(m.Table)
	ftsName := e.QuoteName(fts)

	quoted := make([]string, len(cols))
	newVals := make([]string, len(cols))
	oldVals := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = e.QuoteName(c)
		newVals[i] = "new." + e.QuoteName(c)
		oldVals[i] = "old." + e.QuoteName(c)
	}
	colList := strings.Join(quoted, ", ")

	insertNew := fmt.Sprintf("INSERT INTO %s(rowid, %s) VALUES (new.id, %s);",
		ftsName, colList, strings.Join(newVals, ", "))
	deleteOld := fmt.Sprintf("INSERT INTO %s(%s, rowid, %s) VALUES ('delete', old.id, %s);",
		ftsName, ftsName, colList, strings.Join(oldVals, ", "))

	return []string{
		fmt.Sprintf("CREATE VIRTUAL TABLE %s USING fts5(%s, content=%s, content_rowid='id', tokenize='unicode61')",
			ftsName, colList, e.QuoteValue(m.Table)),
		fmt.Sprintf("CREATE TRIGGER %s AFTER INSERT ON %s BEGIN\n %s\nEND",
			e.QuoteName(ai), table, insertNew),
		fmt.Sprintf("CREATE TRIGGER %s AFTER DELETE ON %s BEGIN\n %s\nEND",
			e.QuoteName(ad), table, deleteOld),
		fmt.Sprintf("CREATE TRIGGER %s AFTER UPDATE ON %s BEGIN\n %s\n %s\nEND",
			e.QuoteName(au), table, deleteOld, insertNew),
	}
}

func (e *Editor) dropFTS(m tsvfield.Model, f tsvfield.Field) []string {
	if f.Vector == nil || len(f.Vector.Columns) == 0 {
		return nil
	}
	fts, ai, ad, au := e.names(m, f)
	return []string{
		"DROP TRIGGER IF EXISTS " + ai,
		"DROP TRIGGER IF EXISTS " + ad,
		"DROP TRIGGER IF EXISTS " + au,
		"DROP TABLE IF EXISTS " + e.QuoteName(fts),
	}
}

func (e *Editor) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", e.Path)
	if err != nil {
		return nil, tsvfield.Wrap(tsvfield.ErrIO, "open sqlite database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, tsvfield.Wrap(tsvfield.ErrIO, "connect to sqlite", err)
	}
	return db, nil
}

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

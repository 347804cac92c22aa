// Package trigger manages the lifecycle of the database objects backing a
// search vector field: the GIN index, the recompute function and the
// BEFORE INSERT OR UPDATE trigger. It never executes DDL itself; every
// statement is appended to the wrapped editor's deferred queue so it runs
// after the surrounding table and column changes.
package trigger

import (
	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/sqlgen"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
)

// Editor emits trigger lifecycle DDL through a storage editor. It exposes
// only what it needs from the underlying editor (quoting, naming, the
// deferred queue) instead of embedding it, so changes to the general
// editor surface cannot leak through unnoticed.
type Editor struct {
	ed storage.SchemaEditor
}

func NewEditor(ed storage.SchemaEditor) *Editor {
	return &Editor{ed: ed}
}

// Names returns the index, function and trigger names for a field. The
// function name carries its call parentheses, matching how it appears in
// CREATE FUNCTION, EXECUTE PROCEDURE and DROP FUNCTION. Names are pure
// derivations of (table, column): drop regenerates exactly what create
// produced.
func (e *Editor) Names(m tsvfield.Model, f tsvfield.Field) (index, function, trig string) {
	index = e.ed.IndexName(m.Table, []string{f.Name}, "")
	function = e.ed.IndexName(m.Table, []string{f.Name}, "_func") + "()"
	trig = e.ed.IndexName(m.Table, []string{f.Name}, "_trig")
	return
}

// CreateModel stages trigger objects for every search vector field of a
// freshly created model.
func (e *Editor) CreateModel(m tsvfield.Model) error {
	for _, f := range m.VectorFields() {
		e.ed.Deferred().Append(e.createSQL(m, f)...)
	}
	return nil
}

// DeleteModel stages drops for every search vector field of a model about
// to be deleted. Must run while the table still exists.
func (e *Editor) DeleteModel(m tsvfield.Model) error {
	for _, f := range m.VectorFields() {
		e.ed.Deferred().Append(e.dropSQL(m, f)...)
	}
	return nil
}

func (e *Editor) AddField(m tsvfield.Model, f tsvfield.Field) error {
	if f.Type == tsvfield.FieldSearchVector {
		e.ed.Deferred().Append(e.createSQL(m, f)...)
	}
	return nil
}

func (e *Editor) RemoveField(m tsvfield.Model, f tsvfield.Field) error {
	if f.Type == tsvfield.FieldSearchVector {
		e.ed.Deferred().Append(e.dropSQL(m, f)...)
	}
	return nil
}

// AlterField always drops the old objects and creates the new ones. A
// targeted CREATE OR REPLACE would go stale the moment the derived column
// is renamed, and the generated SQL is cheap to rebuild.
func (e *Editor) AlterField(m tsvfield.Model, old, new tsvfield.Field) error {
	if err := e.RemoveField(m, old); err != nil {
		return err
	}
	return e.AddField(m, new)
}

func (e *Editor) descriptor(f tsvfield.Field) tsvfield.SearchVectorField {
	if f.Vector == nil {
		return tsvfield.SearchVectorField{}
	}
	return *f.Vector
}

// createSQL yields the GIN index and, for fields with source columns, the
// recompute function and the row trigger. Externally populated vectors
// (no columns) get the index only.
func (e *Editor) createSQL(m tsvfield.Model, f tsvfield.Field) []string {
	index, function, trig := e.Names(m, f)
	table := e.ed.QuoteName(m.Table)
	v := e.descriptor(f)

	stmts := []string{
		"CREATE INDEX " + e.ed.QuoteName(index) + " ON " + table +
			" USING GIN (" + e.ed.QuoteName(f.Name) + ")",
	}
	if len(v.Columns) == 0 {
		return stmts
	}

	stmts = append(stmts, sqlgen.CreateFunctionSQL(e.ed, v, function, f.Name))
	stmts = append(stmts,
		"CREATE TRIGGER "+e.ed.QuoteName(trig)+" BEFORE INSERT OR UPDATE"+
			" ON "+table+" FOR EACH ROW EXECUTE PROCEDURE "+function)
	return stmts
}

// dropSQL yields idempotent drops in dependency order: trigger before
// function before index.
func (e *Editor) dropSQL(m tsvfield.Model, f tsvfield.Field) []string {
	index, function, trig := e.Names(m, f)
	return []string{
		"DROP TRIGGER IF EXISTS " + trig + " ON " + e.ed.QuoteName(m.Table),
		"DROP FUNCTION IF EXISTS " + function,
		"DROP INDEX IF EXISTS " + index,
	}
}

package trigger

import (
	"context"
	"database/sql"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
)

// SchemaEditor decorates a general schema editor so that every schema
// hook also maintains the trigger objects of affected search vector
// fields. Composition is explicit delegation: each hook first calls the
// wrapped editor, then the trigger editor, both against the same deferred
// queue.
//
// Hosts that drive migrations through an operation plan can skip this
// wrapper and rely on migrate.InjectTriggerOperations instead; the two
// integration styles must not be combined or trigger DDL is emitted twice.
type SchemaEditor struct {
	inner    storage.SchemaEditor
	triggers *Editor
}

var _ storage.SchemaEditor = (*SchemaEditor)(nil)

func NewSchemaEditor(inner storage.SchemaEditor) *SchemaEditor {
	return &SchemaEditor{inner: inner, triggers: NewEditor(inner)}
}

func (s *SchemaEditor) Backend() storage.Backend { return s.inner.Backend() }

func (s *SchemaEditor) QuoteName(name string) string { return s.inner.QuoteName(name) }

func (s *SchemaEditor) QuoteValue(value string) string { return s.inner.QuoteValue(value) }

func (s *SchemaEditor) IndexName(table string, columns []string, suffix string) string {
	return s.inner.IndexName(table, columns, suffix)
}

func (s *SchemaEditor) Deferred() *storage.DeferredSQL { return s.inner.Deferred() }

func (s *SchemaEditor) CreateModel(m tsvfield.Model) error {
	if err := s.inner.CreateModel(m); err != nil {
		return err
	}
	return s.triggers.CreateModel(m)
}

func (s *SchemaEditor) DeleteModel(m tsvfield.Model) error {
	// Trigger objects reference the table; stage their drops first.
	if err := s.triggers.DeleteModel(m); err != nil {
		return err
	}
	return s.inner.DeleteModel(m)
}

func (s *SchemaEditor) AddField(m tsvfield.Model, f tsvfield.Field) error {
	if err := s.inner.AddField(m, f); err != nil {
		return err
	}
	return s.triggers.AddField(m, f)
}

func (s *SchemaEditor) RemoveField(m tsvfield.Model, f tsvfield.Field) error {
	if err := s.triggers.RemoveField(m, f); err != nil {
		return err
	}
	return s.inner.RemoveField(m, f)
}

func (s *SchemaEditor) AlterField(m tsvfield.Model, old, new tsvfield.Field) error {
	if err := s.inner.AlterField(m, old, new); err != nil {
		return err
	}
	return s.triggers.AlterField(m, old, new)
}

func (s *SchemaEditor) Connect(ctx context.Context) (*sql.DB, error) {
	return s.inner.Connect(ctx)
}

func (s *SchemaEditor) ExecuteDeferred(ctx context.Context, db *sql.DB) error {
	return s.inner.ExecuteDeferred(ctx, db)
}

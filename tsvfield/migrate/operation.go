// Package migrate models the slice of the host migration pipeline this
// module hooks into: the ordered operation list of a compiled plan, the
// interceptor that splices trigger lifecycle operations into it, and an
// executor that applies a plan through a schema editor.
package migrate

import (
	"fmt"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
	"github.com/tsvfield/tsvfield/tsvfield/trigger"
)

// Operation is one schema change of a migration. Operations are
// self-contained: they carry the model state they need, state tracking
// stays with the host planner.
type Operation interface {
	Describe() string
	Apply(ed storage.SchemaEditor) error
}

type CreateModel struct {
	Model tsvfield.Model
}

func (op CreateModel) Describe() string { return fmt.Sprintf("Create model %s", op.Model.Name) }

func (op CreateModel) Apply(ed storage.SchemaEditor) error { return ed.CreateModel(op.Model) }

type DeleteModel struct {
	Model tsvfield.Model
}

func (op DeleteModel) Describe() string { return fmt.Sprintf("Delete model %s", op.Model.Name) }

func (op DeleteModel) Apply(ed storage.SchemaEditor) error { return ed.DeleteModel(op.Model) }

type AddField struct {
	Model tsvfield.Model
	Field tsvfield.Field
}

func (op AddField) Describe() string {
	return fmt.Sprintf("Add field %s to %s", op.Field.Name, op.Model.Name)
}

func (op AddField) Apply(ed storage.SchemaEditor) error { return ed.AddField(op.Model, op.Field) }

type RemoveField struct {
	Model tsvfield.Model
	Field tsvfield.Field
}

func (op RemoveField) Describe() string {
	return fmt.Sprintf("Remove field %s from %s", op.Field.Name, op.Model.Name)
}

func (op RemoveField) Apply(ed storage.SchemaEditor) error { return ed.RemoveField(op.Model, op.Field) }

type AlterField struct {
	Model tsvfield.Model
	Old   tsvfield.Field
	New   tsvfield.Field
}

func (op AlterField) Describe() string {
	return fmt.Sprintf("Alter field %s on %s", op.New.Name, op.Model.Name)
}

func (op AlterField) Apply(ed storage.SchemaEditor) error {
	return ed.AlterField(op.Model, op.Old, op.New)
}

// Phase says whether an injected trigger operation runs before or after
// the schema operation it wraps.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// TriggerOperation wraps a schema operation and replays it against the
// trigger lifecycle editor only; the wrapped operation's own general DDL
// is emitted by the original, unwrapped entry in the plan.
type TriggerOperation struct {
	Phase Phase
	Op    Operation
}

func (op TriggerOperation) Describe() string {
	return fmt.Sprintf("Sync search vector triggers (%s): %s", op.Phase, op.Op.Describe())
}

func (op TriggerOperation) Apply(ed storage.SchemaEditor) error {
	// Engines other than Postgres synchronize their search structures
	// inside their own schema hooks.
	if ed.Backend() != storage.BackendPostgres {
		return nil
	}
	te := trigger.NewEditor(ed)
	switch inner := op.Op.(type) {
	case CreateModel:
		return te.CreateModel(inner.Model)
	case DeleteModel:
		return te.DeleteModel(inner.Model)
	case AddField:
		return te.AddField(inner.Model, inner.Field)
	case RemoveField:
		return te.RemoveField(inner.Model, inner.Field)
	case AlterField:
		return te.AlterField(inner.Model, inner.Old, inner.New)
	}
	return tsvfield.PlanError(fmt.Sprintf("trigger operation wraps unsupported operation %T", op.Op))
}

// IndexSearchVector queues a statement nulling the derived column so the
// guard's null branch recomputes every row's vector on its next write.
// Useful after backfilling data that predates the trigger.
type IndexSearchVector struct {
	Model tsvfield.Model
	Field string
}

func (op IndexSearchVector) Describe() string {
	return fmt.Sprintf("Reindex search vector %s.%s", op.Model.Name, op.Field)
}

func (op IndexSearchVector) Apply(ed storage.SchemaEditor) error {
	f, ok := op.Model.Field(op.Field)
	if !ok {
		return tsvfield.NotFoundError(fmt.Sprintf("field %s.%s", op.Model.Name, op.Field))
	}
	if f.Type != tsvfield.FieldSearchVector {
		return tsvfield.PlanError(fmt.Sprintf("field %s.%s is not a search vector field", op.Model.Name, op.Field))
	}
	ed.Deferred().Append(fmt.Sprintf("UPDATE %s SET %s = NULL",
		ed.QuoteName(op.Model.Table), ed.QuoteName(f.Name)))
	return nil
}

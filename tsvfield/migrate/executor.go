package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
)

// Executor applies a compiled plan through a schema editor. Each
// migration's operations stage DDL on the deferred queue, which is then
// flushed in one transaction, so one migration is one atomicity boundary.
type Executor struct {
	Editor storage.SchemaEditor
	Logger *zap.Logger
}

func NewExecutor(ed storage.SchemaEditor, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{Editor: ed, Logger: logger}
}

// Plan stages every operation of the plan and returns the DDL that would
// run, without touching the database. The deferred queue is drained.
func (e *Executor) Plan(plan []PlanEntry) ([]string, error) {
	var stmts []string
	for _, entry := range plan {
		batch, err := e.stage(entry)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, batch...)
	}
	return stmts, nil
}

// Apply executes the plan, one transaction per migration. A failed
// statement aborts that migration's transaction and stops the run;
// recovery is a new forward or backward migration, never a retry here.
func (e *Executor) Apply(ctx context.Context, plan []PlanEntry) error {
	db, err := e.Editor.Connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, entry := range plan {
		name := entry.Migration.Name
		for _, op := range entry.Migration.Operations {
			e.Logger.Debug("staging operation",
				zap.String("migration", name),
				zap.String("operation", op.Describe()))
			if err := op.Apply(e.Editor); err != nil {
				return tsvfield.Wrap(tsvfield.ErrPlan,
					fmt.Sprintf("migration %s: %s", name, op.Describe()), err)
			}
		}

		count := e.Editor.Deferred().Len()
		if err := e.Editor.ExecuteDeferred(ctx, db); err != nil {
			e.Logger.Error("migration failed",
				zap.String("migration", name), zap.Error(err))
			return err
		}
		e.Logger.Info("applied migration",
			zap.String("migration", name),
			zap.Int("statements", count))
	}
	return nil
}

func (e *Executor) stage(entry PlanEntry) ([]string, error) {
	for _, op := range entry.Migration.Operations {
		if err := op.Apply(e.Editor); err != nil {
			return nil, tsvfield.Wrap(tsvfield.ErrPlan,
				fmt.Sprintf("migration %s: %s", entry.Migration.Name, op.Describe()), err)
		}
	}
	stmts := e.Editor.Deferred().Statements()
	e.Editor.Deferred().Reset()
	return stmts, nil
}

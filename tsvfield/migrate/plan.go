package migrate

import "github.com/tsvfield/tsvfield/tsvfield"

// Migration is one named, ordered batch of schema operations.
type Migration struct {
	Name       string
	Operations []Operation
}

// PlanEntry pairs a migration with its direction as compiled by the host
// planner. The interceptor treats both directions identically: the host
// hands backward migrations over already expressed as forward-shaped
// operation lists.
type PlanEntry struct {
	Migration *Migration
	Backward  bool
}

// InjectTriggerOperations splices a TriggerOperation around every schema
// operation that can affect a search vector field. Drops are injected
// before their operation, while the table and column still exist for
// introspection; creates after, once the table and column exist. The host
// is documented to invoke this once per compiled plan; a second
// invocation is harmless because wrapped operations are never matched and
// bare operations with their lifecycle counterpart already in place are
// skipped.
func InjectTriggerOperations(plan []PlanEntry) {
	for _, entry := range plan {
		injectMigration(entry.Migration)
	}
}

type insertion struct {
	index int
	op    Operation
}

// hasAdjacentTriggerOp reports whether the slot next to an operation
// already holds its injected lifecycle counterpart, which is what keeps a
// second interceptor pass from double-emitting DDL.
func hasAdjacentTriggerOp(ops []Operation, index int, phase Phase) bool {
	if index < 0 || index >= len(ops) {
		return false
	}
	t, ok := ops[index].(TriggerOperation)
	return ok && t.Phase == phase
}

// affectsSearchVector reports whether a bare schema operation touches at
// least one search vector field. Wrapped operations never match, which is
// what makes the interceptor idempotent.
func affectsSearchVector(op Operation) bool {
	switch o := op.(type) {
	case CreateModel:
		return len(o.Model.VectorFields()) > 0
	case DeleteModel:
		return len(o.Model.VectorFields()) > 0
	case AddField:
		return o.Field.Type == tsvfield.FieldSearchVector
	case RemoveField:
		return o.Field.Type == tsvfield.FieldSearchVector
	case AlterField:
		return o.Old.Type == tsvfield.FieldSearchVector || o.New.Type == tsvfield.FieldSearchVector
	}
	return false
}

func injectMigration(m *Migration) {
	if m == nil {
		return
	}

	var inserts []insertion
	for index, op := range m.Operations {
		if !affectsSearchVector(op) {
			continue
		}
		switch op.(type) {
		case DeleteModel, RemoveField:
			if hasAdjacentTriggerOp(m.Operations, index-1, PhaseBefore) {
				continue
			}
			inserts = append(inserts, insertion{index, TriggerOperation{Phase: PhaseBefore, Op: op}})
		case CreateModel, AddField, AlterField:
			if hasAdjacentTriggerOp(m.Operations, index+1, PhaseAfter) {
				continue
			}
			inserts = append(inserts, insertion{index + 1, TriggerOperation{Phase: PhaseAfter, Op: op}})
		}
	}

	// Each earlier insertion shifts the remaining target indexes by one.
	for inserted, ins := range inserts {
		at := ins.index + inserted
		m.Operations = append(m.Operations, nil)
		copy(m.Operations[at+1:], m.Operations[at:])
		m.Operations[at] = ins.op
	}
}

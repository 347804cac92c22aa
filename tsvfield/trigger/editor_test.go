package trigger_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/storage/postgres"
	"github.com/tsvfield/tsvfield/tsvfield/trigger"
)

func searchField(v tsvfield.SearchVectorField) tsvfield.Field {
	return tsvfield.Field{Name: "search", Type: tsvfield.FieldSearchVector, Vector: &v}
}

func postModel(v tsvfield.SearchVectorField) tsvfield.Model {
	return tsvfield.Model{
		Name:  "Post",
		Table: "blog_post",
		Fields: []tsvfield.Field{
			{Name: "title", Type: tsvfield.FieldChar},
			{Name: "body", Type: tsvfield.FieldText},
			searchField(v),
		},
	}
}

func indexedDescriptor() tsvfield.SearchVectorField {
	return tsvfield.SearchVectorField{
		Columns: []tsvfield.WeightedColumn{
			{Column: "title", Weight: tsvfield.WeightA},
			{Column: "body", Weight: tsvfield.WeightD},
		},
		Language: "english",
	}
}

func TestCreateModelEmitsIndexFunctionTrigger(t *testing.T) {
	ed := postgres.New("")
	te := trigger.NewEditor(ed)
	m := postModel(indexedDescriptor())

	require.NoError(t, te.CreateModel(m))
	stmts := ed.Deferred().Statements()
	require.Len(t, stmts, 3)

	index, function, trig := te.Names(m, m.Fields[2])
	assert.Equal(t, `CREATE INDEX "`+index+`" ON "blog_post" USING GIN ("search")`, stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE FUNCTION "+function+" RETURNS trigger AS $$"))
	assert.Contains(t, stmts[1], "$$ LANGUAGE plpgsql")
	assert.Equal(t,
		`CREATE TRIGGER "`+trig+`" BEFORE INSERT OR UPDATE ON "blog_post" FOR EACH ROW EXECUTE PROCEDURE `+function,
		stmts[2])
}

// A descriptor with no source columns is populated externally: only the
// GIN index is managed, no function or trigger.
func TestCreateModelWithoutColumnsEmitsIndexOnly(t *testing.T) {
	ed := postgres.New("")
	te := trigger.NewEditor(ed)
	m := postModel(tsvfield.SearchVectorField{})

	require.NoError(t, te.CreateModel(m))
	stmts := ed.Deferred().Statements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE INDEX")
	assert.Contains(t, stmts[0], "USING GIN")
}

func TestDeleteModelEmitsIdempotentDrops(t *testing.T) {
	ed := postgres.New("")
	te := trigger.NewEditor(ed)
	m := postModel(indexedDescriptor())

	require.NoError(t, te.DeleteModel(m))
	stmts := ed.Deferred().Statements()
	require.Len(t, stmts, 3)

	index, function, trig := te.Names(m, m.Fields[2])
	assert.Equal(t, `DROP TRIGGER IF EXISTS `+trig+` ON "blog_post"`, stmts[0])
	assert.Equal(t, "DROP FUNCTION IF EXISTS "+function, stmts[1])
	assert.Equal(t, "DROP INDEX IF EXISTS "+index, stmts[2])
}

func TestDropNamesMatchCreateNames(t *testing.T) {
	// Beyond the 63 byte identifier limit the truncation path must yield
	// the same names on both sides.
	ed := postgres.New("")
	te := trigger.NewEditor(ed)

	long := strings.Repeat("very_long_table_name_", 4)
	m := tsvfield.Model{
		Name:  "Long",
		Table: long,
		Fields: []tsvfield.Field{
			{Name: "body", Type: tsvfield.FieldText},
			searchField(tsvfield.SearchVectorField{
				Columns:  []tsvfield.WeightedColumn{{Column: "body", Weight: tsvfield.WeightD}},
				Language: "english",
			}),
		},
	}

	require.NoError(t, te.CreateModel(m))
	created := ed.Deferred().Statements()
	ed.Deferred().Reset()
	require.NoError(t, te.DeleteModel(m))
	dropped := ed.Deferred().Statements()

	index, function, trig := te.Names(m, m.Fields[1])
	for _, name := range []string{index, trig} {
		assert.LessOrEqual(t, len(name), 63)
	}
	assert.Contains(t, created[0], index)
	assert.Contains(t, dropped[2], index)
	assert.Contains(t, created[1], function)
	assert.Contains(t, dropped[1], function)
	assert.Contains(t, created[2], trig)
	assert.Contains(t, dropped[0], trig)
}

// Alter is a full drop of the old objects followed by a full create of
// the new ones, never an in-place replacement.
func TestAlterFieldDropsThenCreates(t *testing.T) {
	ed := postgres.New("")
	te := trigger.NewEditor(ed)
	m := postModel(indexedDescriptor())

	old := m.Fields[2]
	updated := searchField(tsvfield.SearchVectorField{
		Columns:  []tsvfield.WeightedColumn{{Column: "body", Weight: tsvfield.WeightA}},
		Language: "german",
	})

	require.NoError(t, te.AlterField(m, old, updated))
	stmts := ed.Deferred().Statements()
	require.Len(t, stmts, 6)

	for _, stmt := range stmts[:3] {
		assert.True(t, strings.HasPrefix(stmt, "DROP "), stmt)
	}
	for _, stmt := range stmts[3:] {
		assert.True(t, strings.HasPrefix(stmt, "CREATE "), stmt)
	}
	for _, stmt := range stmts {
		assert.NotContains(t, stmt, "ALTER FUNCTION")
	}
	assert.Contains(t, stmts[4], "'german'")
}

func TestAddRemoveFieldIgnoreNonVectorFields(t *testing.T) {
	ed := postgres.New("")
	te := trigger.NewEditor(ed)
	m := postModel(indexedDescriptor())

	require.NoError(t, te.AddField(m, tsvfield.Field{Name: "views", Type: tsvfield.FieldInteger}))
	require.NoError(t, te.RemoveField(m, m.Fields[0]))
	assert.Zero(t, ed.Deferred().Len())
}

func TestSchemaEditorComposition(t *testing.T) {
	inner := postgres.New("")
	ed := trigger.NewSchemaEditor(inner)
	m := postModel(indexedDescriptor())

	require.NoError(t, ed.CreateModel(m))
	stmts := inner.Deferred().Statements()
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "CREATE TABLE")
	assert.Contains(t, stmts[1], "CREATE INDEX")
	assert.Contains(t, stmts[2], "CREATE FUNCTION")
	assert.Contains(t, stmts[3], "CREATE TRIGGER")

	inner.Deferred().Reset()
	require.NoError(t, ed.DeleteModel(m))
	stmts = inner.Deferred().Statements()
	require.Len(t, stmts, 4)
	// Trigger objects are dropped while the table still exists.
	assert.Contains(t, stmts[0], "DROP TRIGGER")
	assert.Contains(t, stmts[1], "DROP FUNCTION")
	assert.Contains(t, stmts[2], "DROP INDEX")
	assert.Contains(t, stmts[3], "DROP TABLE")
}

package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/migrate"
	"github.com/tsvfield/tsvfield/tsvfield/storage/sqlite"
)

func noteModel() tsvfield.Model {
	return tsvfield.Model{
		Name:  "Note",
		Table: "notes",
		Fields: []tsvfield.Field{
			{Name: "title", Type: tsvfield.FieldChar},
			{Name: "body", Type: tsvfield.FieldText},
			{
				Name: "search",
				Type: tsvfield.FieldSearchVector,
				Vector: &tsvfield.SearchVectorField{
					Columns: []tsvfield.WeightedColumn{
						{Column: "title", Weight: tsvfield.WeightA},
						{Column: "body", Weight: tsvfield.WeightD},
					},
				},
			},
		},
	}
}

func TestCreateModelEmitsFTSMirrorAndTriggers(t *testing.T) {
	ed := sqlite.New("")
	require.NoError(t, ed.CreateModel(noteModel()))
	stmts := ed.Deferred().Statements()
	require.Len(t, stmts, 5)

	assert.Equal(t,
		`CREATE TABLE "notes" (id INTEGER PRIMARY KEY AUTOINCREMENT, "title" TEXT, "body" TEXT)`,
		stmts[0])
	assert.Contains(t, stmts[1], "CREATE VIRTUAL TABLE")
	assert.Contains(t, stmts[1], "USING fts5(")
	assert.Contains(t, stmts[1], "content='notes'")
	assert.Contains(t, stmts[1], "content_rowid='id'")
	assert.Contains(t, stmts[1], "tokenize='unicode61'")
	assert.Contains(t, stmts[2], "AFTER INSERT ON")
	assert.Contains(t, stmts[3], "AFTER DELETE ON")
	assert.Contains(t, stmts[3], "'delete'")
	assert.Contains(t, stmts[4], "AFTER UPDATE ON")
}

// The derived column has no physical representation outside the mirror.
func TestCreateModelOmitsVectorColumn(t *testing.T) {
	ed := sqlite.New("")
	require.NoError(t, ed.CreateModel(noteModel()))
	assert.NotContains(t, ed.Deferred().Statements()[0], "search")
}

func TestDeleteModelDropsMirrorBeforeTable(t *testing.T) {
	ed := sqlite.New("")
	require.NoError(t, ed.DeleteModel(noteModel()))
	stmts := ed.Deferred().Statements()
	require.Len(t, stmts, 5)

	for _, stmt := range stmts[:3] {
		assert.True(t, strings.HasPrefix(stmt, "DROP TRIGGER IF EXISTS"), stmt)
	}
	assert.Contains(t, stmts[3], "DROP TABLE IF EXISTS")
	assert.Equal(t, `DROP TABLE IF EXISTS "notes"`, stmts[4])
}

func TestVectorFieldWithoutColumnsIsIgnored(t *testing.T) {
	m := tsvfield.Model{
		Name:  "Doc",
		Table: "docs",
		Fields: []tsvfield.Field{
			{Name: "body", Type: tsvfield.FieldText},
			{Name: "search", Type: tsvfield.FieldSearchVector, Vector: &tsvfield.SearchVectorField{}},
		},
	}
	ed := sqlite.New("")
	require.NoError(t, ed.CreateModel(m))
	assert.Equal(t, 1, ed.Deferred().Len())
}

func openTestDB(t *testing.T, m tsvfield.Model) (*sqlite.Editor, *sql.DB) {
	t.Helper()
	ed := sqlite.New(filepath.Join(t.TempDir(), "test.db"))

	plan := []migrate.PlanEntry{{Migration: &migrate.Migration{
		Name:       "0001_initial",
		Operations: []migrate.Operation{migrate.CreateModel{Model: m}},
	}}}
	require.NoError(t, migrate.NewExecutor(ed, nil).Apply(context.Background(), plan))

	db, err := ed.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return ed, db
}

func matchIDs(t *testing.T, db *sql.DB, fts, query string) []int64 {
	t.Helper()
	rows, err := db.Query(
		`SELECT rowid FROM "`+fts+`" WHERE "`+fts+`" MATCH ? ORDER BY rank`, query)
	require.NoError(t, err)
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestMirrorFollowsWrites(t *testing.T) {
	m := noteModel()
	ed, db := openTestDB(t, m)
	fts := ed.IndexName(m.Table, []string{"search"}, "_fts")

	res, err := db.Exec(`INSERT INTO "notes" ("title", "body") VALUES (?, ?)`,
		"Phrasebook", "My hovercraft is full of eels.")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO "notes" ("title", "body") VALUES (?, ?)`,
		"Unrelated", "Nothing to see here.")
	require.NoError(t, err)

	assert.Equal(t, []int64{id}, matchIDs(t, db, fts, "hovercraft"))

	_, err = db.Exec(`UPDATE "notes" SET "body" = ? WHERE id = ?`, "All eels returned.", id)
	require.NoError(t, err)
	assert.Empty(t, matchIDs(t, db, fts, "hovercraft"))
	assert.Equal(t, []int64{id}, matchIDs(t, db, fts, "eels"))

	_, err = db.Exec(`DELETE FROM "notes" WHERE id = ?`, id)
	require.NoError(t, err)
	assert.Empty(t, matchIDs(t, db, fts, "eels"))
}

func TestMirrorScopesMatchesToSourceColumns(t *testing.T) {
	m := noteModel()
	ed, db := openTestDB(t, m)
	fts := ed.IndexName(m.Table, []string{"search"}, "_fts")

	_, err := db.Exec(`INSERT INTO "notes" ("title", "body") VALUES (?, ?)`,
		"Hovercraft", "Maintenance notes.")
	require.NoError(t, err)

	assert.Len(t, matchIDs(t, db, fts, `title:hovercraft`), 1)
	assert.Empty(t, matchIDs(t, db, fts, `body:hovercraft`))
}

package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsvfield/tsvfield/tsvfield"
)

// pgQuoter mirrors the Postgres editor's quoting rules.
type pgQuoter struct{}

func (pgQuoter) QuoteName(name string) string   { return `"` + name + `"` }
func (pgQuoter) QuoteValue(value string) string { return "'" + value + "'" }

func twoColumnField() tsvfield.SearchVectorField {
	return tsvfield.SearchVectorField{
		Columns: []tsvfield.WeightedColumn{
			{Column: "title", Weight: tsvfield.WeightA},
			{Column: "body", Weight: tsvfield.WeightD},
		},
		Language: "english",
	}
}

func TestLanguageExpression(t *testing.T) {
	q := pgQuoter{}
	tests := []struct {
		name  string
		field tsvfield.SearchVectorField
		want  string
	}{
		{
			name:  "language and column",
			field: tsvfield.SearchVectorField{Language: "english", LanguageColumn: "lang"},
			want:  `COALESCE(NEW."lang"::regconfig, 'english')`,
		},
		{
			name:  "column only",
			field: tsvfield.SearchVectorField{LanguageColumn: "lang"},
			want:  `NEW."lang"::regconfig`,
		},
		{
			name:  "language only",
			field: tsvfield.SearchVectorField{Language: "german"},
			want:  `'german'`,
		},
		{
			name:  "neither falls back to english",
			field: tsvfield.SearchVectorField{},
			want:  `'english'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LanguageExpression(q, tt.field))
		})
	}
}

func TestVectorAssignment(t *testing.T) {
	lines := VectorAssignment(pgQuoter{}, twoColumnField(), "search")
	require.Equal(t, []string{
		`NEW."search" :=`,
		` setweight(to_tsvector('english', COALESCE(NEW."title", '')), 'A') ||`,
		` setweight(to_tsvector('english', COALESCE(NEW."body", '')), 'D');`,
	}, lines)
}

func TestVectorAssignmentPanicsWithoutColumns(t *testing.T) {
	require.Panics(t, func() {
		VectorAssignment(pgQuoter{}, tsvfield.SearchVectorField{}, "search")
	})
}

func TestPreconditions(t *testing.T) {
	lines := Preconditions(pgQuoter{}, twoColumnField(), "search")
	require.Equal(t, []string{
		`IF (TG_OP = 'INSERT') THEN do_update = true;`,
		`ELSIF (TG_OP = 'UPDATE') THEN`,
		` IF (NEW."search" IS NULL) THEN do_update = true;`,
		` ELSIF (NEW."title" IS DISTINCT FROM OLD."title") THEN do_update = true;`,
		` ELSIF (NEW."body" IS DISTINCT FROM OLD."body") THEN do_update = true;`,
		` END IF;`,
		`END IF;`,
	}, lines)
}

// With N source columns the guard carries N+1 inner branches, the null
// check plus one distinct-from check per column, inside the operation
// kind branch.
func TestPreconditionsBranchCount(t *testing.T) {
	for n := 1; n <= 5; n++ {
		field := tsvfield.SearchVectorField{Language: "english"}
		for i := 0; i < n; i++ {
			field.Columns = append(field.Columns, tsvfield.WeightedColumn{
				Column: "c" + string(rune('0'+i)), Weight: tsvfield.WeightA,
			})
		}

		joined := strings.Join(Preconditions(pgQuoter{}, field, "search"), "\n")
		assert.Equal(t, 1, strings.Count(joined, "IS NULL"))
		assert.Equal(t, n, strings.Count(joined, "IS DISTINCT FROM"))
		assert.Equal(t, 2, strings.Count(joined, "END IF;"))
	}
}

func TestPreconditionsForceUpdate(t *testing.T) {
	field := twoColumnField()
	field.ForceUpdate = true
	assert.Equal(t, []string{"do_update = true;"}, Preconditions(pgQuoter{}, field, "search"))
}

func TestCreateFunctionSQL(t *testing.T) {
	got := CreateFunctionSQL(pgQuoter{}, twoColumnField(), "blog_post_search_9f2a_func()", "search")
	want := `CREATE FUNCTION blog_post_search_9f2a_func() RETURNS trigger AS $$
DECLARE
 do_update bool default false;
BEGIN
 IF (TG_OP = 'INSERT') THEN do_update = true;
 ELSIF (TG_OP = 'UPDATE') THEN
  IF (NEW."search" IS NULL) THEN do_update = true;
  ELSIF (NEW."title" IS DISTINCT FROM OLD."title") THEN do_update = true;
  ELSIF (NEW."body" IS DISTINCT FROM OLD."body") THEN do_update = true;
  END IF;
 END IF;
 IF do_update THEN
  NEW."search" :=
   setweight(to_tsvector('english', COALESCE(NEW."title", '')), 'A') ||
   setweight(to_tsvector('english', COALESCE(NEW."body", '')), 'D');
 END IF;
 RETURN NEW;
END
$$ LANGUAGE plpgsql`
	assert.Equal(t, want, got)
}

func TestCreateFunctionSQLForceUpdate(t *testing.T) {
	field := twoColumnField()
	field.ForceUpdate = true
	got := CreateFunctionSQL(pgQuoter{}, field, "fn()", "search")
	assert.Contains(t, got, "BEGIN\n do_update = true;\n IF do_update THEN")
	assert.NotContains(t, got, "TG_OP")
}

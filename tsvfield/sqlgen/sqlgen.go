// Package sqlgen turns a search vector field declaration into the plpgsql
// fragments the trigger function is assembled from. All functions are pure:
// quoting rules belong to the target engine and are injected via Quoter.
package sqlgen

import (
	"strings"

	"github.com/tsvfield/tsvfield/tsvfield"
)

// Quoter supplies engine-specific identifier and literal quoting.
type Quoter interface {
	QuoteName(name string) string
	QuoteValue(value string) string
}

// DefaultLanguage is the text search configuration used when a field
// declares neither a language nor a language column.
const DefaultLanguage = "english"

// LanguageExpression returns the expression selecting the text search
// configuration for a row. A language column takes precedence per row,
// with the fixed language as COALESCE fallback when both are set.
func LanguageExpression(q Quoter, f tsvfield.SearchVectorField) string {
	switch {
	case f.LanguageColumn != "" && f.Language != "":
		return "COALESCE(NEW." + q.QuoteName(f.LanguageColumn) + "::regconfig, " + q.QuoteValue(f.Language) + ")"
	case f.LanguageColumn != "":
		return "NEW." + q.QuoteName(f.LanguageColumn) + "::regconfig"
	case f.Language != "":
		return q.QuoteValue(f.Language)
	default:
		return q.QuoteValue(DefaultLanguage)
	}
}

// weightLines emits one setweight term per declared column, joined later
// with vector append. Every line carries a trailing " ||" except the last,
// which is terminated with ";".
func weightLines(q Quoter, f tsvfield.SearchVectorField) []string {
	language := LanguageExpression(q, f)

	lines := make([]string, len(f.Columns))
	for i, wc := range f.Columns {
		lines[i] = " setweight(to_tsvector(" + language +
			", COALESCE(NEW." + q.QuoteName(wc.Column) + ", '')), " +
			q.QuoteValue(string(wc.Weight)) + ") ||"
	}
	last := lines[len(lines)-1]
	lines[len(lines)-1] = strings.TrimSuffix(last, " ||") + ";"
	return lines
}

// VectorAssignment returns the statement lines assigning the weighted
// vector expression to the derived column. Panics if the field declares no
// columns: callers must not generate trigger SQL for externally populated
// vectors.
func VectorAssignment(q Quoter, f tsvfield.SearchVectorField, column string) []string {
	if len(f.Columns) == 0 {
		panic("sqlgen: vector assignment requested for a field without source columns")
	}
	lines := []string{"NEW." + q.QuoteName(column) + " :="}
	return append(lines, weightLines(q, f)...)
}

// Preconditions returns the change-guard lines setting do_update. On
// insert the vector is always recomputed; on update only when the derived
// column is null or a source column changed under IS DISTINCT FROM
// semantics. A force_update field guards nothing.
func Preconditions(q Quoter, f tsvfield.SearchVectorField, column string) []string {
	if f.ForceUpdate {
		return []string{"do_update = true;"}
	}

	lines := []string{
		"IF (TG_OP = 'INSERT') THEN do_update = true;",
		"ELSIF (TG_OP = 'UPDATE') THEN",
		" IF (NEW." + q.QuoteName(column) + " IS NULL) THEN do_update = true;",
	}
	for _, wc := range f.Columns {
		name := q.QuoteName(wc.Column)
		lines = append(lines, " ELSIF (NEW."+name+" IS DISTINCT FROM OLD."+name+") THEN do_update = true;")
	}
	lines = append(lines, " END IF;", "END IF;")
	return lines
}

const createFunctionTemplate = "CREATE FUNCTION {function} RETURNS trigger AS $$\n" +
	"DECLARE\n" +
	" do_update bool default false;\n" +
	"BEGIN\n" +
	" {preconditions}\n" +
	" IF do_update THEN\n" +
	"  {to_tsvector}\n" +
	" END IF;\n" +
	" RETURN NEW;\n" +
	"END\n" +
	"$$ LANGUAGE plpgsql"

// CreateFunctionSQL assembles the full trigger function DDL. The function
// argument must already carry its parameter list, e.g. `post_search_xyz_func()`.
func CreateFunctionSQL(q Quoter, f tsvfield.SearchVectorField, function, column string) string {
	stmt := strings.Replace(createFunctionTemplate, "{function}", function, 1)
	stmt = strings.Replace(stmt, "{preconditions}", strings.Join(Preconditions(q, f, column), "\n "), 1)
	return strings.Replace(stmt, "{to_tsvector}", strings.Join(VectorAssignment(q, f, column), "\n  "), 1)
}

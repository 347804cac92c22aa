package tsvfield

import (
	"fmt"
	"regexp"
	"strings"
)

// Text search configuration names may be schema qualified.
var configNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Diagnostic codes, stable across releases. The numbering matches the
// convention used for database-backend checks: E1xx for field declaration
// problems, with E11x reported once per offending column.
const (
	E100 = "fulltext.E100" // columns set but model has no textual columns
	E101 = "fulltext.E101" // columns entries are not weighted-column shaped
	E102 = "fulltext.E102" // columns set without language or language_column
	E103 = "fulltext.E103" // language is not a valid configuration name
	E104 = "fulltext.E104" // language_column is not an existing textual column
	E105 = "fulltext.E105" // force_update is not unset, true or false
	E110 = "fulltext.E110" // a weighted column names a non-textual column
	E111 = "fulltext.E111" // a weighted column has an invalid weight
)

// Diagnostic is one declaration problem found by Check. Diagnostics are
// data, not errors: they are collected and reported by the host's check
// command and never abort anything on their own.
type Diagnostic struct {
	ID      string // machine-readable code, e.g. "fulltext.E102"
	Message string
	Object  string // "<model>.<field>" the diagnostic applies to
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Object, d.ID, d.Message)
}

// Check validates a search vector field declaration against its owning
// model and returns every diagnostic that applies. Fields without a vector
// descriptor produce no diagnostics. Checks run independently except where
// a later check is meaningless without an earlier one passing: malformed
// column entries suppress the per-column checks, and a missing language
// suppresses the language detail checks.
func Check(f Field, m Model) []Diagnostic {
	if f.Vector == nil {
		return nil
	}
	v := *f.Vector
	obj := m.Name + "." + f.Name
	textual := m.TextualColumns()

	var diags []Diagnostic
	shape := checkColumnsShape(v, obj, textual)
	diags = append(diags, shape...)
	diags = append(diags, checkLanguage(v, obj, textual)...)
	if len(shape) == 0 {
		diags = append(diags, checkWeightedColumns(v, obj, textual)...)
	}
	return diags
}

// CheckModel runs Check over every field of the model.
func CheckModel(m Model) []Diagnostic {
	var diags []Diagnostic
	for _, f := range m.Fields {
		diags = append(diags, Check(f, m)...)
	}
	return diags
}

func checkColumnsShape(v SearchVectorField, obj string, textual []string) []Diagnostic {
	if len(v.Columns) == 0 {
		return nil
	}

	if len(textual) == 0 {
		return []Diagnostic{{
			ID:      E100,
			Object:  obj,
			Message: "no textual columns available in this model for search vector indexing",
		}}
	}

	for _, wc := range v.Columns {
		if wc.Column == "" && wc.Weight == "" {
			return []Diagnostic{{
				ID:      E101,
				Object:  obj,
				Message: "'columns' must contain weighted column entries with a column name and a weight",
			}}
		}
	}
	return nil
}

func checkWeightedColumns(v SearchVectorField, obj string, textual []string) []Diagnostic {
	if len(v.Columns) == 0 || len(textual) == 0 {
		return nil
	}

	var diags []Diagnostic
	for _, wc := range v.Columns {
		if !contains(textual, wc.Column) {
			diags = append(diags, Diagnostic{
				ID:     E110,
				Object: obj,
				Message: fmt.Sprintf("column %q is not one of the available columns (%s)",
					wc.Column, quoteList(textual)),
			})
		}
		if !wc.Weight.Valid() {
			diags = append(diags, Diagnostic{
				ID:     E111,
				Object: obj,
				Message: fmt.Sprintf("weight %q is not one of the available weights (%s)",
					wc.Weight, quoteWeights(Weights)),
			})
		}
	}
	return diags
}

func checkLanguage(v SearchVectorField, obj string, textual []string) []Diagnostic {
	if len(v.Columns) > 0 && v.Language == "" && v.LanguageColumn == "" {
		return []Diagnostic{{
			ID:      E102,
			Object:  obj,
			Message: "'language' or 'language_column' is required when 'columns' is provided",
		}}
	}

	var diags []Diagnostic
	if v.Language != "" && !configNameRe.MatchString(v.Language) {
		diags = append(diags, Diagnostic{
			ID:      E103,
			Object:  obj,
			Message: fmt.Sprintf("'language' %q is not a valid text search configuration name", v.Language),
		})
	}
	if v.LanguageColumn != "" && !contains(textual, v.LanguageColumn) {
		diags = append(diags, Diagnostic{
			ID:     E104,
			Object: obj,
			Message: fmt.Sprintf("'language_column' %q is not one of the available columns (%s)",
				v.LanguageColumn, quoteList(textual)),
		})
	}
	return diags
}

// CheckForceUpdateValue validates the untyped force_update value as it
// appears in a serialized declaration, before it is narrowed to a bool.
// nil means unset.
func CheckForceUpdateValue(value any, obj string) []Diagnostic {
	switch value {
	case nil, true, false:
		return nil
	}
	return []Diagnostic{{
		ID:      E105,
		Object:  obj,
		Message: "'force_update' must be unset, true or false",
	}}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(quoted, ", ")
}

func quoteWeights(ws []Weight) string {
	quoted := make([]string, len(ws))
	for i, w := range ws {
		quoted[i] = fmt.Sprintf("%q", string(w))
	}
	return strings.Join(quoted, ", ")
}

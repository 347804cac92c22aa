package tsvfield

import (
	"fmt"
	"regexp"
)

// FieldType specifies the type of a field
type FieldType string

const (
	FieldChar         FieldType = "char"
	FieldText         FieldType = "text"
	FieldInteger      FieldType = "integer"
	FieldFloat        FieldType = "float"
	FieldBool         FieldType = "bool"
	FieldDate         FieldType = "date"
	FieldSearchVector FieldType = "tsvector"
)

// Textual reports whether values of this type live in a text column a
// trigger can feed into to_tsvector. Only single-table char/text columns
// qualify.
func (t FieldType) Textual() bool {
	return t == FieldChar || t == FieldText
}

// Field is one column of a record type.
type Field struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`

	// Vector carries the derived-column descriptor; set only when
	// Type == FieldSearchVector.
	Vector *SearchVectorField `json:"vector,omitempty" yaml:"vector,omitempty"`
}

// Model is the schema of one record type as seen by the trigger editor:
// the backing table plus its local (non-inherited) fields in declaration
// order.
type Model struct {
	Name   string  `json:"name" yaml:"name"`
	Table  string  `json:"table" yaml:"table"`
	Fields []Field `json:"fields" yaml:"fields"`
}

var validNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks structural soundness of the model declaration. Descriptor
// level diagnostics (E100..E111) are reported separately by Check.
func (m Model) Validate() error {
	if m.Name == "" {
		return SchemaError("model must have a name")
	}
	if !validNameRe.MatchString(m.Table) {
		return SchemaError(fmt.Sprintf("model %q: invalid table name %q (must match %s)", m.Name, m.Table, validNameRe.String()))
	}
	if len(m.Fields) == 0 {
		return SchemaError(fmt.Sprintf("model %q must have at least one field", m.Name))
	}

	seen := map[string]bool{}
	for _, f := range m.Fields {
		if !validNameRe.MatchString(f.Name) {
			return SchemaError(fmt.Sprintf("model %q: invalid field name %q", m.Name, f.Name))
		}
		if seen[f.Name] {
			return SchemaError(fmt.Sprintf("model %q: duplicate field %q", m.Name, f.Name))
		}
		seen[f.Name] = true

		switch f.Type {
		case FieldChar, FieldText, FieldInteger, FieldFloat, FieldBool, FieldDate, FieldSearchVector:
			// valid
		default:
			return SchemaError(fmt.Sprintf("model %q: unknown field type %q for field %q", m.Name, f.Type, f.Name))
		}

		if f.Vector != nil && f.Type != FieldSearchVector {
			return SchemaError(fmt.Sprintf("model %q: field %q carries a vector descriptor but is not a tsvector field", m.Name, f.Name))
		}
	}
	return nil
}

// Field retrieves a field by name.
func (m Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TextualColumns returns the names of the model's textual columns in
// declaration order. The trigger only sees columns of its own table, so
// this deliberately covers local fields only.
func (m Model) TextualColumns() []string {
	var cols []string
	for _, f := range m.Fields {
		if f.Type.Textual() {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// VectorFields returns the fields carrying a search vector descriptor, in
// declaration order.
func (m Model) VectorFields() []Field {
	var out []Field
	for _, f := range m.Fields {
		if f.Type == FieldSearchVector {
			out = append(out, f)
		}
	}
	return out
}

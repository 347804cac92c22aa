package tsvfield

import "encoding/json"

// Serialization mirrors the construction arguments of each type with
// default values omitted, so descriptors round-trip losslessly through
// persisted migration history.

// ToJSON serializes the model.
func (m Model) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ModelFromJSON deserializes and validates a model.
func ModelFromJSON(b []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return Model{}, Wrap(ErrSchema, "invalid model JSON", err)
	}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// ToJSON serializes the descriptor with defaults omitted.
func (f SearchVectorField) ToJSON() ([]byte, error) {
	return json.Marshal(f)
}

// SearchVectorFieldFromJSON reconstructs a descriptor from its serialized
// form.
func SearchVectorFieldFromJSON(b []byte) (SearchVectorField, error) {
	var f SearchVectorField
	if err := json.Unmarshal(b, &f); err != nil {
		return SearchVectorField{}, Wrap(ErrSchema, "invalid search vector field JSON", err)
	}
	return f, nil
}

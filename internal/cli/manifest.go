package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tsvfield/tsvfield/tsvfield"
)

// Manifest is the YAML declaration of the record types whose search
// vectors this tool manages.
type Manifest struct {
	Models []manifestModel `yaml:"models"`
}

type manifestModel struct {
	Name   string          `yaml:"name"`
	Table  string          `yaml:"table"`
	Fields []manifestField `yaml:"fields"`
}

type manifestField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Search vector attributes, meaningful for type tsvector only.
	Columns        []tsvfield.WeightedColumn `yaml:"columns"`
	Language       string                    `yaml:"language"`
	LanguageColumn string                    `yaml:"language_column"`
	// Decoded untyped so an invalid value surfaces as a diagnostic
	// instead of a YAML error.
	ForceUpdate any `yaml:"force_update"`
}

// LoadManifest reads a manifest file and converts it to models plus the
// declaration diagnostics found along the way. Structural problems (bad
// YAML, invalid names) are errors; descriptor problems are diagnostics.
func LoadManifest(path string) ([]tsvfield.Model, []tsvfield.Diagnostic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, tsvfield.Wrap(tsvfield.ErrIO, "read manifest", err)
	}

	var man Manifest
	if err := yaml.Unmarshal(raw, &man); err != nil {
		return nil, nil, tsvfield.Wrap(tsvfield.ErrManifest, "parse manifest YAML", err)
	}
	if len(man.Models) == 0 {
		return nil, nil, tsvfield.ManifestError("manifest declares no models")
	}

	var models []tsvfield.Model
	var diags []tsvfield.Diagnostic
	for _, mm := range man.Models {
		m := tsvfield.Model{Name: mm.Name, Table: mm.Table}
		for _, mf := range mm.Fields {
			f := tsvfield.Field{Name: mf.Name, Type: tsvfield.FieldType(mf.Type)}
			if f.Type == tsvfield.FieldSearchVector {
				obj := mm.Name + "." + mf.Name
				diags = append(diags, tsvfield.CheckForceUpdateValue(mf.ForceUpdate, obj)...)
				f.Vector = &tsvfield.SearchVectorField{
					Columns:        mf.Columns,
					Language:       mf.Language,
					LanguageColumn: mf.LanguageColumn,
					ForceUpdate:    mf.ForceUpdate == true,
				}
			}
			m.Fields = append(m.Fields, f)
		}
		if err := m.Validate(); err != nil {
			return nil, nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		diags = append(diags, tsvfield.CheckModel(m)...)
		models = append(models, m)
	}
	return models, diags, nil
}

// FindModel returns the declared model with the given name.
func FindModel(models []tsvfield.Model, name string) (tsvfield.Model, error) {
	for _, m := range models {
		if m.Name == name {
			return m, nil
		}
	}
	return tsvfield.Model{}, tsvfield.NotFoundError(fmt.Sprintf("model %q not in manifest", name))
}

package tsvfield

// Weight is one of the four PostgreSQL text-search priority tiers.
// A ranks highest, D lowest.
type Weight string

const (
	WeightA Weight = "A"
	WeightB Weight = "B"
	WeightC Weight = "C"
	WeightD Weight = "D"
)

// Weights lists the valid tiers in rank order.
var Weights = []Weight{WeightA, WeightB, WeightC, WeightD}

// Valid reports whether w is one of the four tiers.
func (w Weight) Valid() bool {
	for _, v := range Weights {
		if w == v {
			return true
		}
	}
	return false
}

// WeightedColumn pairs a source column with the weight its tokens receive
// in the generated search vector.
type WeightedColumn struct {
	Column string `json:"column" yaml:"column"`
	Weight Weight `json:"weight" yaml:"weight"`
}

// SearchVectorField describes a tsvector column whose value is maintained
// by a database trigger from the listed source columns.
//
// Columns order is significant: it determines concatenation order in the
// generated vector expression. An empty Columns slice means the vector is
// populated externally and only the GIN index is managed.
type SearchVectorField struct {
	// Columns are the weighted source columns, in concatenation order.
	Columns []WeightedColumn `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Language is a fixed text-search configuration name, e.g. "english".
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// LanguageColumn names a column on the same record that supplies the
	// configuration per row. When both Language and LanguageColumn are set
	// the column value wins, with Language as the COALESCE fallback.
	LanguageColumn string `json:"language_column,omitempty" yaml:"language_column,omitempty"`

	// ForceUpdate disables the change guard: the vector is recomputed on
	// every insert and update.
	ForceUpdate bool `json:"force_update,omitempty" yaml:"force_update,omitempty"`
}

// SourceColumns returns the source column names in declared order.
func (f SearchVectorField) SourceColumns() []string {
	cols := make([]string, len(f.Columns))
	for i, wc := range f.Columns {
		cols[i] = wc.Column
	}
	return cols
}

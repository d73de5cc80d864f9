// Package model defines core data structures for TableFlow.
package model

// FieldType is the semantic type of a schema field or profiled column.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
	TypeURL     FieldType = "url"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeDate, TypeEmail, TypeURL, TypeArray, TypeObject:
		return true
	}
	return false
}

// ColumnTypes are the types the analyzer can infer from raw cells.
// Array and object never come out of a delimited file.
var ColumnTypes = []FieldType{TypeString, TypeNumber, TypeBoolean, TypeDate, TypeEmail, TypeURL}

// RawTable is the parsed content of a delimited file: ordered headers and
// ordered rows of raw cell values. Blank cells stand in for nulls.
// A RawTable is immutable once built; the pipeline only ever reads it.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// ColumnProfile summarizes one column from a bounded sample of rows.
// Recomputed per run, never persisted.
type ColumnProfile struct {
	Header      string
	Type        FieldType
	NullCount   int
	UniqueCount int
	Samples     []string
	SampledRows int
}

// NullRatio returns the fraction of sampled cells that were blank.
func (p ColumnProfile) NullRatio() float64 {
	if p.SampledRows == 0 {
		return 0
	}
	return float64(p.NullCount) / float64(p.SampledRows)
}

// RuleSet holds per-field validation rules. Nil pointers mean "no rule".
type RuleSet struct {
	Min       *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty" json:"minLength,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty" json:"maxLength,omitempty"`
}

// SchemaField describes one target field of a schema.
type SchemaField struct {
	Name     string    `yaml:"name" json:"name"`
	Type     FieldType `yaml:"type" json:"type"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Unique   bool      `yaml:"unique,omitempty" json:"unique,omitempty"`
	Default  any       `yaml:"default,omitempty" json:"default,omitempty"`
	Rules    *RuleSet  `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Schema is an ordered set of fields. Either supplied whole by the caller or
// synthesized by inference; the two may be merged with caller fields winning.
type Schema struct {
	Fields []SchemaField `yaml:"fields" json:"fields"`
}

// Field returns the field with the given name, if present.
func (s *Schema) Field(name string) (SchemaField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// Required returns the names of all required fields, in schema order.
func (s *Schema) Required() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// UniqueFields returns the names of all unique fields, in schema order.
func (s *Schema) UniqueFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Unique {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldMatch is one resolved header-to-field mapping with its confidence.
type FieldMatch struct {
	Field      string
	Confidence float64
}

// FieldMapping maps each source header to its target field, if any.
// Headers holds the original header order; unmapped headers are absent
// from Matches and dropped from output.
type FieldMapping struct {
	Headers []string
	Matches map[string]FieldMatch
}

// Fields returns the flat header-to-field map consumers build on.
func (m FieldMapping) Fields() map[string]string {
	out := make(map[string]string, len(m.Matches))
	for h, match := range m.Matches {
		out[h] = match.Field
	}
	return out
}

// Record maps schema field names to transformed values. Values are string,
// float64, bool, or nil after fixing; raw strings before.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single validation finding tied to a row and field.
// Row numbers are 1-based and refer to the original RawTable row order.
type Diagnostic struct {
	Row            int      `json:"row"`
	Field          string   `json:"field"`
	Message        string   `json:"message"`
	Severity       Severity `json:"severity"`
	OriginalValue  any      `json:"originalValue"`
	SuggestedValue any      `json:"suggestedValue,omitempty"`
}

// Transformation is an audit entry for a value the fixer changed.
// Row numbers are 1-based, matching Diagnostic.
type Transformation struct {
	Row           int    `json:"row"`
	Field         string `json:"field"`
	Operation     string `json:"operation"`
	OriginalValue any    `json:"originalValue"`
	NewValue      any    `json:"newValue"`
}

// Stats aggregates counters across a pipeline run.
type Stats struct {
	TotalRows              int `json:"totalRows"`
	ValidRows              int `json:"validRows"`
	InvalidRows            int `json:"invalidRows"`
	FieldsProcessed        int `json:"fieldsProcessed"`
	TransformationsApplied int `json:"transformationsApplied"`
	DuplicatesRemoved      int `json:"duplicatesRemoved"`
}

// PipelineResult is the sole externally visible artifact of a run. Two runs
// over identical input produce identical results; only the explicit
// deduplication step ever modifies one after the run finishes.
type PipelineResult struct {
	Mapping         map[string]string `json:"mapping"`
	CleanedData     []Record          `json:"cleanedData"`
	Errors          []Diagnostic      `json:"errors"`
	Warnings        []string          `json:"warnings"`
	Stats           Stats             `json:"stats"`
	Suggestions     []string          `json:"suggestions"`
	Transformations []Transformation  `json:"transformations,omitempty"`
}

// Package schema provides schema inference, merging, and structural validation.
//
// A schema is either supplied whole by the caller or synthesized from column
// profiles when none exists. Caller-supplied schemas are validated up front and
// structural problems are fatal; they never become row diagnostics.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tableflow/tableflow/internal/model"
)

// requiredThreshold marks an inferred field required when at least this share
// of its sampled values is non-blank.
const requiredThreshold = 0.9

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeName canonicalizes a header or field name: lowercase, runs of
// non-alphanumerics collapsed to a single underscore, edges trimmed.
func NormalizeName(name string) string {
	n := nonAlnum.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(n, "_")
}

// Infer builds a candidate schema from column profiles, one field per header,
// preserving column order.
func Infer(profiles []model.ColumnProfile) *model.Schema {
	s := &model.Schema{Fields: make([]model.SchemaField, 0, len(profiles))}
	for _, p := range profiles {
		nonBlank := p.SampledRows - p.NullCount
		s.Fields = append(s.Fields, model.SchemaField{
			Name:     NormalizeName(p.Header),
			Type:     p.Type,
			Required: p.SampledRows > 0 && float64(nonBlank) >= float64(p.SampledRows)*requiredThreshold,
		})
	}
	return s
}

// Merge unions the inferred and user schemas. Field ordering follows the
// inferred schema with merged fields in place; user-only fields are appended
// in their own order. On a name collision the user field's properties win.
func Merge(inferred, user *model.Schema) *model.Schema {
	if user == nil {
		return inferred
	}
	if inferred == nil {
		return user
	}

	userByName := make(map[string]model.SchemaField, len(user.Fields))
	for _, f := range user.Fields {
		userByName[f.Name] = f
	}

	merged := &model.Schema{Fields: make([]model.SchemaField, 0, len(inferred.Fields))}
	seen := make(map[string]bool, len(inferred.Fields))

	for _, f := range inferred.Fields {
		seen[f.Name] = true
		if u, ok := userByName[f.Name]; ok {
			merged.Fields = append(merged.Fields, mergeField(f, u))
			continue
		}
		merged.Fields = append(merged.Fields, f)
	}

	for _, f := range user.Fields {
		if !seen[f.Name] {
			merged.Fields = append(merged.Fields, f)
		}
	}

	return merged
}

// mergeField overlays user properties onto an inferred field. Flags always
// follow the user field; typed properties fall back to the inferred ones only
// when the user left them unset.
func mergeField(inferred, user model.SchemaField) model.SchemaField {
	out := inferred
	out.Required = user.Required
	out.Unique = user.Unique
	if user.Type != "" {
		out.Type = user.Type
	}
	if user.Default != nil {
		out.Default = user.Default
	}
	if user.Rules != nil {
		out.Rules = user.Rules
	}
	return out
}

// InvalidSchemaError reports structural problems in a caller-supplied schema.
// It is fatal: the pipeline refuses to run rather than producing diagnostics.
type InvalidSchemaError struct {
	Problems []string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("invalid schema: %s", strings.Join(e.Problems, "; "))
}

// Validate checks a caller-supplied schema for structural problems: missing
// fields, duplicate or empty names, unknown type tags, min above max.
func Validate(s *model.Schema) error {
	var problems []string

	if s == nil || len(s.Fields) == 0 {
		problems = append(problems, "schema has no fields")
		return &InvalidSchemaError{Problems: problems}
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			problems = append(problems, fmt.Sprintf("field %d has an empty name", i))
			continue
		}
		if seen[f.Name] {
			problems = append(problems, fmt.Sprintf("duplicate field name %q", f.Name))
		}
		seen[f.Name] = true

		if !f.Type.Valid() {
			problems = append(problems, fmt.Sprintf("field %q has unknown type %q", f.Name, f.Type))
		}

		if f.Rules != nil && f.Rules.Min != nil && f.Rules.Max != nil && *f.Rules.Min > *f.Rules.Max {
			problems = append(problems, fmt.Sprintf("field %q has min %v greater than max %v",
				f.Name, *f.Rules.Min, *f.Rules.Max))
		}
		if f.Rules != nil && f.Rules.MinLength != nil && f.Rules.MaxLength != nil &&
			*f.Rules.MinLength > *f.Rules.MaxLength {
			problems = append(problems, fmt.Sprintf("field %q has min_length %d greater than max_length %d",
				f.Name, *f.Rules.MinLength, *f.Rules.MaxLength))
		}
		if f.Rules != nil && f.Rules.Pattern != "" {
			if _, err := regexp.Compile(f.Rules.Pattern); err != nil {
				problems = append(problems, fmt.Sprintf("field %q has an invalid pattern: %v", f.Name, err))
			}
		}
	}

	if len(problems) > 0 {
		return &InvalidSchemaError{Problems: problems}
	}
	return nil
}

// Load reads a schema from a YAML or JSON file, selected by extension.
func Load(path string) (*model.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s model.Schema
	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, &s)
	default:
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}

	return &s, nil
}

// Save writes the schema to a YAML file.
func Save(s *model.Schema, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

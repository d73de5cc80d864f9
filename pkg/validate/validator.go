// Package validate checks records against a schema and collects diagnostics.
//
// Diagnostics are values, never panics or returned errors: the validator
// always runs to completion and reports everything it found. An error-severity
// diagnostic blocks a record from being import-ready unless the fixer can
// resolve it; warnings are advisory. Where a safe coercion exists for a type
// mismatch the diagnostic carries a suggested value for the fixer; range and
// length violations never do, because no safe correction exists for them.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tableflow/tableflow/internal/coerce"
	"github.com/tableflow/tableflow/internal/model"
)

// longStringThreshold marks suspiciously long values in schema-absent mode.
const longStringThreshold = 10000

// Validator checks records against one schema. Construct one per pipeline
// invocation; compiled rule patterns are cached for its lifetime only.
type Validator struct {
	schema   *model.Schema
	patterns map[string]*regexp.Regexp
}

// New creates a validator. A nil schema selects heuristic mode: field names
// containing "email"/"mail" or "url"/"website" get format checks, and very
// long strings draw a warning.
func New(s *model.Schema) *Validator {
	return &Validator{
		schema:   s,
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Result is the outcome of validating one record set.
type Result struct {
	Diagnostics []model.Diagnostic
	ValidRows   int
	InvalidRows int
	IsValid     bool
	Warnings    []string
}

// Validate checks every record. Row numbers in diagnostics are 1-based and
// follow the record order, which matches the original table order.
func (v *Validator) Validate(records []model.Record) *Result {
	result := &Result{}

	for i, record := range records {
		var diags []model.Diagnostic
		if v.schema != nil {
			diags = v.validateRecord(i+1, record)
		} else {
			diags = v.validateHeuristic(i+1, record)
		}
		result.Diagnostics = append(result.Diagnostics, diags...)

		if hasError(diags) {
			result.InvalidRows++
		} else {
			result.ValidRows++
		}
	}

	result.IsValid = result.InvalidRows == 0
	if result.InvalidRows > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%d rows have validation errors that must be fixed before import", result.InvalidRows))
	}

	return result
}

func hasError(diags []model.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

// validateRecord runs the schema-present checks on one record.
func (v *Validator) validateRecord(row int, record model.Record) []model.Diagnostic {
	var diags []model.Diagnostic

	// Required fields first.
	for _, name := range v.schema.Required() {
		if empty(record[name]) {
			diags = append(diags, model.Diagnostic{
				Row:           row,
				Field:         name,
				Message:       "Required field is missing or empty",
				Severity:      model.SeverityError,
				OriginalValue: record[name],
			})
		}
	}

	for _, field := range v.schema.Fields {
		value := record[field.Name]
		if empty(value) {
			// Absence was handled above when the field is required; an empty
			// unique value still gets flagged since it can never be distinct.
			if field.Unique && !field.Required {
				diags = append(diags, model.Diagnostic{
					Row:           row,
					Field:         field.Name,
					Message:       "Unique field is empty",
					Severity:      model.SeverityError,
					OriginalValue: value,
				})
			}
			continue
		}

		if d, ok := v.checkType(row, field, value); ok {
			diags = append(diags, d)
		}
		diags = append(diags, v.checkRules(row, field, value)...)
	}

	return diags
}

// checkType verifies one value against its field type. The returned
// diagnostic carries a suggested value when a safe coercion exists.
func (v *Validator) checkType(row int, field model.SchemaField, value any) (model.Diagnostic, bool) {
	diag := model.Diagnostic{
		Row:           row,
		Field:         field.Name,
		Severity:      model.SeverityError,
		OriginalValue: value,
	}

	switch field.Type {
	case model.TypeEmail:
		s, isStr := value.(string)
		if isStr && coerce.IsEmail(s) {
			return diag, false
		}
		diag.Message = "Invalid email format"
		if isStr {
			if fixed := strings.ToLower(strings.TrimSpace(s)); coerce.IsEmail(fixed) {
				diag.SuggestedValue = fixed
			}
		}
		return diag, true

	case model.TypeURL:
		s, isStr := value.(string)
		if isStr && coerce.IsURL(s) {
			return diag, false
		}
		diag.Message = "Invalid URL format"
		if isStr {
			if fixed := strings.TrimSpace(s); coerce.IsURL(fixed) {
				diag.SuggestedValue = fixed
			}
		}
		return diag, true

	case model.TypeNumber:
		switch n := value.(type) {
		case float64, int, int64:
			return diag, false
		case string:
			if coerce.IsNumber(n) {
				return diag, false
			}
			diag.Message = "Invalid number format"
			if parsed, ok := coerce.ParseNumber(n); ok {
				diag.SuggestedValue = parsed
			}
			return diag, true
		}
		diag.Message = "Invalid number format"
		return diag, true

	case model.TypeBoolean:
		switch b := value.(type) {
		case bool:
			return diag, false
		case string:
			if coerce.IsBoolean(b) {
				return diag, false
			}
			diag.Message = "Invalid boolean format"
			if parsed, ok := coerce.ParseBoolean(b); ok {
				diag.SuggestedValue = parsed
			}
			return diag, true
		}
		diag.Message = "Invalid boolean format"
		return diag, true

	case model.TypeDate:
		s, isStr := value.(string)
		if !isStr {
			diag.Message = "Invalid date format"
			return diag, true
		}
		trimmed := strings.TrimSpace(s)
		if isISODate(trimmed) {
			return diag, false
		}
		diag.Message = "Invalid date format"
		// Parseable non-ISO dates get a canonical suggestion the fixer applies.
		if parsed, ok := coerce.ParseDate(trimmed); ok {
			diag.SuggestedValue = coerce.ISODate(parsed)
		}
		return diag, true

	case model.TypeArray:
		if _, ok := value.([]any); ok {
			return diag, false
		}
		diag.Message = "Expected an array"
		return diag, true

	case model.TypeObject:
		if _, ok := value.(map[string]any); ok {
			return diag, false
		}
		diag.Message = "Expected an object"
		return diag, true
	}

	// Plain strings: anything goes.
	return diag, false
}

var isoDateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

func isISODate(s string) bool {
	return isoDateOnly.MatchString(s)
}

// checkRules applies the field's validation rule set. Rule violations never
// carry suggestions: there is no safe correction for an out-of-range value.
func (v *Validator) checkRules(row int, field model.SchemaField, value any) []model.Diagnostic {
	rules := field.Rules
	if rules == nil {
		return nil
	}

	var diags []model.Diagnostic
	fail := func(message string) {
		diags = append(diags, model.Diagnostic{
			Row:           row,
			Field:         field.Name,
			Message:       message,
			Severity:      model.SeverityError,
			OriginalValue: value,
		})
	}

	if rules.Min != nil || rules.Max != nil {
		if n, ok := numeric(value); ok {
			if rules.Min != nil && n < *rules.Min {
				fail(fmt.Sprintf("Value %s is below minimum %s", formatNumber(n), formatNumber(*rules.Min)))
			}
			if rules.Max != nil && n > *rules.Max {
				fail(fmt.Sprintf("Value %s exceeds maximum %s", formatNumber(n), formatNumber(*rules.Max)))
			}
		}
	}

	if s, ok := value.(string); ok {
		if rules.MinLength != nil && len(s) < *rules.MinLength {
			fail(fmt.Sprintf("Value is shorter than minimum length %d", *rules.MinLength))
		}
		if rules.MaxLength != nil && len(s) > *rules.MaxLength {
			fail(fmt.Sprintf("Value exceeds maximum length %d", *rules.MaxLength))
		}
		if rules.Pattern != "" {
			if re := v.pattern(rules.Pattern); re != nil && !re.MatchString(s) {
				fail(fmt.Sprintf("Value does not match pattern %q", rules.Pattern))
			}
		}
	}

	return diags
}

// validateHeuristic runs the schema-absent checks on one record. Fields are
// walked in sorted name order so output is deterministic.
func (v *Validator) validateHeuristic(row int, record model.Record) []model.Diagnostic {
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)

	var diags []model.Diagnostic
	for _, name := range names {
		s, ok := record[name].(string)
		if !ok || coerce.Blank(s) {
			continue
		}
		lower := strings.ToLower(name)

		switch {
		case strings.Contains(lower, "email") || strings.Contains(lower, "mail"):
			if !coerce.IsEmail(s) {
				d := model.Diagnostic{
					Row:           row,
					Field:         name,
					Message:       "Invalid email format",
					Severity:      model.SeverityError,
					OriginalValue: s,
				}
				if fixed := strings.ToLower(strings.TrimSpace(s)); coerce.IsEmail(fixed) {
					d.SuggestedValue = fixed
				}
				diags = append(diags, d)
			}
		case strings.Contains(lower, "url") || strings.Contains(lower, "website"):
			if !coerce.IsURL(s) {
				diags = append(diags, model.Diagnostic{
					Row:           row,
					Field:         name,
					Message:       "Invalid URL format",
					Severity:      model.SeverityError,
					OriginalValue: s,
				})
			}
		}

		if len(s) > longStringThreshold {
			diags = append(diags, model.Diagnostic{
				Row:           row,
				Field:         name,
				Message:       fmt.Sprintf("Value is unusually long (%d characters)", len(s)),
				Severity:      model.SeverityWarning,
				OriginalValue: s,
			})
		}
	}

	return diags
}

// pattern returns a compiled rule pattern, caching per validator. Patterns
// that fail to compile are skipped; schema validation rejects them up front.
func (v *Validator) pattern(expr string) *regexp.Regexp {
	if re, ok := v.patterns[expr]; ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	v.patterns[expr] = re
	return re
}

func numeric(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return coerce.ParseNumber(n)
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func empty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return coerce.Blank(s)
	}
	return false
}

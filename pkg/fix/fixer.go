// Package fix applies safe, deterministic corrections to records.
//
// Two classes of change happen here. Universal fixes run on every value with
// no diagnostic required: whitespace trimming, email lower-casing, numeric and
// boolean coercion from the fixed vocabularies. Suggested fixes come from the
// validator; only diagnostics carrying a non-nil suggested value are applied,
// everything else passes through unresolved. Every change is logged as a
// Transformation so callers can audit exactly what the fixer did.
//
// All fixes are idempotent: running the fixer over its own output with the
// same diagnostics changes nothing. Duplicate marking is a separate pass
// (MarkDuplicates) the orchestrator invokes once per run.
package fix

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tableflow/tableflow/internal/coerce"
	"github.com/tableflow/tableflow/internal/model"
)

// Result is the outcome of one fixer pass.
type Result struct {
	FixedData       []model.Record
	Transformations []model.Transformation
	UnfixableErrors []model.Diagnostic
}

// Apply runs the fixer over all records. Input records are never mutated;
// each is shallow-copied before any change. Row numbers follow the input
// order, 1-based.
func Apply(records []model.Record, diagnostics []model.Diagnostic) *Result {
	result := &Result{FixedData: make([]model.Record, 0, len(records))}

	// Index suggestions by row so the per-row pass stays linear. Diagnostics
	// without a suggestion are unfixable and surface unchanged.
	suggested := make(map[int][]model.Diagnostic)
	for _, d := range diagnostics {
		if d.SuggestedValue != nil {
			suggested[d.Row] = append(suggested[d.Row], d)
		} else {
			result.UnfixableErrors = append(result.UnfixableErrors, d)
		}
	}

	for i, record := range records {
		row := i + 1
		fixed := record.Clone()

		result.Transformations = append(result.Transformations, applyUniversal(row, fixed)...)

		for _, d := range suggested[row] {
			current := fixed[d.Field]
			if current == d.SuggestedValue {
				continue
			}
			fixed[d.Field] = d.SuggestedValue
			result.Transformations = append(result.Transformations, model.Transformation{
				Row:           row,
				Field:         d.Field,
				Operation:     slug(d.Message),
				OriginalValue: current,
				NewValue:      d.SuggestedValue,
			})
		}

		result.FixedData = append(result.FixedData, fixed)
	}

	return result
}

// applyUniversal runs the diagnostic-free fixes on one record, mutating it in
// place. Fields are walked in sorted name order so the transformation log is
// stable across runs.
func applyUniversal(row int, record model.Record) []model.Transformation {
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)

	var transformations []model.Transformation
	log := func(field, operation string, original, updated any) {
		record[field] = updated
		transformations = append(transformations, model.Transformation{
			Row:           row,
			Field:         field,
			Operation:     operation,
			OriginalValue: original,
			NewValue:      updated,
		})
	}

	for _, name := range names {
		s, ok := record[name].(string)
		if !ok {
			continue
		}

		if trimmed := strings.TrimSpace(s); trimmed != s {
			log(name, "trim-whitespace", s, trimmed)
			s = trimmed
		}

		if strings.Contains(strings.ToLower(name), "email") {
			if lowered := strings.ToLower(s); lowered != s {
				log(name, "lowercase-email", s, lowered)
				s = lowered
			}
		}

		// Numeric coercion wins over boolean for ambiguous values like "1";
		// the boolean pass only ever sees strings.
		if n, ok := coerce.ParseNumber(s); ok {
			log(name, "parse-number", s, n)
			continue
		}

		if b, ok := coerce.ParseBoolean(s); ok {
			log(name, "parse-boolean", s, b)
		}
	}

	return transformations
}

// MarkDuplicates tags every record whose canonical hash was already seen with
// a mark-duplicate transformation. Records are never removed here; removal is
// a separate operation the caller must invoke explicitly.
func MarkDuplicates(records []model.Record) []model.Transformation {
	var transformations []model.Transformation
	seen := make(map[string]int, len(records))

	for i, record := range records {
		hash := canonicalHash(record)
		if first, ok := seen[hash]; ok {
			transformations = append(transformations, model.Transformation{
				Row:           i + 1,
				Operation:     "mark-duplicate",
				OriginalValue: fmt.Sprintf("duplicate of row %d", first),
			})
			continue
		}
		seen[hash] = i + 1
	}

	return transformations
}

// canonicalHash builds a normalized identity for a record: values stringified,
// trimmed and lower-cased, joined in sorted key order. Two records that differ
// only in case or surrounding whitespace hash identically.
func canonicalHash(record model.Record) string {
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := strings.ToLower(strings.TrimSpace(fmt.Sprint(record[name])))
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, "|")
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slug derives a transformation operation tag from a diagnostic message,
// e.g. "Invalid email format" becomes "invalid-email-format".
func slug(message string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(message), "-"), "-")
}

// Package match resolves source column headers to schema field names.
//
// Resolution walks four tiers in strict priority order and stops at the first
// that yields a match: exact normalized match (confidence 1.0), generated name
// variants (0.9), synonym-table lookup (0.85), substring containment (0.6).
// An exact match therefore always dominates any weaker tier for the same
// header. Matching is deterministic and rule-based; there is no statistical
// scoring.
package match

import (
	"fmt"
	"strings"

	"github.com/tableflow/tableflow/internal/model"
	"github.com/tableflow/tableflow/pkg/schema"
)

// Confidence assigned by each tier.
const (
	ConfidenceExact   = 1.0
	ConfidenceVariant = 0.9
	ConfidenceSynonym = 0.85
	ConfidencePartial = 0.6
	reviewThreshold   = 0.8
)

// Matcher maps headers onto one schema's fields. Construct one per pipeline
// invocation; it holds no state beyond the schema it was built with.
type Matcher struct {
	fields     []string // normalized, schema order
	fieldNames map[string]string
}

// New creates a matcher for the given schema. A nil schema produces identity
// mappings: every header maps to its own normalized form at full confidence.
func New(s *model.Schema) *Matcher {
	m := &Matcher{fieldNames: make(map[string]string)}
	if s == nil {
		return m
	}
	for _, f := range s.Fields {
		n := schema.NormalizeName(f.Name)
		m.fields = append(m.fields, n)
		m.fieldNames[n] = f.Name
	}
	return m
}

// Result is the outcome of matching one header set.
type Result struct {
	Mapping     model.FieldMapping
	Suggestions []string
}

// Match resolves every header. Headers that resolve below the review
// threshold get a suggestion; schema-required fields left unmapped get a
// high-priority one.
func (m *Matcher) Match(headers []string, s *model.Schema) *Result {
	result := &Result{
		Mapping: model.FieldMapping{
			Headers: headers,
			Matches: make(map[string]model.FieldMatch, len(headers)),
		},
	}

	for _, header := range headers {
		normalized := schema.NormalizeName(header)
		if normalized == "" {
			continue
		}

		if len(m.fields) == 0 {
			// No schema: headers map 1:1 to their normalized form.
			result.Mapping.Matches[header] = model.FieldMatch{
				Field:      normalized,
				Confidence: ConfidenceExact,
			}
			continue
		}

		field, confidence, ok := m.resolve(normalized)
		if !ok {
			continue
		}

		result.Mapping.Matches[header] = model.FieldMatch{Field: field, Confidence: confidence}
		if confidence < reviewThreshold {
			result.Suggestions = append(result.Suggestions, fmt.Sprintf(
				"Column %q was mapped to field %q with low confidence (%.2f); review before import",
				header, field, confidence))
		}
	}

	if s != nil {
		mapped := make(map[string]bool, len(result.Mapping.Matches))
		for _, match := range result.Mapping.Matches {
			mapped[match.Field] = true
		}
		for _, required := range s.Required() {
			if !mapped[required] {
				result.Suggestions = append(result.Suggestions, fmt.Sprintf(
					"Required field %q is not mapped to any column; import may fail", required))
			}
		}
	}

	return result
}

// resolve walks the tiers for one normalized header and returns the first hit.
// Ties within a tier break on schema field order.
func (m *Matcher) resolve(header string) (string, float64, bool) {
	// Tier 1: exact.
	if name, ok := m.fieldNames[header]; ok {
		return name, ConfidenceExact, true
	}

	// Tier 2: generated variants of the header.
	for _, v := range variants(header) {
		if name, ok := m.fieldNames[v]; ok {
			return name, ConfidenceVariant, true
		}
	}

	// Tier 3: synonym table, either direction. Canonical concepts are walked
	// in a fixed order so repeated runs resolve ties identically.
	for _, canonical := range canonicalConcepts {
		alts := synonyms[canonical]
		if header == canonical {
			for _, field := range m.fields {
				if containsString(alts, field) {
					return m.fieldNames[field], ConfidenceSynonym, true
				}
			}
		}
		if containsString(alts, header) {
			if name, ok := m.fieldNames[canonical]; ok {
				return name, ConfidenceSynonym, true
			}
		}
	}

	// Tier 4: substring containment, either direction.
	for _, field := range m.fields {
		if strings.Contains(field, header) || strings.Contains(header, field) {
			return m.fieldNames[field], ConfidencePartial, true
		}
	}

	return "", 0, false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

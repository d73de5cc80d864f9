package fix

import (
	"testing"

	"github.com/tableflow/tableflow/internal/model"
)

func findTransformation(ts []model.Transformation, row int, field, op string) *model.Transformation {
	for i := range ts {
		if ts[i].Row == row && ts[i].Field == field && ts[i].Operation == op {
			return &ts[i]
		}
	}
	return nil
}

func TestUniversalFixes(t *testing.T) {
	records := []model.Record{{
		"name":   "  Alice  ",
		"email":  "ALICE@EXAMPLE.COM",
		"age":    "30",
		"salary": "$1,234.50",
		"active": "yes",
	}}

	result := Apply(records, nil)
	fixed := result.FixedData[0]

	if fixed["name"] != "Alice" {
		t.Errorf("name = %v, want trimmed", fixed["name"])
	}
	if fixed["email"] != "alice@example.com" {
		t.Errorf("email = %v, want lower-cased", fixed["email"])
	}
	if fixed["age"] != 30.0 {
		t.Errorf("age = %v (%T), want 30.0", fixed["age"], fixed["age"])
	}
	if fixed["salary"] != 1234.50 {
		t.Errorf("salary = %v, want 1234.50", fixed["salary"])
	}
	if fixed["active"] != true {
		t.Errorf("active = %v, want true", fixed["active"])
	}

	expectedOps := []struct {
		field string
		op    string
	}{
		{"name", "trim-whitespace"},
		{"email", "lowercase-email"},
		{"age", "parse-number"},
		{"salary", "parse-number"},
		{"active", "parse-boolean"},
	}
	for _, e := range expectedOps {
		if findTransformation(result.Transformations, 1, e.field, e.op) == nil {
			t.Errorf("missing transformation %s on %s; got %v", e.op, e.field, result.Transformations)
		}
	}
}

func TestInputRecordsNotMutated(t *testing.T) {
	records := []model.Record{{"name": "  Alice  "}}
	Apply(records, nil)

	if records[0]["name"] != "  Alice  " {
		t.Errorf("input record was mutated: %v", records[0])
	}
}

func TestNumericCoercionWinsOverBoolean(t *testing.T) {
	result := Apply([]model.Record{{"flag": "1"}}, nil)
	if result.FixedData[0]["flag"] != 1.0 {
		t.Errorf("flag = %v (%T), want 1.0", result.FixedData[0]["flag"], result.FixedData[0]["flag"])
	}
}

func TestSuggestedFixApplied(t *testing.T) {
	records := []model.Record{{"joined": "3/15/2024"}}
	diags := []model.Diagnostic{{
		Row:            1,
		Field:          "joined",
		Message:        "Invalid date format",
		Severity:       model.SeverityError,
		OriginalValue:  "3/15/2024",
		SuggestedValue: "2024-03-15",
	}}

	result := Apply(records, diags)

	if result.FixedData[0]["joined"] != "2024-03-15" {
		t.Errorf("joined = %v, want suggested value applied", result.FixedData[0]["joined"])
	}
	if findTransformation(result.Transformations, 1, "joined", "invalid-date-format") == nil {
		t.Errorf("missing slug-tagged transformation; got %v", result.Transformations)
	}
	if len(result.UnfixableErrors) != 0 {
		t.Errorf("suggested diagnostic should not pass through: %v", result.UnfixableErrors)
	}
}

func TestUnfixableDiagnosticPassedThrough(t *testing.T) {
	records := []model.Record{{"age": 150.0}}
	diags := []model.Diagnostic{{
		Row:           1,
		Field:         "age",
		Message:       "Value 150 exceeds maximum 120",
		Severity:      model.SeverityError,
		OriginalValue: 150.0,
	}}

	result := Apply(records, diags)

	if len(result.UnfixableErrors) != 1 {
		t.Fatalf("unfixable count = %d, want 1", len(result.UnfixableErrors))
	}
	if result.FixedData[0]["age"] != 150.0 {
		t.Errorf("out-of-range value must not be changed, got %v", result.FixedData[0]["age"])
	}
}

func TestFixIdempotence(t *testing.T) {
	// Includes an exact duplicate row; duplicates must not generate
	// transformations on a second pass either.
	records := []model.Record{
		{"name": "  Alice  ", "email": "A@X.COM", "age": "30", "joined": "3/15/2024"},
		{"name": "Bob", "email": "b@x.com", "age": "31", "joined": "2024-01-01"},
		{"name": "Bob", "email": "b@x.com", "age": "31", "joined": "2024-01-01"},
	}
	diags := []model.Diagnostic{{
		Row: 1, Field: "joined", Message: "Invalid date format",
		Severity: model.SeverityError, SuggestedValue: "2024-03-15",
	}}

	first := Apply(records, diags)
	if len(first.Transformations) == 0 {
		t.Fatal("first pass should apply fixes")
	}

	second := Apply(first.FixedData, diags)
	if len(second.Transformations) != 0 {
		t.Errorf("second pass applied %d transformations: %v",
			len(second.Transformations), second.Transformations)
	}
}

func TestMarkDuplicates(t *testing.T) {
	records := []model.Record{
		{"name": "Alice", "city": "Austin"},
		{"name": " ALICE ", "city": "austin"},
		{"name": "Bob", "city": "Boston"},
	}

	transformations := MarkDuplicates(records)

	if len(transformations) != 1 {
		t.Fatalf("transformation count = %d, want 1", len(transformations))
	}
	tr := transformations[0]
	if tr.Row != 2 || tr.Operation != "mark-duplicate" {
		t.Errorf("transformation = %+v", tr)
	}
}

func TestMarkDuplicatesNeverRemoves(t *testing.T) {
	records := []model.Record{{"a": "x"}, {"a": "x"}}

	transformations := MarkDuplicates(records)

	if len(records) != 2 {
		t.Errorf("duplicate marking removed rows: %d left", len(records))
	}
	if findTransformation(transformations, 2, "", "mark-duplicate") == nil {
		t.Errorf("missing mark-duplicate transformation: %v", transformations)
	}
}

func TestApplyDoesNotMarkDuplicates(t *testing.T) {
	// Marking is a separate per-run pass; Apply itself stays re-runnable.
	result := Apply([]model.Record{{"a": "x"}, {"a": "x"}}, nil)

	if len(result.Transformations) != 0 {
		t.Errorf("Apply emitted transformations for duplicate rows: %v", result.Transformations)
	}
}

func TestRemoveDuplicates(t *testing.T) {
	records := []model.Record{
		{"a": "x"},
		{"a": "x"},
		{"a": "y"},
		{"a": "x"},
	}

	kept, transformations := RemoveDuplicates(records)

	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	if len(transformations) != 2 {
		t.Fatalf("transformation count = %d, want 2", len(transformations))
	}
	if transformations[0].Row != 2 || transformations[1].Row != 4 {
		t.Errorf("rows = %d, %d, want 2 and 4", transformations[0].Row, transformations[1].Row)
	}
	for _, tr := range transformations {
		if tr.Operation != "remove-duplicate" {
			t.Errorf("operation = %q, want remove-duplicate", tr.Operation)
		}
	}
}

func TestRemoveDuplicatesIsExact(t *testing.T) {
	// Unlike marking, removal compares exact serialized values.
	records := []model.Record{
		{"name": "Alice"},
		{"name": " alice "},
	}
	kept, transformations := RemoveDuplicates(records)

	if len(kept) != 2 || len(transformations) != 0 {
		t.Errorf("case-differing records must survive removal: kept %d", len(kept))
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Invalid email format", "invalid-email-format"},
		{"Value 150 exceeds maximum 120", "value-150-exceeds-maximum-120"},
		{"Required field is missing or empty", "required-field-is-missing-or-empty"},
	}

	for _, tt := range tests {
		if got := slug(tt.input); got != tt.expected {
			t.Errorf("slug(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

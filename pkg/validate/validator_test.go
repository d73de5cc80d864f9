package validate

import (
	"strings"
	"testing"

	"github.com/tableflow/tableflow/internal/model"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func findDiagnostic(diags []model.Diagnostic, field, message string) *model.Diagnostic {
	for i := range diags {
		if diags[i].Field == field && diags[i].Message == message {
			return &diags[i]
		}
	}
	return nil
}

func TestRequiredFieldMissing(t *testing.T) {
	s := &model.Schema{Fields: []model.SchemaField{
		{Name: "name", Type: model.TypeString, Required: true},
	}}

	tests := []struct {
		name   string
		record model.Record
	}{
		{"absent", model.Record{}},
		{"nil value", model.Record{"name": nil}},
		{"empty string", model.Record{"name": ""}},
		{"whitespace only", model.Record{"name": "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(s).Validate([]model.Record{tt.record})
			d := findDiagnostic(result.Diagnostics, "name", "Required field is missing or empty")
			if d == nil {
				t.Fatalf("expected required-field diagnostic, got %v", result.Diagnostics)
			}
			if d.Severity != model.SeverityError || d.Row != 1 {
				t.Errorf("diagnostic = %+v, want error severity at row 1", d)
			}
			if result.IsValid {
				t.Error("result should not be valid")
			}
		})
	}
}

func TestTypeChecks(t *testing.T) {
	tests := []struct {
		name      string
		fieldType model.FieldType
		value     any
		message   string // empty means the value is valid
		suggested any
	}{
		{"valid email", model.TypeEmail, "jane@example.com", "", nil},
		{"uppercase email still valid", model.TypeEmail, "JANE@EXAMPLE.COM", "", nil},
		{"malformed email", model.TypeEmail, "not-an-email", "Invalid email format", nil},
		{"valid url", model.TypeURL, "https://example.com", "", nil},
		{"bad url", model.TypeURL, "example.com", "Invalid URL format", nil},
		{"numeric string", model.TypeNumber, "42", "", nil},
		{"symbol-stripped number", model.TypeNumber, "$1,234", "", nil},
		{"already numeric", model.TypeNumber, 42.0, "", nil},
		{"bad number", model.TypeNumber, "abc", "Invalid number format", nil},
		{"boolean word", model.TypeBoolean, "yes", "", nil},
		{"already boolean", model.TypeBoolean, true, "", nil},
		{"bad boolean", model.TypeBoolean, "maybe", "Invalid boolean format", nil},
		{"iso date", model.TypeDate, "2024-03-15", "", nil},
		{"slash date normalizable", model.TypeDate, "3/15/2024", "Invalid date format", "2024-03-15"},
		{"unparseable date", model.TypeDate, "next tuesday", "Invalid date format", nil},
		{"plain string", model.TypeString, "anything at all", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &model.Schema{Fields: []model.SchemaField{{Name: "f", Type: tt.fieldType}}}
			result := New(s).Validate([]model.Record{{"f": tt.value}})

			if tt.message == "" {
				if len(result.Diagnostics) != 0 {
					t.Fatalf("expected no diagnostics, got %v", result.Diagnostics)
				}
				return
			}

			d := findDiagnostic(result.Diagnostics, "f", tt.message)
			if d == nil {
				t.Fatalf("expected %q diagnostic, got %v", tt.message, result.Diagnostics)
			}
			if d.SuggestedValue != tt.suggested {
				t.Errorf("SuggestedValue = %v, want %v", d.SuggestedValue, tt.suggested)
			}
		})
	}
}

func TestRuleChecks(t *testing.T) {
	s := &model.Schema{Fields: []model.SchemaField{
		{Name: "age", Type: model.TypeNumber, Rules: &model.RuleSet{Min: f64(0), Max: f64(120)}},
		{Name: "code", Type: model.TypeString, Rules: &model.RuleSet{MinLength: intp(2), MaxLength: intp(4), Pattern: "^[A-Z]+$"}},
	}}

	result := New(s).Validate([]model.Record{
		{"age": "150", "code": "ABC"},
		{"age": "-5", "code": "x"},
		{"age": 30.0, "code": "TOOLONG"},
		{"age": "42", "code": "ab"},
	})

	expectations := []struct {
		field   string
		message string
	}{
		{"age", "Value 150 exceeds maximum 120"},
		{"age", "Value -5 is below minimum 0"},
		{"code", "Value is shorter than minimum length 2"},
		{"code", "Value exceeds maximum length 4"},
		{"code", `Value does not match pattern "^[A-Z]+$"`},
	}
	for _, e := range expectations {
		d := findDiagnostic(result.Diagnostics, e.field, e.message)
		if d == nil {
			t.Errorf("missing diagnostic %q on %s; got %v", e.message, e.field, result.Diagnostics)
			continue
		}
		if d.SuggestedValue != nil {
			t.Errorf("rule violation %q must not carry a suggestion", e.message)
		}
	}
}

func TestUniqueFieldEmpty(t *testing.T) {
	s := &model.Schema{Fields: []model.SchemaField{
		{Name: "sku", Type: model.TypeString, Unique: true},
	}}

	result := New(s).Validate([]model.Record{{"sku": ""}})
	if findDiagnostic(result.Diagnostics, "sku", "Unique field is empty") == nil {
		t.Errorf("expected unique-empty diagnostic, got %v", result.Diagnostics)
	}
}

func TestHeuristicMode(t *testing.T) {
	result := New(nil).Validate([]model.Record{
		{"contact_email": "not-an-email", "website_url": "example.com", "notes": "fine"},
	})

	if findDiagnostic(result.Diagnostics, "contact_email", "Invalid email format") == nil {
		t.Errorf("expected heuristic email diagnostic, got %v", result.Diagnostics)
	}
	if findDiagnostic(result.Diagnostics, "website_url", "Invalid URL format") == nil {
		t.Errorf("expected heuristic url diagnostic, got %v", result.Diagnostics)
	}
	if len(result.Diagnostics) != 2 {
		t.Errorf("unrelated fields should not be checked, got %v", result.Diagnostics)
	}
}

func TestHeuristicLongStringWarning(t *testing.T) {
	long := strings.Repeat("x", 10001)
	result := New(nil).Validate([]model.Record{{"notes": long}})

	if len(result.Diagnostics) != 1 {
		t.Fatalf("diagnostic count = %d, want 1", len(result.Diagnostics))
	}
	d := result.Diagnostics[0]
	if d.Severity != model.SeverityWarning {
		t.Errorf("severity = %q, want warning", d.Severity)
	}
	if !strings.Contains(d.Message, "10001 characters") {
		t.Errorf("message = %q", d.Message)
	}
	// Warnings alone do not make a row invalid.
	if !result.IsValid || result.InvalidRows != 0 {
		t.Errorf("warning-only result should be valid: %+v", result)
	}
}

func TestResultCountsAndWarning(t *testing.T) {
	s := &model.Schema{Fields: []model.SchemaField{
		{Name: "name", Type: model.TypeString, Required: true},
	}}

	result := New(s).Validate([]model.Record{
		{"name": "Alice"},
		{"name": ""},
		{"name": "Cara"},
		{"name": nil},
	})

	if result.ValidRows != 2 || result.InvalidRows != 2 {
		t.Errorf("counts = %d/%d, want 2/2", result.ValidRows, result.InvalidRows)
	}
	if result.IsValid {
		t.Error("result should not be valid")
	}
	if len(result.Warnings) != 1 ||
		result.Warnings[0] != "2 rows have validation errors that must be fixed before import" {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestOptionalFieldSkipped(t *testing.T) {
	s := &model.Schema{Fields: []model.SchemaField{
		{Name: "age", Type: model.TypeNumber},
	}}

	result := New(s).Validate([]model.Record{{"age": ""}, {}})
	if len(result.Diagnostics) != 0 {
		t.Errorf("absent optional fields should not be checked, got %v", result.Diagnostics)
	}
}

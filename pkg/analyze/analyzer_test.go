package analyze

import (
	"strings"
	"testing"

	"github.com/tableflow/tableflow/internal/model"
)

func columnTable(header string, values []string) *model.RawTable {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return &model.RawTable{Headers: []string{header}, Rows: rows}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected model.FieldType
	}{
		{"emails", []string{"a@example.com", "b@example.org"}, model.TypeEmail},
		{"urls", []string{"http://x.com", "https://y.io/path"}, model.TypeURL},
		{"booleans", []string{"yes", "NO", "true", "0"}, model.TypeBoolean},
		{"numbers", []string{"1", "2.5", "$3,000"}, model.TypeNumber},
		{"dates on any match", []string{"3/15/2024", "sometime later"}, model.TypeDate},
		{"strings", []string{"hello", "world"}, model.TypeString},
		{"blanks excluded from vote", []string{"a@example.com", "", "  ", "b@example.org"}, model.TypeEmail},
		{"mixed falls back to string", []string{"a@example.com", "42"}, model.TypeString},
		{"empty column", []string{"", ""}, model.TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := New(0).Analyze(columnTable("col", tt.values))
			if got := report.Profiles[0].Type; got != tt.expected {
				t.Errorf("detected type = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestProfileCounts(t *testing.T) {
	report := New(0).Analyze(columnTable("city", []string{"austin", "", "boston", "austin", " "}))
	p := report.Profiles[0]

	if p.SampledRows != 5 {
		t.Errorf("SampledRows = %d, want 5", p.SampledRows)
	}
	if p.NullCount != 2 {
		t.Errorf("NullCount = %d, want 2", p.NullCount)
	}
	if p.UniqueCount != 2 {
		t.Errorf("UniqueCount = %d, want 2", p.UniqueCount)
	}
}

func TestSampleSizeBound(t *testing.T) {
	values := make([]string, 50)
	for i := range values {
		values[i] = "v"
	}
	report := New(10).Analyze(columnTable("col", values))
	if got := report.Profiles[0].SampledRows; got != 10 {
		t.Errorf("SampledRows = %d, want 10", got)
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{"sparse column", []string{"x", "", "", ""}, "75% empty"},
		{"identifier candidate", []string{"aa", "bb", "cc"}, "all-unique values"},
		{"email column", []string{"a@x.com", "b@x.com"}, "contains email addresses"},
		{"url column", []string{"http://a.com", "http://b.com"}, "contains URLs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := New(0).Analyze(columnTable("col", tt.values))
			found := false
			for _, rec := range report.Recommendations {
				if strings.Contains(rec, tt.expected) {
					found = true
				}
			}
			if !found {
				t.Errorf("no recommendation containing %q in %v", tt.expected, report.Recommendations)
			}
		})
	}
}

func TestEnumRecommendation(t *testing.T) {
	values := make([]string, 20)
	for i := range values {
		if i%2 == 0 {
			values[i] = "active"
		} else {
			values[i] = "inactive"
		}
	}

	report := New(0).Analyze(columnTable("status", values))
	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "only 2 distinct values") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected enum recommendation, got %v", report.Recommendations)
	}
}

package transform

import (
	"testing"

	"github.com/tableflow/tableflow/internal/model"
)

func TestApplyProjection(t *testing.T) {
	table := &model.RawTable{
		Headers: []string{"Name", "Email", "Ignore Me"},
		Rows: [][]string{
			{"Alice", "a@example.com", "x"},
			{"Bob", "b@example.com", "y"},
		},
	}
	mapping := model.FieldMapping{
		Headers: table.Headers,
		Matches: map[string]model.FieldMatch{
			"Name":  {Field: "name", Confidence: 1.0},
			"Email": {Field: "email", Confidence: 1.0},
		},
	}

	records := Apply(table, mapping)

	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
	if records[0]["name"] != "Alice" || records[0]["email"] != "a@example.com" {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if _, ok := records[0]["Ignore Me"]; ok {
		t.Error("unmapped header leaked into record")
	}
	if len(records[0]) != 2 {
		t.Errorf("record field count = %d, want 2", len(records[0]))
	}
}

func TestApplyShortRow(t *testing.T) {
	table := &model.RawTable{
		Headers: []string{"Name", "Email"},
		Rows:    [][]string{{"Alice"}},
	}
	mapping := model.FieldMapping{
		Headers: table.Headers,
		Matches: map[string]model.FieldMatch{
			"Name":  {Field: "name", Confidence: 1.0},
			"Email": {Field: "email", Confidence: 1.0},
		},
	}

	records := Apply(table, mapping)

	if records[0]["name"] != "Alice" {
		t.Errorf("name = %v, want Alice", records[0]["name"])
	}
	value, present := records[0]["email"]
	if !present || value != nil {
		t.Errorf("missing cell should project as nil, got (%v, %v)", value, present)
	}
}

func TestApplyEmptyMapping(t *testing.T) {
	table := &model.RawTable{
		Headers: []string{"a"},
		Rows:    [][]string{{"1"}, {"2"}},
	}

	records := Apply(table, model.FieldMapping{Headers: table.Headers})

	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
	for _, r := range records {
		if len(r) != 0 {
			t.Errorf("expected empty record, got %v", r)
		}
	}
}

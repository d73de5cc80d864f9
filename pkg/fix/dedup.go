package fix

import (
	"encoding/json"

	"github.com/tableflow/tableflow/internal/model"
)

// RemoveDuplicates drops every record whose full serialized form was already
// seen, keeping first occurrences. Unlike MarkDuplicates this compares exact
// values, not canonical hashes: "Alice" and " alice " are distinct here.
// Callers that want removal reflected in pipeline stats report the returned
// transformations back through the orchestrator.
func RemoveDuplicates(records []model.Record) ([]model.Record, []model.Transformation) {
	kept := make([]model.Record, 0, len(records))
	var transformations []model.Transformation
	seen := make(map[string]bool, len(records))

	for i, record := range records {
		key := serialize(record)
		if seen[key] {
			transformations = append(transformations, model.Transformation{
				Row:           i + 1,
				Operation:     "remove-duplicate",
				OriginalValue: key,
			})
			continue
		}
		seen[key] = true
		kept = append(kept, record)
	}

	return kept, transformations
}

// serialize renders a record as its JSON form. Map keys marshal in sorted
// order, so equal records always serialize identically.
func serialize(record model.Record) string {
	data, err := json.Marshal(record)
	if err != nil {
		return ""
	}
	return string(data)
}

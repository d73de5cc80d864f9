// Package transform projects raw rows into field-keyed records through a
// resolved mapping. It is a pure projection: no coercion, no validation.
package transform

import (
	"github.com/tableflow/tableflow/internal/model"
)

// Apply projects every row of the table. Headers without a mapping are
// omitted from the output records. A row shorter than the header list yields
// nil for the missing cells rather than an error; the validator flags those
// later if the field is required.
func Apply(table *model.RawTable, mapping model.FieldMapping) []model.Record {
	records := make([]model.Record, 0, len(table.Rows))

	for _, row := range table.Rows {
		record := make(model.Record, len(mapping.Matches))
		for col, header := range table.Headers {
			match, ok := mapping.Matches[header]
			if !ok {
				continue
			}
			if col < len(row) {
				record[match.Field] = row[col]
			} else {
				record[match.Field] = nil
			}
		}
		records = append(records, record)
	}

	return records
}

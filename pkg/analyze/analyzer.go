// Package analyze profiles tabular columns from a bounded sample of rows.
//
// For each column the analyzer infers a primitive type by testing, in priority
// order, whether every non-blank sampled value matches: email, url, boolean
// vocabulary, number, then date. Blank values never vote; they are counted
// separately. The analyzer is a pure function of its inputs and keeps no state
// between runs.
package analyze

import (
	"fmt"

	"github.com/tableflow/tableflow/internal/coerce"
	"github.com/tableflow/tableflow/internal/model"
)

const (
	// DefaultSampleSize bounds how many rows are profiled per column.
	DefaultSampleSize = 100

	// maxSamples is how many example values each profile keeps.
	maxSamples = 5

	// highNullRatio triggers a sparse-column recommendation.
	highNullRatio = 0.5

	// enumMaxUniques and enumMaxRatio gate the enum-candidate recommendation.
	enumMaxUniques = 10
	enumMaxRatio   = 0.2
)

// Analyzer profiles columns and emits free-text recommendations.
type Analyzer struct {
	sampleSize int
}

// New creates an analyzer. sampleSize <= 0 selects the default.
func New(sampleSize int) *Analyzer {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Analyzer{sampleSize: sampleSize}
}

// Report holds the per-column profiles and recommendations for one table.
type Report struct {
	Profiles        []model.ColumnProfile
	Recommendations []string
}

// Analyze profiles every column of the table from the first sampleSize rows.
func (a *Analyzer) Analyze(table *model.RawTable) *Report {
	sample := table.Rows
	if len(sample) > a.sampleSize {
		sample = sample[:a.sampleSize]
	}

	report := &Report{
		Profiles: make([]model.ColumnProfile, 0, len(table.Headers)),
	}

	for col, header := range table.Headers {
		profile := profileColumn(header, col, sample)
		report.Profiles = append(report.Profiles, profile)
		report.Recommendations = append(report.Recommendations, recommend(profile)...)
	}

	return report
}

// profileColumn computes the profile for a single column index.
func profileColumn(header string, col int, rows [][]string) model.ColumnProfile {
	profile := model.ColumnProfile{
		Header:      header,
		SampledRows: len(rows),
	}

	var values []string
	uniques := make(map[string]struct{})
	for _, row := range rows {
		var cell string
		if col < len(row) {
			cell = row[col]
		}
		if coerce.Blank(cell) {
			profile.NullCount++
			continue
		}
		values = append(values, cell)
		uniques[cell] = struct{}{}
		if len(profile.Samples) < maxSamples {
			profile.Samples = append(profile.Samples, cell)
		}
	}

	profile.UniqueCount = len(uniques)
	profile.Type = detectType(values)
	return profile
}

// detectType runs the priority-ordered type vote over non-blank values.
// Email through number require every value to match; date fires if any value
// has a date shape. Empty columns default to string.
func detectType(values []string) model.FieldType {
	if len(values) == 0 {
		return model.TypeString
	}

	if all(values, coerce.IsEmail) {
		return model.TypeEmail
	}
	if all(values, coerce.IsURL) {
		return model.TypeURL
	}
	if all(values, coerce.IsBoolean) {
		return model.TypeBoolean
	}
	if all(values, coerce.IsNumber) {
		return model.TypeNumber
	}
	for _, v := range values {
		if coerce.LooksLikeDate(v) {
			return model.TypeDate
		}
	}
	return model.TypeString
}

func all(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

// recommend converts one profile into zero or more human-readable hints.
func recommend(p model.ColumnProfile) []string {
	var recs []string

	if p.NullRatio() > highNullRatio {
		recs = append(recs, fmt.Sprintf(
			"Column %q is %.0f%% empty; consider making it optional or dropping it",
			p.Header, p.NullRatio()*100))
	}

	nonNull := p.SampledRows - p.NullCount
	if p.Type == model.TypeString && nonNull > 0 && p.UniqueCount == nonNull {
		recs = append(recs, fmt.Sprintf(
			"Column %q has all-unique values and could serve as an identifier", p.Header))
	}

	switch p.Type {
	case model.TypeEmail:
		recs = append(recs, fmt.Sprintf("Column %q contains email addresses", p.Header))
	case model.TypeURL:
		recs = append(recs, fmt.Sprintf("Column %q contains URLs", p.Header))
	}

	if nonNull > 0 && p.UniqueCount <= enumMaxUniques &&
		float64(p.UniqueCount) < float64(p.SampledRows)*enumMaxRatio {
		recs = append(recs, fmt.Sprintf(
			"Column %q has only %d distinct values; consider an enum constraint",
			p.Header, p.UniqueCount))
	}

	return recs
}

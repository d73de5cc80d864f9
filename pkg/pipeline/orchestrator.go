// Package pipeline sequences the reconciliation stages over one raw table.
//
// The flow is strictly forward: analyze, infer or validate the schema, match
// headers to fields, project rows into records, validate, fix. Each stage is
// a pure function over the previous stage's output; a run is synchronous,
// reentrant, and deterministic for identical input. The only short-circuits
// are fatal input conditions: empty input, missing headers, or a structurally
// invalid caller-supplied schema.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tableflow/tableflow/internal/model"
	"github.com/tableflow/tableflow/pkg/analyze"
	"github.com/tableflow/tableflow/pkg/fix"
	"github.com/tableflow/tableflow/pkg/match"
	"github.com/tableflow/tableflow/pkg/schema"
	"github.com/tableflow/tableflow/pkg/telemetry"
	"github.com/tableflow/tableflow/pkg/transform"
	"github.com/tableflow/tableflow/pkg/validate"
)

// Orchestrator runs the full pipeline. Configure with the With* methods, then
// call Run once per input table; an orchestrator holds no per-run state and is
// safe to reuse across files.
type Orchestrator struct {
	schema     *model.Schema
	sampleSize int
	tracer     trace.Tracer
}

// New creates an orchestrator with default sampling and no schema. Without a
// schema the validator runs in heuristic mode and headers map to their own
// normalized names.
func New() *Orchestrator {
	return &Orchestrator{
		sampleSize: analyze.DefaultSampleSize,
		tracer:     telemetry.NoopTracer(),
	}
}

// WithSchema sets the caller-supplied schema. It is validated at the start of
// every run; a structurally invalid schema fails the run.
func (o *Orchestrator) WithSchema(s *model.Schema) *Orchestrator {
	o.schema = s
	return o
}

// WithSampleSize bounds how many rows the analyzer inspects.
func (o *Orchestrator) WithSampleSize(n int) *Orchestrator {
	if n > 0 {
		o.sampleSize = n
	}
	return o
}

// WithTracer sets the tracer used for per-stage spans.
func (o *Orchestrator) WithTracer(t trace.Tracer) *Orchestrator {
	if t != nil {
		o.tracer = t
	}
	return o
}

// Run executes all stages over the table and returns the consolidated result.
// The returned error is non-nil only for fatal conditions; row-level problems
// are reported inside the result.
func (o *Orchestrator) Run(ctx context.Context, table *model.RawTable) (*model.PipelineResult, error) {
	if table == nil || (len(table.Headers) == 0 && len(table.Rows) == 0) {
		return nil, ErrEmptyInput
	}
	if len(table.Headers) == 0 {
		return nil, ErrNoHeaders
	}
	if len(table.Rows) == 0 {
		return nil, ErrEmptyInput
	}

	if o.schema != nil {
		if err := schema.Validate(o.schema); err != nil {
			return nil, err
		}
	}

	ctx, runSpan := o.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", uuid.NewString()),
		attribute.Int("rows", len(table.Rows)),
		attribute.Int("columns", len(table.Headers)),
		attribute.Bool("schema", o.schema != nil),
	))
	defer runSpan.End()

	_, span := o.tracer.Start(ctx, "pipeline.analyze")
	report := analyze.New(o.sampleSize).Analyze(table)
	span.End()

	_, span = o.tracer.Start(ctx, "pipeline.match")
	matched := match.New(o.schema).Match(table.Headers, o.schema)
	span.End()

	_, span = o.tracer.Start(ctx, "pipeline.transform")
	records := transform.Apply(table, matched.Mapping)
	span.End()

	_, span = o.tracer.Start(ctx, "pipeline.validate")
	validated := validate.New(o.schema).Validate(records)
	span.End()

	_, span = o.tracer.Start(ctx, "pipeline.fix")
	fixed := fix.Apply(records, validated.Diagnostics)
	// Marking runs once per pipeline run, not inside the fixer, so re-running
	// the fixer over its own output stays a no-op.
	marks := fix.MarkDuplicates(fixed.FixedData)
	span.End()

	transformations := append(fixed.Transformations, marks...)

	result := &model.PipelineResult{
		Mapping:         matched.Mapping.Fields(),
		CleanedData:     fixed.FixedData,
		Errors:          fixed.UnfixableErrors,
		Warnings:        validated.Warnings,
		Transformations: transformations,
		Stats: model.Stats{
			TotalRows:              len(table.Rows),
			ValidRows:              validated.ValidRows,
			InvalidRows:            validated.InvalidRows,
			FieldsProcessed:        len(table.Headers),
			TransformationsApplied: len(transformations),
		},
	}
	result.Suggestions = append(result.Suggestions, report.Recommendations...)
	result.Suggestions = append(result.Suggestions, matched.Suggestions...)

	runSpan.SetAttributes(
		attribute.Int("valid_rows", result.Stats.ValidRows),
		attribute.Int("invalid_rows", result.Stats.InvalidRows),
		attribute.Int("transformations", result.Stats.TransformationsApplied),
	)

	return result, nil
}

// Deduplicate removes exact duplicate records from a finished result and
// reports the removals back through the result's stats. Duplicate marking
// during the run never removes rows; this is the explicit opt-in removal.
func Deduplicate(result *model.PipelineResult) {
	kept, removed := fix.RemoveDuplicates(result.CleanedData)
	result.CleanedData = kept
	result.Transformations = append(result.Transformations, removed...)
	result.Stats.TransformationsApplied += len(removed)
	result.Stats.DuplicatesRemoved += len(removed)
}

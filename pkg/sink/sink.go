// Package sink delivers cleaned records to persistence backends.
//
// All sinks share the same delivery contract: records are split into bounded
// batches, batches are submitted sequentially one at a time, and a failed
// batch never cancels or retries the rest. The caller gets a partial-success
// count and a per-batch error list.
package sink

import (
	"context"
	"fmt"
	"sort"

	"github.com/tableflow/tableflow/internal/model"
)

// DefaultBatchSize bounds records per batch to respect backend limits.
const DefaultBatchSize = 200

// Sink is a persistence backend for cleaned records.
type Sink interface {
	// Name identifies the provider in logs and reports.
	Name() string

	// TestConnection verifies the backend is reachable and writable.
	TestConnection(ctx context.Context) error

	// Import delivers records in sequential batches. onProgress, when
	// non-nil, is called after every batch with delivered and total counts.
	Import(ctx context.Context, records []model.Record, onProgress func(done, total int)) (*ImportResult, error)

	// Purge removes everything previously imported through this sink.
	Purge(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// ImportResult reports a (possibly partial) import outcome.
type ImportResult struct {
	Success int
	Failure int
	Errors  []BatchError
}

// BatchError ties a delivery failure to one batch.
type BatchError struct {
	Batch int
	Rows  int
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d rows): %v", e.Batch, e.Rows, e.Err)
}

// Config selects and configures a sink provider.
type Config struct {
	// Provider is one of "file", "duckdb", "parquet", "s3", "redis".
	Provider string `yaml:"provider" json:"provider"`

	// Path is the output path for file-backed providers.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Table is the target table name for database providers.
	Table string `yaml:"table,omitempty" json:"table,omitempty"`

	// BatchSize overrides the default records-per-batch bound.
	BatchSize int `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`

	S3    S3Config    `yaml:"s3,omitempty" json:"s3,omitempty"`
	Redis RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// New builds the configured sink.
func New(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Provider {
	case "file", "jsonl":
		return NewFileSink(cfg.Path, cfg.BatchSize)
	case "duckdb":
		return NewDuckDBSink(cfg.Path, cfg.Table, cfg.BatchSize)
	case "parquet":
		return NewParquetSink(cfg.Path, cfg.BatchSize)
	case "s3":
		return NewS3Sink(ctx, cfg.S3, cfg.BatchSize)
	case "redis":
		return NewRedisSink(cfg.Redis, cfg.BatchSize)
	default:
		return nil, fmt.Errorf("unknown sink provider %q", cfg.Provider)
	}
}

// importBatches implements the shared delivery loop: sequential batches,
// failures recorded but never fatal to later batches.
func importBatches(ctx context.Context, records []model.Record, batchSize int,
	onProgress func(done, total int), send func(ctx context.Context, batch []model.Record, batchNum int) error) (*ImportResult, error) {

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	result := &ImportResult{}
	total := len(records)
	batchNum := 0

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := records[start:end]
		batchNum++

		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := send(ctx, batch, batchNum); err != nil {
			result.Failure += len(batch)
			result.Errors = append(result.Errors, BatchError{Batch: batchNum, Rows: len(batch), Err: err})
		} else {
			result.Success += len(batch)
		}

		if onProgress != nil {
			onProgress(start+len(batch), total)
		}
	}

	return result, nil
}

// fieldsOf returns the sorted union of field names across records, giving
// every sink a stable column order.
func fieldsOf(records []model.Record) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, r := range records {
		for name := range r {
			if !seen[name] {
				seen[name] = true
				fields = append(fields, name)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

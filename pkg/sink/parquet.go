package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/tableflow/tableflow/internal/model"
)

// ParquetSink writes records to a Parquet file via Arrow. The Arrow schema is
// derived from the records on import: float64 columns become FLOAT64, bool
// columns BOOL, everything else STRING with nulls for missing values.
type ParquetSink struct {
	path      string
	batchSize int
	allocator memory.Allocator
}

// NewParquetSink creates a sink writing one Parquet file at path.
func NewParquetSink(path string, batchSize int) (*ParquetSink, error) {
	if path == "" {
		return nil, fmt.Errorf("parquet sink requires a path")
	}
	return &ParquetSink{
		path:      path,
		batchSize: batchSize,
		allocator: memory.NewGoAllocator(),
	}, nil
}

func (s *ParquetSink) Name() string { return "parquet" }

func (s *ParquetSink) TestConnection(ctx context.Context) error {
	return os.MkdirAll(filepath.Dir(s.path), 0755)
}

// Import writes all records as one Parquet file, one row group per batch.
// Parquet files are immutable, so unlike the other sinks a mid-file failure
// aborts the import instead of continuing with later batches.
func (s *ParquetSink) Import(ctx context.Context, records []model.Record, onProgress func(done, total int)) (*ImportResult, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, err
	}

	fields := fieldsOf(records)
	schema := arrowSchema(records, fields)

	file, err := os.Create(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(true),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, file, writerProps, arrowProps)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	result, importErr := importBatches(ctx, records, s.batchSize, onProgress,
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			return s.writeBatch(writer, schema, fields, batch)
		})

	if err := writer.Close(); err != nil && importErr == nil {
		importErr = fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return result, importErr
}

func (s *ParquetSink) writeBatch(writer *pqarrow.FileWriter, schema *arrow.Schema, fields []string, batch []model.Record) error {
	builders := make([]array.Builder, len(fields))
	for i, f := range schema.Fields() {
		switch f.Type.ID() {
		case arrow.FLOAT64:
			builders[i] = array.NewFloat64Builder(s.allocator)
		case arrow.BOOL:
			builders[i] = array.NewBooleanBuilder(s.allocator)
		default:
			builders[i] = array.NewStringBuilder(s.allocator)
		}
		defer builders[i].Release()
	}

	for _, record := range batch {
		for i, field := range fields {
			appendValue(builders[i], record[field])
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
		defer arrays[i].Release()
	}

	rec := array.NewRecord(schema, arrays, int64(len(batch)))
	defer rec.Release()

	if err := writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

// Purge removes the output file.
func (s *ParquetSink) Purge(ctx context.Context) error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *ParquetSink) Close() error { return nil }

func arrowSchema(records []model.Record, fields []string) *arrow.Schema {
	arrowFields := make([]arrow.Field, 0, len(fields))
	for _, name := range fields {
		var dt arrow.DataType = arrow.BinaryTypes.String
		for _, r := range records {
			switch r[name].(type) {
			case float64:
				dt = arrow.PrimitiveTypes.Float64
			case bool:
				dt = arrow.FixedWidthTypes.Boolean
			case string:
				dt = arrow.BinaryTypes.String
			default:
				continue
			}
			break
		}
		arrowFields = append(arrowFields, arrow.Field{Name: name, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(arrowFields, nil)
}

func appendValue(b array.Builder, value any) {
	switch builder := b.(type) {
	case *array.Float64Builder:
		if f, ok := value.(float64); ok {
			builder.Append(f)
		} else {
			builder.AppendNull()
		}
	case *array.BooleanBuilder:
		if v, ok := value.(bool); ok {
			builder.Append(v)
		} else {
			builder.AppendNull()
		}
	case *array.StringBuilder:
		switch v := value.(type) {
		case nil:
			builder.AppendNull()
		case string:
			builder.Append(v)
		default:
			builder.Append(fmt.Sprint(v))
		}
	}
}

package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tableflow/tableflow/internal/model"
)

// FileSink appends records as JSON Lines to a local file. Mostly useful for
// local runs and as the reference implementation of the delivery contract.
type FileSink struct {
	path      string
	batchSize int
}

// NewFileSink creates a sink writing to path. Parent directories are created
// on first import.
func NewFileSink(path string, batchSize int) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("file sink requires a path")
	}
	return &FileSink{path: path, batchSize: batchSize}, nil
}

func (s *FileSink) Name() string { return "file" }

// TestConnection verifies the target directory is writable.
func (s *FileSink) TestConnection(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", s.path, err)
	}
	return f.Close()
}

// Import appends one JSON line per record, flushing after every batch.
func (s *FileSink) Import(ctx context.Context, records []model.Record, onProgress func(done, total int)) (*ImportResult, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	result, err := importBatches(ctx, records, s.batchSize, onProgress,
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			for _, record := range batch {
				line, err := json.Marshal(record)
				if err != nil {
					return fmt.Errorf("failed to encode record: %w", err)
				}
				if _, err := w.Write(append(line, '\n')); err != nil {
					return err
				}
			}
			return w.Flush()
		})
	if err != nil {
		return result, err
	}
	return result, w.Flush()
}

// Purge truncates the output file.
func (s *FileSink) Purge(ctx context.Context) error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileSink) Close() error { return nil }

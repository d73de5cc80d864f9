package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tableflow/tableflow/internal/model"
)

func makeRecords(n int) []model.Record {
	records := make([]model.Record, n)
	for i := range records {
		records[i] = model.Record{"id": float64(i), "name": fmt.Sprintf("row-%d", i)}
	}
	return records
}

func TestImportBatchesSplitsSequentially(t *testing.T) {
	var sizes []int
	var progress []int

	result, err := importBatches(context.Background(), makeRecords(450), 200,
		func(done, total int) { progress = append(progress, done) },
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			sizes = append(sizes, len(batch))
			return nil
		})
	if err != nil {
		t.Fatalf("importBatches: %v", err)
	}

	if !reflect.DeepEqual(sizes, []int{200, 200, 50}) {
		t.Errorf("batch sizes = %v, want [200 200 50]", sizes)
	}
	if !reflect.DeepEqual(progress, []int{200, 400, 450}) {
		t.Errorf("progress = %v, want [200 400 450]", progress)
	}
	if result.Success != 450 || result.Failure != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestImportBatchesPartialFailure(t *testing.T) {
	boom := errors.New("backend unavailable")

	result, err := importBatches(context.Background(), makeRecords(450), 200, nil,
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			if batchNum == 2 {
				return boom
			}
			return nil
		})
	if err != nil {
		t.Fatalf("importBatches: %v", err)
	}

	if result.Success != 250 || result.Failure != 200 {
		t.Errorf("success/failure = %d/%d, want 250/200", result.Success, result.Failure)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("error count = %d, want 1", len(result.Errors))
	}
	be := result.Errors[0]
	if be.Batch != 2 || be.Rows != 200 || !errors.Is(be.Err, boom) {
		t.Errorf("batch error = %+v", be)
	}
}

func TestImportBatchesDefaultSize(t *testing.T) {
	var sizes []int
	_, err := importBatches(context.Background(), makeRecords(250), 0, nil,
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			sizes = append(sizes, len(batch))
			return nil
		})
	if err != nil {
		t.Fatalf("importBatches: %v", err)
	}
	if !reflect.DeepEqual(sizes, []int{200, 50}) {
		t.Errorf("batch sizes = %v, want [200 50]", sizes)
	}
}

func TestFieldsOf(t *testing.T) {
	fields := fieldsOf([]model.Record{
		{"b": 1.0, "a": "x"},
		{"c": true},
	})
	if !reflect.DeepEqual(fields, []string{"a", "b", "c"}) {
		t.Errorf("fields = %v, want [a b c]", fields)
	}
}

func TestFileSinkImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.jsonl")
	s, err := NewFileSink(path, 2)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	if err := s.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}

	records := []model.Record{
		{"name": "Alice", "age": 30.0},
		{"name": "Bob", "age": 42.0},
		{"name": "Cara", "age": 27.0},
	}
	result, err := s.Import(context.Background(), records, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Success != 3 || result.Failure != 0 {
		t.Errorf("result = %+v", result)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record model.Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("line count = %d, want 3", lines)
	}

	if err := s.Purge(context.Background()); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Purge should remove the output file")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewFileSinkRequiresPath(t *testing.T) {
	if _, err := NewFileSink("", 0); err == nil {
		t.Error("expected error for empty path")
	}
}

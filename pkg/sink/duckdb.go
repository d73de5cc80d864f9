package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/tableflow/tableflow/internal/model"
)

// DuckDBSink writes records into a DuckDB table. The table is created on
// first import with columns derived from the records themselves; values keep
// the types the pipeline produced (VARCHAR, DOUBLE, BOOLEAN).
type DuckDBSink struct {
	db        *sql.DB
	table     string
	batchSize int
	created   bool
	columns   []string
}

// NewDuckDBSink opens (or creates) the database at path. An empty path opens
// an in-memory database.
func NewDuckDBSink(path, table string, batchSize int) (*DuckDBSink, error) {
	if table == "" {
		table = "records"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &DuckDBSink{db: db, table: table, batchSize: batchSize}, nil
}

func (s *DuckDBSink) Name() string { return "duckdb" }

func (s *DuckDBSink) TestConnection(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Import creates the table if needed and inserts each batch in its own
// transaction, so a failed batch leaves earlier batches committed.
func (s *DuckDBSink) Import(ctx context.Context, records []model.Record, onProgress func(done, total int)) (*ImportResult, error) {
	if len(records) > 0 && !s.created {
		if err := s.createTable(ctx, records); err != nil {
			return nil, err
		}
	}

	return importBatches(ctx, records, s.batchSize, onProgress,
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			return s.insertBatch(ctx, batch)
		})
}

func (s *DuckDBSink) createTable(ctx context.Context, records []model.Record) error {
	s.columns = fieldsOf(records)

	defs := make([]string, 0, len(s.columns))
	for _, col := range s.columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(col), columnType(records, col)))
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(s.table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	s.created = true
	return nil
}

func (s *DuckDBSink) insertBatch(ctx context.Context, batch []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(s.columns)), ",") + ")"
	quoted := make([]string, len(s.columns))
	for i, col := range s.columns {
		quoted[i] = quoteIdent(col)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdent(s.table), strings.Join(quoted, ", "), placeholders)

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer prepared.Close()

	for _, record := range batch {
		args := make([]any, len(s.columns))
		for i, col := range s.columns {
			args[i] = record[col]
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert failed: %w", err)
		}
	}

	return tx.Commit()
}

// Purge drops the target table.
func (s *DuckDBSink) Purge(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(s.table)))
	s.created = false
	return err
}

func (s *DuckDBSink) Close() error {
	return s.db.Close()
}

// columnType picks a DuckDB type from the first non-nil value in the column.
func columnType(records []model.Record, col string) string {
	for _, r := range records {
		switch r[col].(type) {
		case float64:
			return "DOUBLE"
		case bool:
			return "BOOLEAN"
		case string:
			return "VARCHAR"
		}
	}
	return "VARCHAR"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

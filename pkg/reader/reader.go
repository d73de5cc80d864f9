// Package reader loads tabular source files into raw tables.
//
// Supported formats are delimited text (CSV/TSV, delimiter sniffed from the
// header line) and Excel XLSX. The reader does structural admission only: it
// rejects empty files and files without headers, and leaves every cell as the
// string it read. Blank cells stay blank; typing is the pipeline's job.
package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tableflow/tableflow/internal/model"
)

var (
	// ErrEmptyFile reports a file with no content at all.
	ErrEmptyFile = errors.New("file contains no data")

	// ErrNoHeaders reports a file whose header row is missing or blank.
	ErrNoHeaders = errors.New("file has no header row")
)

// ReadFile loads a source file, dispatching on extension. ".xlsx" selects the
// Excel reader; everything else is treated as delimited text.
func ReadFile(path string) (*model.RawTable, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := ReadDelimited(f, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ReadDelimited parses CSV-like input. A zero delimiter asks for sniffing:
// the candidate (comma, tab, semicolon, pipe) occurring most often in the
// header line wins, comma on a tie.
func ReadDelimited(r io.Reader, delimiter rune) (*model.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	if delimiter == 0 {
		delimiter = sniffDelimiter(firstLine(data))
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	// Rows may legitimately be short or long; the pipeline handles mismatches.
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if blankHeaders(headers) {
		return nil, ErrNoHeaders
	}

	table := &model.RawTable{Headers: headers}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(table.Rows)+2, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// ReadXLSX loads the first sheet of an Excel workbook using the streaming row
// reader so large workbooks are not held in memory twice.
func ReadXLSX(path string) (*model.RawTable, error) {
	xl, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx %s: %w", path, err)
	}
	defer xl.Close()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		sheets := xl.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
		}
		sheet = sheets[0]
	}

	rows, err := xl.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if blankHeaders(headers) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoHeaders)
	}

	table := &model.RawTable{Headers: headers}
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			continue
		}
		if len(cols) == 0 {
			continue
		}
		table.Rows = append(table.Rows, cols)
	}

	return table, nil
}

var delimiterCandidates = []rune{',', '\t', ';', '|'}

func sniffDelimiter(header string) rune {
	best := ','
	bestCount := strings.Count(header, ",")
	for _, d := range delimiterCandidates[1:] {
		if c := strings.Count(header, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}

func blankHeaders(headers []string) bool {
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			return false
		}
	}
	return true
}

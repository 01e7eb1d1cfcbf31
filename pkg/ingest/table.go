package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Schema is the fixed column contract of one input table. Headers are
// matched after NormalizeHeader; there is no alias guessing.
type Schema struct {
	Table    string
	Required []string
	Optional []string
}

var (
	CDRSchema = Schema{
		Table:    "cdr",
		Required: []string{"source_number", "destination_number", "timestamp"},
		Optional: []string{"duration", "call_type", "status"},
	}
	IPDRSchema = Schema{
		Table:    "ipdr",
		Required: []string{"timestamp", "src_ip", "dst_ip"},
		Optional: []string{"protocol", "src_port", "dst_port", "bytes_sent", "bytes_received"},
	}
	TDRSchema = Schema{
		Table:    "tdr",
		Required: []string{"imsi", "cell_id", "timestamp"},
		Optional: []string{"imei", "source_number", "destination_number", "call_type", "duration"},
	}
	TowerSchema = Schema{
		Table:    "towers",
		Required: []string{"cell_id", "latitude", "longitude"},
		Optional: []string{"operator", "technology"},
	}
	CarrierSchema = Schema{
		Table:    "carriers",
		Required: []string{"phone_number", "carrier"},
		Optional: []string{"region", "line_type"},
	}
)

// NormalizeHeader lower-cases a header and joins words with underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

// table is a header-indexed, fully materialized input table.
type table struct {
	path       string
	columns    map[string]int
	rows       [][]string
	unreadable int
}

func (t *table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

// get returns the trimmed cell of row under col, or "" when absent.
func (t *table) get(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) check(schema Schema) error {
	for _, col := range schema.Required {
		if !t.has(col) {
			return &InputError{Op: "load", Table: schema.Table, Path: t.path, Column: col, Cause: ErrMissingColumn}
		}
	}
	return nil
}

// openTable reads a CSV or XLSX file into memory.
func openTable(schema Schema, path string) (*table, error) {
	if err := statInput(schema, path); err != nil {
		return nil, err
	}

	var (
		t   *table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		t, err = readCSV(path)
	case ".xlsx", ".xlsm":
		t, err = readXLSX(path)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, &InputError{Op: "read", Table: schema.Table, Path: path, Cause: err}
	}

	if err := t.check(schema); err != nil {
		return nil, err
	}
	return t, nil
}

// statInput checks that an input file exists.
func statInput(schema Schema, path string) error {
	if path == "" {
		return &InputError{Op: "load", Table: schema.Table, Cause: ErrMissingInput}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &InputError{Op: "load", Table: schema.Table, Path: path, Cause: ErrMissingInput}
		}
		return &InputError{Op: "load", Table: schema.Table, Path: path, Cause: err}
	}
	return nil
}

func newTable(path string, header []string) *table {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := columns[name]; !dup && name != "" {
			columns[name] = i
		}
	}
	return &table{path: path, columns: columns}
}

func readCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, err
	}

	t := newTable(path, header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				t.unreadable++
				continue
			}
			return nil, err
		}
		if blank(record) {
			continue
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

// readXLSX reads the first worksheet of a workbook.
func readXLSX(path string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	t := newTable(path, rows[0])
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

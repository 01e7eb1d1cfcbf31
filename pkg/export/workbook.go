package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WorkbookName is the file name of the investigative workbook.
const WorkbookName = "analysis_report.xlsx"

// Workbook accumulates sheets for the investigative report.
type Workbook struct {
	file        *excelize.File
	headerStyle int
	sheets      []string
}

// NewWorkbook starts an empty workbook.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &Workbook{file: f, headerStyle: style}, nil
}

// Sheets returns the sheet names in the order they were added.
func (b *Workbook) Sheets() []string {
	out := make([]string, len(b.sheets))
	copy(out, b.sheets)
	return out
}

// AddTable adds a sheet holding the table's header and rows.
func (b *Workbook) AddTable(sheet string, t *Table) error {
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, t.Header)
	rows = append(rows, t.Rows...)
	return b.AddRows(sheet, rows, true)
}

// AddRows adds a sheet of raw rows. When header is set the first row is styled.
func (b *Workbook) AddRows(sheet string, rows [][]string, header bool) error {
	idx, err := b.file.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
	}
	width := 0
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for c, v := range row {
			values[c] = v
		}
		if err := b.file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
		if len(row) > width {
			width = len(row)
		}
	}
	if header && len(rows) > 0 {
		if err := b.file.SetRowStyle(sheet, 1, 1, b.headerStyle); err != nil {
			return err
		}
	}
	if width > 0 {
		last, err := excelize.ColumnNumberToName(width)
		if err != nil {
			return err
		}
		if err := b.file.SetColWidth(sheet, "A", last, 20); err != nil {
			return err
		}
	}
	if len(b.sheets) == 0 && sheet != "Sheet1" {
		if err := b.file.DeleteSheet("Sheet1"); err != nil {
			return err
		}
		if idx, err = b.file.GetSheetIndex(sheet); err != nil {
			return err
		}
		b.file.SetActiveSheet(idx)
	}
	b.sheets = append(b.sheets, sheet)
	return nil
}

// Close releases the workbook.
func (b *Workbook) Close() error {
	return b.file.Close()
}

func (b *Workbook) write(out io.Writer) error {
	return b.file.Write(out)
}

// Workbook writes b as WorkbookName and closes it.
func (w *Writer) Workbook(b *Workbook) error {
	defer b.Close()
	return w.File(WorkbookName, b.write)
}

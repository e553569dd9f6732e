package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RawTable is one named table region as untyped text.
//
// Headers is the first row of the region; Rows are the remaining rows.
// Every row has exactly len(Headers) cells.
type RawTable struct {
	Worksheet string
	Name      string
	Headers   []string
	Rows      [][]string
}

// QualifiedName is the table's storage name: "<worksheet>_<table>".
func (t RawTable) QualifiedName() string { return t.Worksheet + "_" + t.Name }

// Tables extracts every named table of every worksheet, in workbook order.
//
// Cells are read as displayed text: numbers and dates come back formatted
// the way the workbook renders them, never as raw stored values. A table
// with only a header row yields zero Rows. Blank body rows are data rows
// and are kept.
// Worksheets without tables contribute nothing.
func (w *Workbook) Tables() ([]RawTable, error) {
	var out []RawTable
	for _, sheet := range w.f.GetSheetList() {
		tables, err := w.f.GetTables(sheet)
		if err != nil {
			return nil, newExtractionError(w.Path, sheet, "", fmt.Errorf("list tables: %w", err))
		}
		for _, t := range tables {
			rt, err := w.readTable(sheet, t)
			if err != nil {
				return nil, err
			}
			out = append(out, rt)
		}
	}
	return out, nil
}

func (w *Workbook) readTable(sheet string, t excelize.Table) (RawTable, error) {
	x1, y1, x2, y2, err := parseRange(t.Range)
	if err != nil {
		return RawTable{}, newExtractionError(w.Path, sheet, t.Name, err)
	}

	grid := make([][]string, 0, y2-y1+1)
	for row := y1; row <= y2; row++ {
		cells := make([]string, 0, x2-x1+1)
		for col := x1; col <= x2; col++ {
			ref, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return RawTable{}, newExtractionError(w.Path, sheet, t.Name, err)
			}
			v, err := w.f.GetCellValue(sheet, ref)
			if err != nil {
				return RawTable{}, newExtractionError(w.Path, sheet, t.Name, fmt.Errorf("cell %s: %w", ref, err))
			}
			cells = append(cells, v)
		}
		grid = append(grid, cells)
	}

	return RawTable{
		Worksheet: sheet,
		Name:      t.Name,
		Headers:   grid[0],
		Rows:      dropPlaceholderRow(grid[1:]),
	}, nil
}

// dropPlaceholderRow returns no rows when the body is exactly one blank row.
//
// Spreadsheet tables always span at least one body row, so a header-only
// table carries a single empty row that is not data. Any other blank rows,
// trailing ones included, are kept so row ordinals line up with the sheet.
func dropPlaceholderRow(rows [][]string) [][]string {
	if len(rows) == 1 && isBlankRow(rows[0]) {
		return rows[:0]
	}
	return rows
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRange parses an "A1:C10" reference into ordered 1-based coordinates.
func parseRange(ref string) (x1, y1, x2, y2 int, err error) {
	parts := strings.Split(strings.ReplaceAll(ref, "$", ""), ":")
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("invalid table range %q", ref)
	}
	if x1, y1, err = excelize.CellNameToCoordinates(parts[0]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid table range %q: %w", ref, err)
	}
	if x2, y2, err = excelize.CellNameToCoordinates(parts[1]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid table range %q: %w", ref, err)
	}
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return x1, y1, x2, y2, nil
}

package workbook

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Workbook is an opened spreadsheet file.
type Workbook struct {
	Path string
	f    *excelize.File
}

// Open opens the workbook at path with cfg.
//
// Errors are returned as *ExtractionError.
func Open(path string, cfg Config) (*Workbook, error) {
	if !IsWorkbookName(filepath.Base(path)) {
		return nil, newExtractionError(path, "", "", ErrNotWorkbook)
	}
	f, err := excelize.OpenFile(path, cfg.options())
	if err != nil {
		return nil, newExtractionError(path, "", "", fmt.Errorf("open: %w", err))
	}
	return &Workbook{Path: path, f: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	if w == nil || w.f == nil {
		return nil
	}
	return w.f.Close()
}

// Sheets returns worksheet names in workbook order.
func (w *Workbook) Sheets() []string { return w.f.GetSheetList() }

// HasTables reports whether any worksheet declares at least one named table.
func (w *Workbook) HasTables() (bool, error) {
	for _, sheet := range w.f.GetSheetList() {
		tables, err := w.f.GetTables(sheet)
		if err != nil {
			return false, newExtractionError(w.Path, sheet, "", fmt.Errorf("list tables: %w", err))
		}
		if len(tables) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Package workbook locates spreadsheet files and extracts their named tables
// as untyped text grids.
package workbook

import (
	"errors"
	"fmt"
)

// ErrNotWorkbook is wrapped when a path is not an .xlsx workbook.
var ErrNotWorkbook = errors.New("not an xlsx workbook")

// ExtractionError is returned when a workbook cannot be opened or read.
// The file should be skipped; other files are unaffected.
type ExtractionError struct {
	Path  string
	Sheet string // empty when the failure is not sheet-specific
	Table string // empty when the failure is not table-specific
	Err   error
}

func (e *ExtractionError) Error() string {
	switch {
	case e.Table != "":
		return fmt.Sprintf("extract %s [%s/%s]: %v", e.Path, e.Sheet, e.Table, e.Err)
	case e.Sheet != "":
		return fmt.Sprintf("extract %s [%s]: %v", e.Path, e.Sheet, e.Err)
	default:
		return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
	}
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func newExtractionError(path, sheet, table string, err error) *ExtractionError {
	return &ExtractionError{Path: path, Sheet: sheet, Table: table, Err: err}
}

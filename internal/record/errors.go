package record

import (
	"fmt"

	"sheetetl/internal/schema"
)

// ConversionError reports a cell that cannot be parsed under the type the
// inferencer assigned to its column. Inference and materialization share
// the same parsers, so this indicates an internal inconsistency rather than
// bad input.
type ConversionError struct {
	Table string
	Field string
	Row   int // 1-based data row
	Value string
	Type  schema.ColumnType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("record %s: row %d field %s: cannot convert %q to %s", e.Table, e.Row, e.Field, e.Value, e.Type)
}

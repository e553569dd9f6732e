package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFieldName is returned when a header normalizes to "".
var ErrEmptyFieldName = errors.New("schema: header normalizes to an empty field name")

// SchemaCollisionError reports two or more columns of one table whose
// headers normalize to the same field name.
type SchemaCollisionError struct {
	Table string
	Field string
	// Headers are the original header texts that collided, in column order.
	// The synthetic identity field is reported as "PrimaryKey".
	Headers []string
}

func (e *SchemaCollisionError) Error() string {
	quoted := make([]string, len(e.Headers))
	for i, h := range e.Headers {
		quoted[i] = fmt.Sprintf("%q", h)
	}
	return fmt.Sprintf("schema %s: field %s produced by %s", e.Table, e.Field, strings.Join(quoted, ", "))
}

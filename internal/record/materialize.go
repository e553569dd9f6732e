package record

import (
	"fmt"

	"sheetetl/internal/schema"
)

// Column is the raw text of one column, tagged with its inferred type.
type Column struct {
	Type   schema.ColumnType
	Values []string
}

// Materialize builds one Record per row from typed column data.
//
// columns map one-to-one onto s.Columns() (the identity field has no
// column). Every column must carry the same number of values. PrimaryKey
// is the 1-based row position. Blank cells become the zero value of their
// type; Text cells are passed through unchanged.
//
// Errors:
//   - column count or column type disagrees with the schema.
//   - ragged columns.
//   - *ConversionError when a non-blank cell fails to parse under its type.
func Materialize(s schema.Schema, columns []Column) ([]Record, error) {
	fields := s.Columns()
	if len(columns) != len(fields) {
		return nil, fmt.Errorf("record %s: %d columns for %d fields", s.Name, len(columns), len(fields))
	}

	rows := 0
	for i, c := range columns {
		if c.Type != fields[i].Type {
			return nil, fmt.Errorf("record %s: column %s is %s but field is %s", s.Name, fields[i].Name, c.Type, fields[i].Type)
		}
		if i == 0 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, fmt.Errorf("record %s: column %s has %d values, want %d", s.Name, fields[i].Name, len(c.Values), rows)
		}
	}

	// Records share the schema; it is not mutated after Build.
	sp := &s
	out := make([]Record, rows)
	for r := 0; r < rows; r++ {
		values := make([]Value, len(s.Fields))
		values[0] = Int(int64(r + 1))
		for c, col := range columns {
			v, ok := convert(col.Type, col.Values[r])
			if !ok {
				return nil, &ConversionError{
					Table: s.Name,
					Field: fields[c].Name,
					Row:   r + 1,
					Value: col.Values[r],
					Type:  col.Type,
				}
			}
			values[c+1] = v
		}
		out[r] = Record{schema: sp, values: values}
	}
	return out, nil
}

// MaterializeRows is Materialize over a row-major grid. Rows shorter than
// the schema are padded with blanks.
func MaterializeRows(s schema.Schema, rows [][]string) ([]Record, error) {
	fields := s.Columns()
	columns := make([]Column, len(fields))
	for c, f := range fields {
		vals := make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				vals[r] = row[c]
			}
		}
		columns[c] = Column{Type: f.Type, Values: vals}
	}
	return Materialize(s, columns)
}

func convert(t schema.ColumnType, raw string) (Value, bool) {
	if t == schema.Text {
		return Text(raw), true
	}
	if schema.IsBlank(raw) {
		return Zero(t), true
	}

	switch t {
	case schema.Integer:
		n, ok := schema.ParseInteger(raw)
		return Int(n), ok
	case schema.Float:
		f, ok := schema.ParseFloat(raw)
		return Float(f), ok
	}
	return Value{}, false
}

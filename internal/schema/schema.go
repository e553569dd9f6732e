package schema

import (
	"fmt"

	"golang.org/x/text/cases"
)

// PrimaryKey is the name of the synthetic identity field present at index 0
// of every Schema. Its value is the 1-based row ordinal within the table.
const PrimaryKey = "PrimaryKey"

// Field is one named, typed column of a Schema.
type Field struct {
	Name string
	Type ColumnType
}

// Schema is the runtime shape of one extracted table.
type Schema struct {
	Name   string
	Fields []Field
}

// Build defines the shape of a table from its headers and inferred types.
//
// The result always starts with PrimaryKey:Integer followed by one field per
// header, in header order.
//
// Errors:
//   - headers and types differ in length.
//   - a header normalizes to "" (wraps ErrEmptyFieldName).
//   - two headers, or a header and the identity field, normalize to names
//     that differ at most in case (*SchemaCollisionError). SQLite and SQL
//     Server column names are case-insensitive, so "OrderID" and "order id"
//     collide. Nothing is silently overwritten.
func Build(name string, headers []string, types []ColumnType) (Schema, error) {
	if len(headers) != len(types) {
		return Schema{}, fmt.Errorf("schema %s: %d headers but %d column types", name, len(headers), len(types))
	}

	fields := make([]Field, 0, len(headers)+1)
	fields = append(fields, Field{Name: PrimaryKey, Type: Integer})

	fold := cases.Fold()

	// case-folded field name -> original headers that produced it
	owners := map[string][]string{fold.String(PrimaryKey): {PrimaryKey}}

	for i, h := range headers {
		fn := UpperCamel(h)
		if fn == "" {
			return Schema{}, fmt.Errorf("schema %s: column %d (%q): %w", name, i+1, h, ErrEmptyFieldName)
		}
		key := fold.String(fn)
		owners[key] = append(owners[key], h)
		fields = append(fields, Field{Name: fn, Type: types[i]})
	}

	// Report the first colliding field in column order so errors are stable.
	for _, f := range fields {
		if hs := owners[fold.String(f.Name)]; len(hs) > 1 {
			return Schema{}, &SchemaCollisionError{Table: name, Field: f.Name, Headers: hs}
		}
	}

	return Schema{Name: name, Fields: fields}, nil
}

// Columns returns the data fields, i.e. every field except the identity field.
func (s Schema) Columns() []Field {
	if len(s.Fields) == 0 {
		return nil
	}
	return s.Fields[1:]
}

// Index returns the position of the named field, or -1.
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldNames returns all field names in order, identity field first.
func (s Schema) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Package schema turns untyped spreadsheet columns into typed table shapes.
//
// It owns the scalar type lattice (Integer ⊑ Float ⊑ Text), the text parsers
// shared by inference and materialization, header normalization and the
// Schema value itself. Field 0 of every Schema is the synthetic identity
// field; callers never need to search for it.
package schema

import "fmt"

// ColumnType is the inferred scalar type of a column.
//
// The zero value is Text so that a column nobody classified (for example an
// all-blank one) is stored as text. The numeric values carry no ordering;
// compare types with Widen or Narrower, never with < or max.
type ColumnType int

const (
	Text ColumnType = iota
	Float
	Integer
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// rank is the position of t in the lattice Integer ⊑ Float ⊑ Text.
// Unknown values rank as Text.
func rank(t ColumnType) int {
	switch t {
	case Integer:
		return 0
	case Float:
		return 1
	default:
		return 2
	}
}

// Widen returns the narrowest type able to represent values of both a and b.
func Widen(a, b ColumnType) ColumnType {
	if rank(a) >= rank(b) {
		return normalize(a)
	}
	return normalize(b)
}

// Narrower reports whether a sits strictly below b in the lattice.
func Narrower(a, b ColumnType) bool { return rank(a) < rank(b) }

func normalize(t ColumnType) ColumnType {
	if rank(t) == 2 {
		return Text
	}
	return t
}

// ParseColumnType is the inverse of String. It accepts the lowercase names only.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "integer":
		return Integer, nil
	case "float":
		return Float, nil
	case "text":
		return Text, nil
	}
	return Text, fmt.Errorf("schema: unknown column type %q", s)
}

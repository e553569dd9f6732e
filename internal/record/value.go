// Package record materializes typed rows for schemas that only exist at runtime.
package record

import (
	"strconv"

	"sheetetl/internal/schema"
)

// Value is a tagged scalar: exactly one of Integer, Float or Text.
//
// The zero Value is Text("").
type Value struct {
	kind schema.ColumnType
	i    int64
	f    float64
	s    string
}

func Int(v int64) Value     { return Value{kind: schema.Integer, i: v} }
func Float(v float64) Value { return Value{kind: schema.Float, f: v} }
func Text(v string) Value   { return Value{kind: schema.Text, s: v} }

// Zero returns the value a blank cell materializes to under t.
func Zero(t schema.ColumnType) Value {
	switch t {
	case schema.Integer:
		return Int(0)
	case schema.Float:
		return Float(0)
	default:
		return Text("")
	}
}

func (v Value) Kind() schema.ColumnType { return v.kind }

// Int returns the integer payload. It is 0 unless Kind is Integer.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload. It is 0 unless Kind is Float.
func (v Value) Float() float64 { return v.f }

// Text returns the text payload. It is "" unless Kind is Text.
func (v Value) Text() string { return v.s }

// Any returns the payload as int64, float64 or string, the shapes
// database/sql drivers accept as arguments.
func (v Value) Any() any {
	switch v.kind {
	case schema.Integer:
		return v.i
	case schema.Float:
		return v.f
	default:
		return v.s
	}
}

func (v Value) String() string {
	switch v.kind {
	case schema.Integer:
		return strconv.FormatInt(v.i, 10)
	case schema.Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

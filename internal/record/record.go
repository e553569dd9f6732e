package record

import "sheetetl/internal/schema"

// Record is one row of a table, with values in its schema's field order.
type Record struct {
	schema *schema.Schema
	values []Value
}

// Schema returns the shape this record belongs to.
func (r Record) Schema() *schema.Schema { return r.schema }

// Values returns the values in field order. The slice is shared; do not modify.
func (r Record) Values() []Value { return r.values }

// PrimaryKey returns the identity field value (field 0).
func (r Record) PrimaryKey() int64 {
	if len(r.values) == 0 {
		return 0
	}
	return r.values[0].Int()
}

// Get returns the value of the named field.
func (r Record) Get(field string) (Value, bool) {
	if r.schema == nil {
		return Value{}, false
	}
	i := r.schema.Index(field)
	if i < 0 || i >= len(r.values) {
		return Value{}, false
	}
	return r.values[i], true
}

// Map returns a field name -> value copy of the record.
func (r Record) Map() map[string]Value {
	out := make(map[string]Value, len(r.values))
	if r.schema == nil {
		return out
	}
	for i, f := range r.schema.Fields {
		if i < len(r.values) {
			out[f.Name] = r.values[i]
		}
	}
	return out
}

// Args returns the values as driver arguments, in field order.
func (r Record) Args() []any {
	out := make([]any, len(r.values))
	for i, v := range r.values {
		out[i] = v.Any()
	}
	return out
}

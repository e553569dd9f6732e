package storage

import (
	"sheetetl/internal/record"
	"sheetetl/internal/schema"
)

// TableSpec describes one destination table. Backends map the logical
// column types to their own SQL types.
type TableSpec struct {
	Name       string          `json:"name"`
	PrimaryKey *PrimaryKeySpec `json:"primary_key,omitempty"`
	Columns    []ColumnSpec    `json:"columns"`
}

type PrimaryKeySpec struct {
	Name string `json:"name"`
	// Identity marks a generated-key column. Explicit values are still
	// inserted; the flag only affects DDL.
	Identity bool `json:"identity"`
}

type ColumnSpec struct {
	Name     string            `json:"name"`
	Type     schema.ColumnType `json:"type"`
	Nullable *bool             `json:"nullable,omitempty"`
}

// IsNullable reports the effective nullability. Unset means nullable for
// text and NOT NULL for numbers, since blanks materialize to 0.
func (c ColumnSpec) IsNullable() bool {
	if c.Nullable != nil {
		return *c.Nullable
	}
	return c.Type == schema.Text
}

// Table is a spec plus its rows. Each row holds one driver value per
// ColumnNames entry, in the same order.
type Table struct {
	Spec TableSpec
	Rows [][]any
}

// ColumnNames returns the insert column list: primary key first (if any),
// then columns in order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns)+1)
	if t.PrimaryKey != nil {
		out = append(out, t.PrimaryKey.Name)
	}
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// SpecFromSchema derives the storage table for a schema. Field 0 becomes
// the identity primary key; every other field becomes a column.
func SpecFromSchema(s schema.Schema) TableSpec {
	spec := TableSpec{Name: s.Name}
	if len(s.Fields) == 0 {
		return spec
	}
	spec.PrimaryKey = &PrimaryKeySpec{Name: s.Fields[0].Name, Identity: true}
	for _, f := range s.Columns() {
		spec.Columns = append(spec.Columns, ColumnSpec{Name: f.Name, Type: f.Type})
	}
	return spec
}

// TableFromRecords pairs a schema's storage spec with its materialized rows.
func TableFromRecords(s schema.Schema, recs []record.Record) Table {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = r.Args()
	}
	return Table{Spec: SpecFromSchema(s), Rows: rows}
}

package pipeline

import (
	"fmt"

	"sheetetl/internal/record"
	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
	"sheetetl/internal/workbook"
)

// BuildTable runs inference, schema building and materialization for one
// extracted table and returns it in storage form.
//
// Errors:
//   - *schema.SchemaCollisionError or schema.ErrEmptyFieldName from Build.
//   - *record.ConversionError from materialization.
func BuildTable(raw workbook.RawTable) (storage.Table, error) {
	types := schema.InferColumns(raw.Headers, raw.Rows)

	s, err := schema.Build(raw.QualifiedName(), raw.Headers, types)
	if err != nil {
		return storage.Table{}, fmt.Errorf("build %s: %w", raw.QualifiedName(), err)
	}

	recs, err := record.MaterializeRows(s, raw.Rows)
	if err != nil {
		return storage.Table{}, fmt.Errorf("materialize %s: %w", raw.QualifiedName(), err)
	}
	return storage.TableFromRecords(s, recs), nil
}

// BuildTables builds every table of a workbook, stopping at the first error.
func BuildTables(raws []workbook.RawTable) ([]storage.Table, error) {
	out := make([]storage.Table, 0, len(raws))
	for _, raw := range raws {
		t, err := BuildTable(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

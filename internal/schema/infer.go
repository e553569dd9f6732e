package schema

// Infer classifies one column's raw cell texts.
//
// Blank values are skipped. An integer-looking value never narrows a column
// already classified Float; a float-looking value widens Integer to Float;
// anything else makes the column Text and ends the scan, since nothing later
// can change the outcome. A column with no non-blank values is Text.
func Infer(values []string) ColumnType {
	var (
		seen bool
		t    ColumnType
	)

	for _, v := range values {
		if IsBlank(v) {
			continue
		}

		if _, ok := ParseInteger(v); ok {
			if !seen || t != Float {
				t = Integer
			}
			seen = true
			continue
		}
		if _, ok := ParseFloat(v); ok {
			t = Float
			seen = true
			continue
		}
		return Text
	}

	if !seen {
		return Text
	}
	return t
}

// InferColumns applies Infer to each column of a row-major grid.
//
// Rows shorter than headers contribute blanks for the missing cells.
func InferColumns(headers []string, rows [][]string) []ColumnType {
	out := make([]ColumnType, len(headers))
	col := make([]string, len(rows))
	for c := range headers {
		for r, row := range rows {
			if c < len(row) {
				col[r] = row[c]
			} else {
				col[r] = ""
			}
		}
		out[c] = Infer(col)
	}
	return out
}

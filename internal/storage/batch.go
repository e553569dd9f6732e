package storage

// Batches splits rows into chunks whose parameter count stays within
// maxParams (at least one row per chunk).
func Batches(rows [][]any, columns, maxParams int) [][][]any {
	if len(rows) == 0 {
		return nil
	}
	per := 1
	if columns > 0 && maxParams > columns {
		per = maxParams / columns
	}
	out := make([][][]any, 0, (len(rows)+per-1)/per)
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

package inspect

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Render writes a summary block and a tab-aligned dump for each report.
//
//	Table: Sheet1_Orders
//	Number of columns: 3
//	Number of rows: 2
//	PrimaryKey  OrderId  Note
//	1           7        ok
func Render(w io.Writer, reports []TableReport) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Table: %s\nNumber of columns: %d\nNumber of rows: %d\n", r.Name, r.ColumnCount, r.RowCount); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(r.Columns, "\t"))
		for _, row := range r.Rows {
			fmt.Fprintln(tw, strings.Join(sanitize(row), "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

var cellReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// sanitize keeps cell text from breaking tabwriter columns.
func sanitize(row []string) []string {
	out := make([]string, len(row))
	for i, s := range row {
		out[i] = cellReplacer.Replace(s)
	}
	return out
}

// Display opens the store at path, inspects every table and renders the
// result to w.
func Display(ctx context.Context, path string, w io.Writer) error {
	in, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer in.Close()

	reports, err := in.Inspect(ctx)
	if err != nil {
		return err
	}
	return Render(w, reports)
}

// Package inspect reads a SQLite store back and renders a console summary of
// every user table: column count, row count and a full row dump.
package inspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"sheetetl/internal/storage"
	"sheetetl/internal/storage/sqlite"
)

// internalTables are maintained by SQLite itself and never reported.
var internalTables = map[string]bool{
	"sqlite_sequence": true,
}

// Inspector is a read-only handle on one SQLite store.
type Inspector struct {
	path string
	db   *sqlx.DB
}

// TableReport describes one table of a store.
type TableReport struct {
	Name        string
	Columns     []string
	ColumnCount int
	RowCount    int64
	Rows        [][]string
}

// columnInfo is one row of pragma_table_info.
type columnInfo struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull bool           `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

// Open opens the store at path read-only.
//
// Errors:
//   - Returns an error wrapping os.ErrNotExist if path does not exist. Open
//     never creates a database.
//   - Returns an error if path is a directory or not a readable SQLite file.
func Open(ctx context.Context, path string) (*Inspector, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("inspect: %s is a directory", path)
	}

	uri, err := sqlite.FileURI(path, "mode=ro")
	if err != nil {
		return nil, fmt.Errorf("inspect: open %s: %w", path, err)
	}
	db, err := sqlx.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("inspect: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("inspect: open %s: %w", path, err)
	}
	return &Inspector{path: path, db: db}, nil
}

// Close releases the database handle.
func (in *Inspector) Close() error {
	if in == nil || in.db == nil {
		return nil
	}
	return in.db.Close()
}

// Path returns the store path.
func (in *Inspector) Path() string { return in.path }

// Tables lists user tables in creation order.
func (in *Inspector) Tables(ctx context.Context) ([]string, error) {
	var names []string
	if err := in.db.SelectContext(ctx, &names, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("inspect: list tables: %w", err)
	}

	out := names[:0]
	for _, n := range names {
		if !internalTables[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

// Describe reports column metadata, the row count and every row of table.
// Rows come back in storage order, which is insertion order for rowid tables.
func (in *Inspector) Describe(ctx context.Context, table string) (TableReport, error) {
	rep := TableReport{Name: table}

	var cols []columnInfo
	if err := in.db.SelectContext(ctx, &cols, `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table); err != nil {
		return rep, fmt.Errorf("inspect: %s: columns: %w", table, err)
	}
	if len(cols) == 0 {
		return rep, fmt.Errorf("inspect: %s: %w", table, errNoSuchTable)
	}
	rep.ColumnCount = len(cols)
	for _, c := range cols {
		rep.Columns = append(rep.Columns, c.Name)
	}

	if err := in.db.GetContext(ctx, &rep.RowCount, `SELECT COUNT(*) FROM `+quoteIdent(table)); err != nil {
		return rep, fmt.Errorf("inspect: %s: count: %w", table, err)
	}

	rows, err := in.db.QueryxContext(ctx, `SELECT * FROM `+quoteIdent(table))
	if err != nil {
		return rep, fmt.Errorf("inspect: %s: dump: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return rep, fmt.Errorf("inspect: %s: dump: %w", table, err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = storage.FormatValue(v)
		}
		rep.Rows = append(rep.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return rep, fmt.Errorf("inspect: %s: dump: %w", table, err)
	}
	return rep, nil
}

// Inspect describes every user table in the store.
func (in *Inspector) Inspect(ctx context.Context) ([]TableReport, error) {
	tables, err := in.Tables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TableReport, 0, len(tables))
	for _, t := range tables {
		rep, err := in.Describe(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

var errNoSuchTable = errors.New("no such table")

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

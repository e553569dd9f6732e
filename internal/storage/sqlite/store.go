package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
)

const kind = "sqlite"

// maxParams is the historical SQLITE_MAX_VARIABLE_NUMBER; builds differ, so
// stay under the smallest one.
const maxParams = 999

// Store implements storage.Store with one SQLite file per destination.
//
// Key design points vs the server backends:
//   - The destination is a file path; Persist deletes the file outright and
//     creates a new database, so nothing from a previous run survives.
//   - "INTEGER PRIMARY KEY" is the rowid alias in SQLite. AUTOINCREMENT is
//     kept so the identity column behaves like a generated key, which also
//     creates the internal sqlite_sequence table.
//   - DDL and inserts share one transaction; SQLite DDL is transactional.
type Store struct{}

func init() {
	storage.Register(kind, New)
}

// New returns a SQLite store. cfg.DSN is unused: every Persist call opens
// the file named by its dest.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	return &Store{}, nil
}

func (s *Store) Close() {}

// Persist recreates the database file at dest and writes tables in one
// transaction.
func (s *Store) Persist(ctx context.Context, dest string, tables []storage.Table) error {
	if strings.TrimSpace(dest) == "" {
		return storage.NewPersistenceError(kind, dest, "open", "", errors.New("empty destination path"))
	}

	if err := removeIfExists(dest); err != nil {
		return storage.NewPersistenceError(kind, dest, "reset", "", err)
	}

	uri, err := FileURI(dest, "mode=rwc")
	if err != nil {
		return storage.NewPersistenceError(kind, dest, "open", "", err)
	}
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return storage.NewPersistenceError(kind, dest, "open", "", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return storage.NewPersistenceError(kind, dest, "open", "", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewPersistenceError(kind, dest, "begin", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		ddl, err := buildCreateTableSQL(t.Spec)
		if err != nil {
			return storage.NewPersistenceError(kind, dest, "create", t.Spec.Name, err)
		}
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return storage.NewPersistenceError(kind, dest, "create", t.Spec.Name, err)
		}

		columns := t.Spec.ColumnNames()
		for _, batch := range storage.Batches(t.Rows, len(columns), maxParams) {
			q, args := buildInsertSQL(t.Spec.Name, columns, batch)
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return storage.NewPersistenceError(kind, dest, "insert", t.Spec.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.NewPersistenceError(kind, dest, "commit", "", err)
	}
	return nil
}

// FileURI returns the SQLite URI filename for path with query appended
// (e.g. "mode=ro"). The path is made absolute and escaped, so '?', '#' and
// '%' in file names are never read as URI syntax.
func FileURI(path, query string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		// drive-letter paths
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: query}
	return u.String(), nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func sqlType(t schema.ColumnType) string {
	switch t {
	case schema.Integer:
		return "INTEGER"
	case schema.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	if t.PrimaryKey != nil {
		if t.PrimaryKey.Identity {
			parts = append(parts, fmt.Sprintf(`%s INTEGER PRIMARY KEY AUTOINCREMENT`, sqlIdent(t.PrimaryKey.Name)))
		} else {
			parts = append(parts, fmt.Sprintf(`%s INTEGER PRIMARY KEY`, sqlIdent(t.PrimaryKey.Name)))
		}
	}

	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", sqlIdent(c.Name), sqlType(c.Type))
		if !c.IsNullable() {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%s has no columns", t.Name)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

// buildInsertSQL builds one multi-row INSERT with '?' placeholders.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		args = append(args, row...)
	}
	return b.String(), args
}

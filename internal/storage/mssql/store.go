package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
)

const kind = "mssql"

// SQL Server caps a request at 2100 parameters and a VALUES list at 1000 rows.
const (
	maxParams    = 2000
	maxValueRows = 1000
)

// Store implements storage.Store for Microsoft SQL Server.
//
// The destination is a database schema. Persist drops every table already in
// the schema, creates it when missing, creates one table per spec and inserts
// the rows, all in a single transaction.
type Store struct {
	db *sql.DB
}

func init() {
	storage.Register(kind, New)
}

// New opens a database/sql handle with the "sqlserver" driver registered by
// go-mssqldb and validates connectivity via PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mssql: dsn is required")
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases database resources held by this store.
func (s *Store) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}

// Persist recreates the tables of schema dest and writes every row.
func (s *Store) Persist(ctx context.Context, dest string, tables []storage.Table) error {
	if strings.TrimSpace(dest) == "" {
		return storage.NewPersistenceError(kind, dest, "begin", "", errors.New("empty schema name"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewPersistenceError(kind, dest, "begin", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := resetSchema(ctx, tx, dest); err != nil {
		return storage.NewPersistenceError(kind, dest, "reset", "", err)
	}

	for _, t := range tables {
		ddl, err := buildCreateTableSQL(dest, t.Spec)
		if err != nil {
			return storage.NewPersistenceError(kind, dest, "create", t.Spec.Name, err)
		}
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return storage.NewPersistenceError(kind, dest, "create", t.Spec.Name, err)
		}

		columns := t.Spec.ColumnNames()
		for _, batch := range storage.Batches(t.Rows, len(columns), maxParams) {
			for len(batch) > 0 {
				n := len(batch)
				if n > maxValueRows {
					n = maxValueRows
				}
				q, args := buildInsertSQL(dest, t.Spec.Name, columns, batch[:n])
				if _, err := tx.ExecContext(ctx, q, args...); err != nil {
					return storage.NewPersistenceError(kind, dest, "insert", t.Spec.Name, err)
				}
				batch = batch[n:]
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.NewPersistenceError(kind, dest, "commit", "", err)
	}
	return nil
}

// resetSchema makes sure schemaName exists and holds no tables.
func resetSchema(ctx context.Context, tx *sql.Tx, schemaName string) error {
	if _, err := tx.ExecContext(ctx, ensureSchemaSQL, sql.Named("schema", schemaName)); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	rows, err := tx.QueryContext(ctx, listTablesSQL, sql.Named("schema", schemaName))
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	var existing []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		existing = append(existing, name)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range existing {
		if _, err := tx.ExecContext(ctx, "DROP TABLE "+mssqlTableIdent(schemaName, name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

const ensureSchemaSQL = `IF SCHEMA_ID(@schema) IS NULL EXEC(N'CREATE SCHEMA ' + QUOTENAME(@schema))`

const listTablesSQL = `SELECT t.name FROM sys.tables t WHERE t.schema_id = SCHEMA_ID(@schema) ORDER BY t.name`

func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent returns a bracket-quoted schema-qualified table name.
func mssqlTableIdent(schemaName, table string) string {
	return mssqlIdent(schemaName) + "." + mssqlIdent(table)
}

func mssqlType(t schema.ColumnType) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// buildCreateTableSQL generates DDL for one table. The identity column is a
// plain BIGINT key: row ordinals are inserted explicitly, which an IDENTITY
// column would reject without IDENTITY_INSERT.
func buildCreateTableSQL(schemaName string, t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	if t.PrimaryKey != nil {
		parts = append(parts, fmt.Sprintf("%s BIGINT NOT NULL PRIMARY KEY", mssqlIdent(t.PrimaryKey.Name)))
	}
	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", mssqlIdent(c.Name), mssqlType(c.Type))
		if c.IsNullable() {
			col += " NULL"
		} else {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%s has no columns", t.Name)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", mssqlTableIdent(schemaName, t.Name), strings.Join(parts, ",\n  ")), nil
}

// buildInsertSQL builds a multi-row INSERT with @pN placeholders.
func buildInsertSQL(schemaName, table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(schemaName, table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("@p")
			b.WriteString(strconv.Itoa(p))
			p++
		}
		b.WriteByte(')')
		args = append(args, row...)
	}
	return b.String(), args
}

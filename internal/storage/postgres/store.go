package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
)

const kind = "postgres"

/*
Store implements storage.Store for Postgres.

The destination is a schema: one workbook maps to one schema, one table per
extracted spreadsheet table. Persist drops the schema with CASCADE and
recreates it, then loads rows with COPY, all inside one transaction.
Postgres DDL is transactional, so a failed run leaves the previous schema
untouched.
*/
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Postgres-backed Store and verifies connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Persist recreates schema dest and copies every table into it.
func (s *Store) Persist(ctx context.Context, dest string, tables []storage.Table) error {
	if strings.TrimSpace(dest) == "" {
		return storage.NewPersistenceError(kind, dest, "begin", "", errors.New("empty schema name"))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.NewPersistenceError(kind, dest, "begin", "", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range buildResetSQL(dest) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return storage.NewPersistenceError(kind, dest, "reset", "", err)
		}
	}

	for _, t := range tables {
		ddl, err := buildCreateTableSQL(dest, t.Spec)
		if err != nil {
			return storage.NewPersistenceError(kind, dest, "create", t.Spec.Name, err)
		}
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return storage.NewPersistenceError(kind, dest, "create", t.Spec.Name, err)
		}

		if len(t.Rows) == 0 {
			continue
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{dest, t.Spec.Name}, t.Spec.ColumnNames(), pgx.CopyFromRows(t.Rows))
		if err != nil {
			return storage.NewPersistenceError(kind, dest, "insert", t.Spec.Name, err)
		}
		if n != int64(len(t.Rows)) {
			return storage.NewPersistenceError(kind, dest, "insert", t.Spec.Name,
				fmt.Errorf("copied %d of %d rows", n, len(t.Rows)))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.NewPersistenceError(kind, dest, "commit", "", err)
	}
	return nil
}

func pgIdent(id string) string {
	return pgx.Identifier{id}.Sanitize()
}

func pgType(t schema.ColumnType) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func buildResetSQL(schemaName string) []string {
	q := pgIdent(schemaName)
	return []string{
		"DROP SCHEMA IF EXISTS " + q + " CASCADE",
		"CREATE SCHEMA " + q,
	}
}

// buildCreateTableSQL generates DDL for one table inside schemaName.
//
// The identity column uses GENERATED BY DEFAULT so explicit row ordinals
// can be copied in.
func buildCreateTableSQL(schemaName string, t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	if t.PrimaryKey != nil {
		if t.PrimaryKey.Identity {
			parts = append(parts, fmt.Sprintf("%s BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY", pgIdent(t.PrimaryKey.Name)))
		} else {
			parts = append(parts, fmt.Sprintf("%s BIGINT PRIMARY KEY", pgIdent(t.PrimaryKey.Name)))
		}
	}
	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", pgIdent(c.Name), pgType(c.Type))
		if !c.IsNullable() {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%s has no columns", t.Name)
	}

	table := pgx.Identifier{schemaName, t.Name}.Sanitize()
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", table, strings.Join(parts, ",\n  ")), nil
}

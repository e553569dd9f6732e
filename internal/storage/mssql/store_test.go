package mssql

import (
	"context"
	"strings"
	"testing"

	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	spec := storage.TableSpec{
		Name:       "Sheet1_Orders",
		PrimaryKey: &storage.PrimaryKeySpec{Name: "PrimaryKey", Identity: true},
		Columns: []storage.ColumnSpec{
			{Name: "OrderId", Type: schema.Integer},
			{Name: "Amount", Type: schema.Float},
			{Name: "Note", Type: schema.Text},
		},
	}

	got, err := buildCreateTableSQL("book", spec)
	if err != nil {
		t.Fatalf("buildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE [book].[Sheet1_Orders] (\n" +
		"  [PrimaryKey] BIGINT NOT NULL PRIMARY KEY,\n" +
		"  [OrderId] BIGINT NOT NULL,\n" +
		"  [Amount] FLOAT NOT NULL,\n" +
		"  [Note] NVARCHAR(MAX) NULL\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}

	if _, err := buildCreateTableSQL("book", storage.TableSpec{}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestBuildInsertSQL_NumbersPlaceholdersAcrossRows(t *testing.T) {
	t.Parallel()

	q, args := buildInsertSQL("s", "t", []string{"a", "b"}, [][]any{{int64(1), "x"}, {int64(2), "y"}})
	want := "INSERT INTO [s].[t] ([a], [b]) VALUES (@p1, @p2), (@p3, @p4)"
	if q != want {
		t.Fatalf("got %q want %q", q, want)
	}
	if len(args) != 4 || args[2] != int64(2) {
		t.Fatalf("args=%v", args)
	}
}

func TestMssqlIdent_EscapesBrackets(t *testing.T) {
	t.Parallel()

	if got := mssqlIdent("a]b"); got != "[a]]b]" {
		t.Fatalf("got %q", got)
	}
	if got := mssqlTableIdent("s", "t"); got != "[s].[t]" {
		t.Fatalf("got %q", got)
	}
}

func TestResetStatementsUseNamedSchema(t *testing.T) {
	t.Parallel()

	if !strings.Contains(ensureSchemaSQL, "QUOTENAME(@schema)") {
		t.Fatalf("schema creation must quote the name: %s", ensureSchemaSQL)
	}
	if !strings.Contains(listTablesSQL, "SCHEMA_ID(@schema)") {
		t.Fatalf("table listing must filter by schema: %s", listTablesSQL)
	}
}

func TestNew_RequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), storage.Config{Kind: kind}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

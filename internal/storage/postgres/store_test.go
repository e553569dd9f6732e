package postgres

import (
	"context"
	"strings"
	"testing"

	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
)

// boolPtr is a tiny helper to avoid repeating &[]bool literals in tests.
func boolPtr(v bool) *bool { return &v }

func TestBuildCreateTableSQL_IdentityAndTypes(t *testing.T) {
	t.Parallel()

	spec := storage.TableSpec{
		Name:       "Sheet1_Orders",
		PrimaryKey: &storage.PrimaryKeySpec{Name: "PrimaryKey", Identity: true},
		Columns: []storage.ColumnSpec{
			{Name: "OrderId", Type: schema.Integer},
			{Name: "Amount", Type: schema.Float},
			{Name: "Note", Type: schema.Text},
			{Name: "Code", Type: schema.Text, Nullable: boolPtr(false)},
		},
	}

	got, err := buildCreateTableSQL("book", spec)
	if err != nil {
		t.Fatalf("buildCreateTableSQL: %v", err)
	}

	want := "CREATE TABLE \"book\".\"Sheet1_Orders\" (\n" +
		"  \"PrimaryKey\" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,\n" +
		"  \"OrderId\" BIGINT NOT NULL,\n" +
		"  \"Amount\" DOUBLE PRECISION NOT NULL,\n" +
		"  \"Note\" TEXT,\n" +
		"  \"Code\" TEXT NOT NULL\n)"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	if _, err := buildCreateTableSQL("s", storage.TableSpec{}); err == nil {
		t.Fatalf("expected error for empty table name")
	}
	if _, err := buildCreateTableSQL("s", storage.TableSpec{Name: "t"}); err == nil {
		t.Fatalf("expected error for table without columns")
	}
}

func TestBuildResetSQL_QuotesSchema(t *testing.T) {
	t.Parallel()

	got := buildResetSQL(`we"ird`)
	if len(got) != 2 {
		t.Fatalf("got %d statements", len(got))
	}
	if !strings.HasPrefix(got[0], "DROP SCHEMA IF EXISTS \"we\"\"ird\" CASCADE") {
		t.Fatalf("drop=%q", got[0])
	}
	if got[1] != "CREATE SCHEMA \"we\"\"ird\"" {
		t.Fatalf("create=%q", got[1])
	}
}

func TestNew_RequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), storage.Config{Kind: kind}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

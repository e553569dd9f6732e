package inspect

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
	"sheetetl/internal/storage/sqlite"
)

func writeStore(t *testing.T) string {
	t.Helper()
	return writeStoreAt(t, filepath.Join(t.TempDir(), "book.db"))
}

func writeStoreAt(t *testing.T, path string) string {
	t.Helper()

	ctx := context.Background()
	st, err := sqlite.New(ctx, storage.Config{Kind: "sqlite"})
	require.NoError(t, err)
	defer st.Close()

	tables := []storage.Table{
		{
			Spec: storage.TableSpec{
				Name:       "Sheet1_Orders",
				PrimaryKey: &storage.PrimaryKeySpec{Name: "PrimaryKey", Identity: true},
				Columns: []storage.ColumnSpec{
					{Name: "OrderId", Type: schema.Integer},
					{Name: "Amount", Type: schema.Float},
					{Name: "Note", Type: schema.Text},
				},
			},
			Rows: [][]any{
				{int64(1), int64(7), 10.5, "ok"},
				{int64(2), int64(8), 0.0, ""},
			},
		},
		{
			Spec: storage.TableSpec{
				Name:       "Sheet2_Empty",
				PrimaryKey: &storage.PrimaryKeySpec{Name: "PrimaryKey", Identity: true},
				Columns:    []storage.ColumnSpec{{Name: "Label", Type: schema.Text}},
			},
		},
	}

	require.NoError(t, st.Persist(ctx, path, tables))
	return path
}

func TestOpen_PathWithURICharacters(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "q?h#s p")
	require.NoError(t, os.Mkdir(dir, 0o700))
	path := writeStoreAt(t, filepath.Join(dir, "book.db"))

	ctx := context.Background()
	in, err := Open(ctx, path)
	require.NoError(t, err)
	defer in.Close()

	names, err := in.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1_Orders", "Sheet2_Empty"}, names)
}

func TestInspect_SkipsSequenceAndReportsCounts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in, err := Open(ctx, writeStore(t))
	require.NoError(t, err)
	defer in.Close()

	names, err := in.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1_Orders", "Sheet2_Empty"}, names)

	reports, err := in.Inspect(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	orders := reports[0]
	assert.Equal(t, 4, orders.ColumnCount)
	assert.Equal(t, int64(2), orders.RowCount)
	assert.Equal(t, []string{"PrimaryKey", "OrderId", "Amount", "Note"}, orders.Columns)
	assert.Equal(t, [][]string{
		{"1", "7", "10.5", "ok"},
		{"2", "8", "0", ""},
	}, orders.Rows)

	empty := reports[1]
	assert.Equal(t, 2, empty.ColumnCount)
	assert.Equal(t, int64(0), empty.RowCount)
	assert.Empty(t, empty.Rows)
}

func TestDescribe_UnknownTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in, err := Open(ctx, writeStore(t))
	require.NoError(t, err)
	defer in.Close()

	_, err = in.Describe(ctx, "Nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoSuchTable))
}

func TestOpen_MissingFileIsNotCreated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := Open(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "Open must not create the file")
}

func TestOpen_Directory(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestDisplay_RendersSummaryAndDump(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Display(context.Background(), writeStore(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "Table: Sheet1_Orders\nNumber of columns: 4\nNumber of rows: 2\n")
	assert.Contains(t, out, "Table: Sheet2_Empty\nNumber of columns: 2\nNumber of rows: 0\n")
	assert.NotContains(t, out, "sqlite_sequence")
	assert.Regexp(t, `PrimaryKey\s+OrderId\s+Amount\s+Note`, out)
	assert.Regexp(t, `1\s+7\s+10\.5\s+ok`, out)
}

func TestRender_SanitizesCells(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Render(&buf, []TableReport{{
		Name:        "T",
		Columns:     []string{"A"},
		ColumnCount: 1,
		RowCount:    1,
		Rows:        [][]string{{"line1\nline2\tx"}},
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "line1 line2 x")
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

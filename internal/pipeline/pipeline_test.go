package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetetl/internal/inspect"
	"sheetetl/internal/metrics"
	"sheetetl/internal/schema"
	"sheetetl/internal/storage"
	"sheetetl/internal/storage/sqlite"
	"sheetetl/internal/workbook"
)

type fixtureTable struct {
	sheet string
	name  string
	rows  [][]any
}

// writeWorkbook saves one named table per entry, each starting at A1 of its
// own sheet.
func writeWorkbook(t *testing.T, path string, tables ...fixtureTable) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for _, tb := range tables {
		_, err := f.NewSheet(tb.sheet)
		require.NoError(t, err)
		for i, r := range tb.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(tb.sheet, cell, &r))
		}
		last, err := excelize.CoordinatesToCellName(len(tb.rows[0]), len(tb.rows))
		require.NoError(t, err)
		require.NoError(t, f.AddTable(tb.sheet, &excelize.Table{Range: "A1:" + last, Name: tb.name}))
	}

	require.NoError(t, f.SaveAs(path))
	return path
}

var ordersTable = fixtureTable{
	sheet: "Sheet1",
	name:  "Orders",
	rows: [][]any{
		{"Order Id", "amount", "note"},
		{1, 10.5, "ok"},
		{2, nil, "bad"},
	},
}

func newSQLitePipeline(t *testing.T) *Pipeline {
	t.Helper()
	st, err := sqlite.New(context.Background(), storage.Config{Kind: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return &Pipeline{Store: st, Kind: "sqlite"}
}

func TestBuildTable_OrdersScenario(t *testing.T) {
	t.Parallel()

	tbl, err := BuildTable(workbook.RawTable{
		Worksheet: "Sheet1",
		Name:      "Orders",
		Headers:   []string{"Order Id", "amount", "note"},
		Rows:      [][]string{{"1", "10.5", "ok"}, {"2", "", "bad"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Sheet1_Orders", tbl.Spec.Name)
	assert.Equal(t, []string{"PrimaryKey", "OrderId", "Amount", "Note"}, tbl.Spec.ColumnNames())
	assert.Equal(t, schema.Integer, tbl.Spec.Columns[0].Type)
	assert.Equal(t, schema.Float, tbl.Spec.Columns[1].Type)
	assert.Equal(t, schema.Text, tbl.Spec.Columns[2].Type)
	assert.Equal(t, [][]any{
		{int64(1), int64(1), 10.5, "ok"},
		{int64(2), int64(2), 0.0, "bad"},
	}, tbl.Rows)
}

func TestBuildTable_Collision(t *testing.T) {
	t.Parallel()

	_, err := BuildTable(workbook.RawTable{
		Worksheet: "S",
		Name:      "T",
		Headers:   []string{"Order Id", "order_id"},
	})
	var coll *schema.SchemaCollisionError
	require.ErrorAs(t, err, &coll)
	assert.Equal(t, "OrderId", coll.Field)
}

func TestDestination(t *testing.T) {
	t.Parallel()

	dir := filepath.Join("data", "in")
	assert.Equal(t, filepath.Join(dir, "sales 2024.db"), Destination("sqlite", filepath.Join(dir, "sales 2024.xlsx")))
	assert.Equal(t, "Sales2024", Destination("postgres", filepath.Join(dir, "sales 2024.xlsx")))
	assert.Equal(t, "MonthlyReport", Destination("mssql", "monthly-report.xlsx"))
}

func TestProcessFile_WritesStoreAndDisplays(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeWorkbook(t, filepath.Join(dir, "orders.xlsx"), ordersTable,
		fixtureTable{sheet: "Stock", name: "Items", rows: [][]any{{"sku", "qty"}, {"A-1", 3}}})

	var out bytes.Buffer
	p := newSQLitePipeline(t)
	p.Display = inspect.Display
	p.Out = &out

	res := p.ProcessFile(context.Background(), path)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, filepath.Join(dir, "orders.db"), res.Dest)
	assert.Equal(t, 2, res.Tables)
	assert.Equal(t, 3, res.Rows)

	assert.Contains(t, out.String(), "Table: Sheet1_Orders\nNumber of columns: 4\nNumber of rows: 2")
	assert.Contains(t, out.String(), "Table: Stock_Items\nNumber of columns: 3\nNumber of rows: 1")

	in, err := inspect.Open(context.Background(), res.Dest)
	require.NoError(t, err)
	defer in.Close()
	rep, err := in.Describe(context.Background(), "Sheet1_Orders")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "1", "10.5", "ok"}, {"2", "2", "0", "bad"}}, rep.Rows)
}

func TestProcessFile_RerunReplacesStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	p := newSQLitePipeline(t)

	writeWorkbook(t, path, fixtureTable{sheet: "Sheet1", name: "Old", rows: [][]any{{"a"}, {1}}})
	require.NoError(t, p.ProcessFile(context.Background(), path).Err)

	require.NoError(t, os.Remove(path))
	writeWorkbook(t, path, fixtureTable{sheet: "Sheet1", name: "New", rows: [][]any{{"b"}, {"x"}}})
	res := p.ProcessFile(context.Background(), path)
	require.NoError(t, res.Err)

	in, err := inspect.Open(context.Background(), res.Dest)
	require.NoError(t, err)
	defer in.Close()
	names, err := in.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1_New"}, names)
}

func TestProcessFile_SkipsWorkbookWithoutTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "no tables here"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	res := newSQLitePipeline(t).ProcessFile(context.Background(), path)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "no_tables", res.Reason)
	assert.NoError(t, res.Err)

	_, err := os.Stat(filepath.Join(dir, "notes.db"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "no store is written for a table-less workbook")
}

func TestProcessFile_UnreadableWorkbookIsSkippedWithError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	res := newSQLitePipeline(t).ProcessFile(context.Background(), path)
	assert.Equal(t, StatusSkipped, res.Status)
	var ee *workbook.ExtractionError
	assert.ErrorAs(t, res.Err, &ee)
}

func TestProcessFile_CollisionFailsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeWorkbook(t, filepath.Join(dir, "dup.xlsx"),
		fixtureTable{sheet: "Sheet1", name: "Dup", rows: [][]any{{"Order Id", "order_id"}, {1, 2}}})

	res := newSQLitePipeline(t).ProcessFile(context.Background(), path)
	assert.Equal(t, StatusFailed, res.Status)
	var coll *schema.SchemaCollisionError
	assert.ErrorAs(t, res.Err, &coll)

	_, err := os.Stat(filepath.Join(dir, "dup.db"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "nothing is persisted when building fails")
}

func TestProcessFile_CaseOnlyCollisionFailsBeforePersist(t *testing.T) {
	t.Parallel()

	for _, headers := range [][]any{{"primarykey", "x"}, {"OrderID", "order id"}} {
		dir := t.TempDir()
		path := writeWorkbook(t, filepath.Join(dir, "case.xlsx"),
			fixtureTable{sheet: "S", name: "T", rows: [][]any{headers, {1, 2}}})

		res := newSQLitePipeline(t).ProcessFile(context.Background(), path)
		assert.Equal(t, StatusFailed, res.Status)

		var coll *schema.SchemaCollisionError
		assert.ErrorAs(t, res.Err, &coll, "headers=%v", headers)
		var pe *storage.PersistenceError
		assert.False(t, errors.As(res.Err, &pe), "headers=%v", headers)
	}
}

func TestProcessFile_BlankRowsBecomeZeroRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeWorkbook(t, filepath.Join(dir, "blank.xlsx"),
		fixtureTable{sheet: "S", name: "T", rows: [][]any{{"Id", "Name"}, {1, "x"}, {nil, nil}, {nil, nil}}})

	res := newSQLitePipeline(t).ProcessFile(context.Background(), path)
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Rows)

	in, err := inspect.Open(context.Background(), res.Dest)
	require.NoError(t, err)
	defer in.Close()

	rep, err := in.Describe(context.Background(), "S_T")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rep.RowCount)
	assert.Equal(t, [][]string{{"1", "1", "x"}, {"2", "0", ""}, {"3", "0", ""}}, rep.Rows)
}

type fakeStore struct {
	mu    sync.Mutex
	dests []string
	err   error
}

func (f *fakeStore) Persist(ctx context.Context, dest string, tables []storage.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dests = append(f.dests, dest)
	return f.err
}

func (f *fakeStore) Close() {}

func TestProcessFile_PersistError(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, filepath.Join(t.TempDir(), "orders.xlsx"), ordersTable)
	cause := errors.New("disk full")
	p := &Pipeline{
		Store: &fakeStore{err: storage.NewPersistenceError("fake", "Orders", "insert", "Sheet1_Orders", cause)},
		Kind:  "postgres",
		Display: func(context.Context, string, io.Writer) error {
			t.Fatalf("display must not run after a failed persist")
			return nil
		},
	}

	res := p.ProcessFile(context.Background(), path)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "Orders", res.Dest)
	var pe *storage.PersistenceError
	require.ErrorAs(t, res.Err, &pe)
	assert.ErrorIs(t, res.Err, cause)
}

func TestProcessFile_DisplayError(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, filepath.Join(t.TempDir(), "orders.xlsx"), ordersTable)
	p := &Pipeline{
		Store:   &fakeStore{},
		Kind:    "sqlite",
		Display: func(context.Context, string, io.Writer) error { return errors.New("tty gone") },
	}

	res := p.ProcessFile(context.Background(), path)
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorContains(t, res.Err, "tty gone")
}

func TestProcessFile_RequiresStore(t *testing.T) {
	t.Parallel()

	res := (&Pipeline{}).ProcessFile(context.Background(), "x.xlsx")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestRunDir_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a_orders.xlsx"), ordersTable)
	writeWorkbook(t, filepath.Join(dir, "b_dup.xlsx"),
		fixtureTable{sheet: "Sheet1", name: "Dup", rows: [][]any{{"x y", "x_y"}, {1, 2}}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c_broken.xlsx"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$a_orders.xlsx"), []byte("lock"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644))

	r := &Runner{Pipeline: newSQLitePipeline(t), Workers: 1}
	rep, err := r.RunDir(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, rep.Files, 3)
	assert.Equal(t, StatusOK, rep.Files[0].Status)
	assert.Equal(t, StatusFailed, rep.Files[1].Status)
	assert.Equal(t, StatusSkipped, rep.Files[2].Status)
	assert.Equal(t, 1, rep.Count(StatusOK))
	assert.Len(t, rep.Errors(), 2)

	_, err = os.Stat(filepath.Join(dir, "a_orders.db"))
	assert.NoError(t, err)
}

func TestRunDir_ConcurrentWorkers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	const n = 6
	for i := 0; i < n; i++ {
		writeWorkbook(t, filepath.Join(dir, string(rune('a'+i))+".xlsx"), ordersTable)
	}

	r := &Runner{Pipeline: newSQLitePipeline(t), Workers: 3}
	rep, err := r.RunDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, n, rep.Count(StatusOK))
	for i, f := range rep.Files {
		assert.Equal(t, filepath.Join(dir, string(rune('a'+i))+".db"), f.Dest, "results keep scan order")
	}
}

func TestRunDir_DuplicateDestination(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{}
	r := &Runner{
		Pipeline: &Pipeline{Store: fs, Kind: "postgres"},
		Scan: func(string) ([]string, error) {
			return []string{"in/sales-2024.xlsx", "in/sales_2024.xlsx"}, nil
		},
	}

	rep, err := r.RunDir(context.Background(), "in")
	require.NoError(t, err)
	require.Len(t, rep.Files, 2)
	assert.ErrorContains(t, rep.Files[1].Err, "already used by in/sales-2024.xlsx")
	assert.Equal(t, StatusFailed, rep.Files[1].Status)
}

func TestRunDir_Errors(t *testing.T) {
	t.Parallel()

	_, err := (&Runner{}).RunDir(context.Background(), t.TempDir())
	require.Error(t, err)

	r := &Runner{Pipeline: &Pipeline{Store: &fakeStore{}, Kind: "sqlite"}}
	_, err = r.RunDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

// metricsRecorder counts file outcomes. Tests using it mutate the global
// backend and must not call t.Parallel.
type metricsRecorder struct {
	mu    sync.Mutex
	files map[string]float64
	steps map[string]float64
	rows  float64
}

func (m *metricsRecorder) IncCounter(name string, delta float64, l metrics.Labels) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case metrics.FilesTotal:
		m.files[l["status"]] += delta
	case metrics.StepTotal:
		m.steps[l["step"]+"/"+l["status"]] += delta
	case metrics.RecordsTotal:
		if l["kind"] == "rows" {
			m.rows += delta
		}
	}
}
func (m *metricsRecorder) ObserveHistogram(string, float64, metrics.Labels) {}
func (m *metricsRecorder) Flush() error                                      { return nil }

func TestProcessFile_RecordsMetrics(t *testing.T) {
	rec := &metricsRecorder{files: map[string]float64{}, steps: map[string]float64{}}
	metrics.SetBackend(rec)
	t.Cleanup(func() { metrics.SetBackend(nil) })

	dir := t.TempDir()
	ok := writeWorkbook(t, filepath.Join(dir, "orders.xlsx"), ordersTable)
	bad := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("junk"), 0o644))

	p := newSQLitePipeline(t)
	p.ProcessFile(context.Background(), ok)
	p.ProcessFile(context.Background(), bad)

	assert.Equal(t, float64(1), rec.files[StatusOK])
	assert.Equal(t, float64(1), rec.files[StatusSkipped])
	assert.Equal(t, float64(2), rec.rows)
	assert.Equal(t, float64(1), rec.steps["persist/ok"])
	assert.Equal(t, float64(1), rec.steps["extract/error"])
}

func TestDurMS(t *testing.T) {
	t.Parallel()

	d := durMS(time.Now().Add(-1500 * time.Microsecond))
	assert.Equal(t, time.Duration(0), d%time.Millisecond)
}


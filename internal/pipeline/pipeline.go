// Package pipeline runs the per-workbook pipeline (extract, build, persist,
// display) and fans it out over a directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
	"time"

	"sheetetl/internal/metrics"
	"sheetetl/internal/storage"
	"sheetetl/internal/workbook"
)

// Logger is the minimal logging interface used by the pipeline.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// DisplayFn renders the store at dest. inspect.Display satisfies it.
type DisplayFn func(ctx context.Context, dest string, w io.Writer) error

// File outcomes, also used as the metrics "status" label.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// FileResult is the outcome of one workbook.
type FileResult struct {
	Path     string
	Dest     string
	Status   string
	Reason   string // why a file was skipped
	Tables   int
	Rows     int
	Err      error
	Duration time.Duration
}

// Pipeline processes single workbooks. It holds no per-file state, so one
// Pipeline may serve concurrent ProcessFile calls as long as Store does.
type Pipeline struct {
	// Store persists built tables. Required.
	Store storage.Store

	// Kind is the storage kind, used for destination naming.
	Kind string

	// Workbook holds the options every workbook is opened with.
	Workbook workbook.Config

	// Display, when non-nil, runs after each successful persist with Out as
	// its writer. Calls are serialized so dumps never interleave.
	Display DisplayFn
	Out     io.Writer

	Logger Logger

	displayMu sync.Mutex
}

// ProcessFile runs extract, build, persist and (optionally) display for the
// workbook at path. It never panics on bad input; every error is reported in
// the result.
//
// Outcomes:
//   - *workbook.ExtractionError: skipped, Err set.
//   - no named tables: skipped, Err nil.
//   - build or persist errors: failed. After a persist error the
//     destination must be treated as invalid.
//   - display errors: failed, although the store itself was committed.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) FileResult {
	start := time.Now()
	res := p.process(ctx, path)
	res.Duration = time.Since(start)

	metrics.RecordFile(res.Status)
	logf := p.logger()
	switch {
	case res.Status == StatusOK:
		logf("file=%s dest=%s tables=%d rows=%d status=ok duration=%s", filepath.Base(path), res.Dest, res.Tables, res.Rows, durMS(start))
	case res.Err == nil:
		logf("file=%s status=skipped reason=%s", filepath.Base(path), res.Reason)
	default:
		logf("file=%s status=%s err=%v", filepath.Base(path), res.Status, res.Err)
	}
	return res
}

func (p *Pipeline) process(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}
	logf := p.logger()

	if p.Store == nil {
		res.Status, res.Err = StatusFailed, errors.New("pipeline: Store is required")
		return res
	}

	// extract
	stageStart := time.Now()
	raws, err := p.extract(path)
	if err != nil {
		metrics.RecordStep("extract", "error", time.Since(stageStart))
		res.Status, res.Reason, res.Err = StatusSkipped, "extract", err
		return res
	}
	metrics.RecordStep("extract", "ok", time.Since(stageStart))
	if len(raws) == 0 {
		res.Status, res.Reason = StatusSkipped, "no_tables"
		return res
	}
	logf("stage=extract file=%s tables=%d ok duration=%s", filepath.Base(path), len(raws), durMS(stageStart))

	// build
	stageStart = time.Now()
	tables, err := BuildTables(raws)
	if err != nil {
		metrics.RecordStep("build", "error", time.Since(stageStart))
		res.Status, res.Err = StatusFailed, err
		return res
	}
	metrics.RecordStep("build", "ok", time.Since(stageStart))
	for _, t := range tables {
		res.Rows += len(t.Rows)
	}
	res.Tables = len(tables)
	logf("stage=build file=%s tables=%d rows=%d ok duration=%s", filepath.Base(path), res.Tables, res.Rows, durMS(stageStart))

	// persist
	res.Dest = Destination(p.Kind, path)
	stageStart = time.Now()
	if err := p.Store.Persist(ctx, res.Dest, tables); err != nil {
		metrics.RecordStep("persist", "error", time.Since(stageStart))
		res.Status, res.Err = StatusFailed, err
		return res
	}
	metrics.RecordStep("persist", "ok", time.Since(stageStart))
	metrics.RecordRecords("tables", res.Tables)
	metrics.RecordRecords("rows", res.Rows)
	logf("stage=persist file=%s dest=%s tables=%d rows=%d ok duration=%s", filepath.Base(path), res.Dest, res.Tables, res.Rows, durMS(stageStart))

	// display
	if p.Display != nil {
		stageStart = time.Now()
		if err := p.display(ctx, res.Dest); err != nil {
			metrics.RecordStep("display", "error", time.Since(stageStart))
			res.Status, res.Err = StatusFailed, fmt.Errorf("display %s: %w", res.Dest, err)
			return res
		}
		metrics.RecordStep("display", "ok", time.Since(stageStart))
	}

	res.Status = StatusOK
	return res
}

// extract opens the workbook and reads all of its named tables.
func (p *Pipeline) extract(path string) ([]workbook.RawTable, error) {
	wb, err := workbook.Open(path, p.Workbook)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return wb.Tables()
}

func (p *Pipeline) display(ctx context.Context, dest string) error {
	p.displayMu.Lock()
	defer p.displayMu.Unlock()
	return p.Display(ctx, dest, p.out())
}

func (p *Pipeline) logger() func(format string, v ...any) {
	if p.Logger == nil {
		return log.New(io.Discard, "", 0).Printf
	}
	return p.Logger.Printf
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

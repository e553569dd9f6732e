package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"sheetetl/internal/metrics"
	"sheetetl/internal/workbook"
)

// Runner processes every workbook in a directory.
type Runner struct {
	Pipeline *Pipeline

	// Workers bounds concurrent files. Values < 1 mean 1.
	Workers int

	// Scan lists workbook paths in a directory. Defaults to workbook.ScanDir.
	Scan func(dir string) ([]string, error)
}

// Report collects per-file results in scan order.
type Report struct {
	Dir      string
	Files    []FileResult
	Duration time.Duration
}

// Count returns how many files ended with status.
func (r Report) Count(status string) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Errors returns the results that carry an error, skipped or failed.
func (r Report) Errors() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// RunDir scans dir and runs the pipeline on each workbook.
//
// Per-file errors never stop the run or cancel other files; they are in the
// Report. Two workbooks mapping to the same destination would overwrite each
// other, so every file after the first fails without being processed.
//
// Errors:
//   - Returns an error only if dir cannot be scanned or Pipeline is nil.
func (r *Runner) RunDir(ctx context.Context, dir string) (Report, error) {
	start := time.Now()
	rep := Report{Dir: dir}

	if r.Pipeline == nil {
		return rep, fmt.Errorf("runner: Pipeline is required")
	}

	scan := r.Scan
	if scan == nil {
		scan = workbook.ScanDir
	}
	paths, err := scan(dir)
	if err != nil {
		return rep, fmt.Errorf("scan %s: %w", dir, err)
	}

	rep.Files = make([]FileResult, len(paths))
	owner := make(map[string]string, len(paths))

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		dest := Destination(r.Pipeline.Kind, path)
		if first, dup := owner[dest]; dup {
			rep.Files[i] = FileResult{
				Path:   path,
				Dest:   dest,
				Status: StatusFailed,
				Err:    fmt.Errorf("destination %s already used by %s", dest, first),
			}
			metrics.RecordFile(StatusFailed)
			r.Pipeline.logger()("file=%s status=failed err=%v", filepath.Base(path), rep.Files[i].Err)
			continue
		}
		owner[dest] = path

		g.Go(func() error {
			rep.Files[i] = r.Pipeline.ProcessFile(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	rep.Duration = time.Since(start)
	r.Pipeline.logger()("stage=run dir=%s files=%d ok=%d skipped=%d failed=%d duration=%s",
		dir, len(paths), rep.Count(StatusOK), rep.Count(StatusSkipped), rep.Count(StatusFailed), durMS(start))
	return rep, nil
}

// Package metrics is a small backend-agnostic metrics facade.
//
// Pipeline code calls the Record* helpers; the CLI installs a concrete backend
// (Datadog) with SetBackend. Until then every call goes to a nop backend, so
// tests and library callers never need to configure anything.
package metrics

import (
	"sync"
	"time"
)

// Labels are metric dimensions (step, status, kind).
type Labels map[string]string

// Backend receives raw metric events. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names shared with backends.
const (
	StepTotal           = "sheetetl_step_total"
	StepDurationSeconds = "sheetetl_step_duration_seconds"
	RecordsTotal        = "sheetetl_records_total"
	FilesTotal          = "sheetetl_files_total"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. nil restores the nop
// backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter forwards to the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram forwards to the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the installed backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one pipeline stage (extract, build, persist, display) and
// observes its duration.
func RecordStep(step, status string, d time.Duration) {
	l := Labels{"step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, l)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}

// RecordRecords counts n items of a kind ("rows" or "tables"). n <= 0 is a
// no-op.
func RecordRecords(kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(n), Labels{"kind": kind})
}

// RecordFile counts one processed workbook by outcome: ok, skipped or failed.
func RecordFile(status string) {
	current().IncCounter(FilesTotal, 1, Labels{"status": status})
}

package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"sheetetl/internal/metrics"
	"sheetetl/internal/metrics/datadog"
)

// metricsBackend is what initMetrics needs from a concrete backend.
type metricsBackend interface {
	Close() error
}

// Seams for tests; production values talk to Datadog and the global facade.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metricsBackend, error) {
		b, err := datadog.NewBackend(ctx, opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	// setMetricsBackend(nil) restores the nop backend.
	setMetricsBackend = func(b any) {
		mb, _ := b.(metrics.Backend)
		metrics.SetBackend(mb)
	}
	logPrintf = log.Printf
)

// initMetrics installs the named backend and returns its cleanup. The cleanup
// is never nil and is safe to call on every path.
//
//   - "" and "none" leave the nop backend in place.
//   - "datadog" (or "dd") buffers and flushes every minute; cleanup closes it,
//     which performs the final flush.
func initMetrics(ctx context.Context, job, backend string, tags []string) (func(), error) {
	noop := func() {}
	if job == "" {
		job = defaultJob
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "none":
		return noop, nil

	case "datadog", "dd":
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    job,
			Tags:       tags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			return noop, fmt.Errorf("datadog: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close error: %v", err)
			}
			setMetricsBackend(nil)
		}, nil

	default:
		return noop, fmt.Errorf("unknown metrics backend %q", backend)
	}
}

func parseTags(csv string) []string {
	return datadog.ParseTagsCSV(csv)
}

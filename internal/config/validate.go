package config

import (
	"fmt"
	"strings"
)

// Severity ranks a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path is the JSON path of the offending
// field.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// storageKinds are the backends the CLI links in.
var storageKinds = map[string]bool{
	"sqlite":   true,
	"postgres": true,
	"mssql":    true,
}

var metricsBackends = map[string]bool{
	"":        true,
	"none":    true,
	"datadog": true,
	"dd":      true,
}

// Validate reports every problem with cfg. It never stops at the first one.
//
// Errors make the run impossible (no directory, unknown backend, missing DSN).
// Warnings flag settings that will be ignored.
func Validate(cfg Config) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(cfg.Dir) == "" {
		add(SeverityError, "dir", "is required")
	}

	kind := cfg.Storage.Kind
	switch {
	case kind == "":
		add(SeverityError, "storage.kind", "is required")
	case !storageKinds[kind]:
		add(SeverityError, "storage.kind", "unsupported kind %q (want sqlite, postgres or mssql)", kind)
	case kind == "sqlite":
		if cfg.Storage.DSN != "" {
			add(SeverityWarning, "storage.dsn", "ignored for sqlite; each workbook gets <dir>/<name>.db")
		}
	default:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			add(SeverityError, "storage.dsn", "is required for %s", kind)
		}
	}

	if cfg.Runtime.Workers < 1 {
		add(SeverityError, "runtime.workers", "must be >= 1, got %d", cfg.Runtime.Workers)
	}
	if cfg.Runtime.Display && storageKinds[kind] && kind != "sqlite" {
		add(SeverityWarning, "runtime.display", "only supported for sqlite; display is skipped")
	}

	wb := cfg.Workbook
	if wb.UnzipSizeLimit < 0 {
		add(SeverityError, "workbook.unzip_size_limit", "must not be negative")
	}
	if wb.UnzipXMLSizeLimit < 0 {
		add(SeverityError, "workbook.unzip_xml_size_limit", "must not be negative")
	}
	if wb.UnzipSizeLimit > 0 && wb.UnzipXMLSizeLimit > wb.UnzipSizeLimit {
		add(SeverityError, "workbook.unzip_xml_size_limit", "must not exceed unzip_size_limit")
	}

	if !metricsBackends[cfg.Metrics.Backend] {
		add(SeverityError, "metrics.backend", "unknown backend %q (want datadog or none)", cfg.Metrics.Backend)
	}

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

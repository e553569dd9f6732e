// Package config resolves the pipeline configuration.
//
// Resolution order, later wins:
//  1. Default()
//  2. an optional JSON file (Load)
//  3. environment variables (ApplyEnv), including a .env file the CLI loads
//  4. command-line flags (applied by the CLI)
//
// The resolved Config is a value. Nothing in it is mutated after startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sheetetl/internal/storage"
	"sheetetl/internal/workbook"
)

// Config is the full pipeline configuration.
type Config struct {
	// Dir is the directory scanned for workbooks.
	Dir string `json:"dir"`

	Storage  storage.Config  `json:"storage"`
	Workbook workbook.Config `json:"workbook"`
	Runtime  Runtime         `json:"runtime"`
	Metrics  Metrics         `json:"metrics"`
}

// Runtime controls execution.
type Runtime struct {
	// Workers bounds how many workbooks are processed at once. 1 is strictly
	// sequential.
	Workers int `json:"workers"`

	// Display renders each store after it is written (sqlite only).
	Display bool `json:"display"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "datadog" or "none". Empty means none.
	Backend string `json:"backend"`

	// Job becomes the "job:<name>" tag.
	Job string `json:"job"`

	// Tags is a comma-separated list of extra tags ("env:prod,team:data").
	Tags string `json:"tags"`
}

// Environment variable names.
const (
	EnvDir              = "SHEETETL_DIR"
	EnvStorageKind      = "SHEETETL_STORAGE_KIND"
	EnvStorageDSN       = "SHEETETL_STORAGE_DSN"
	EnvWorkers          = "SHEETETL_WORKERS"
	EnvDisplay          = "SHEETETL_DISPLAY"
	EnvWorkbookPassword = "SHEETETL_WORKBOOK_PASSWORD"
	EnvMetricsBackend   = "METRICS_BACKEND"
	EnvMetricsTags      = "METRICS_TAGS"
)

// Default returns the built-in configuration: current directory, a sqlite
// store per workbook, one worker, display on, metrics off.
func Default() Config {
	return Config{
		Dir:     ".",
		Storage: storage.Config{Kind: "sqlite"},
		Runtime: Runtime{Workers: 1, Display: true},
		Metrics: Metrics{Backend: "none", Job: "sheetetl"},
	}
}

// Load returns Default() overlaid with the JSON file at path. An empty path
// returns the defaults. Unknown JSON fields are rejected.
//
// ${VAR} references in storage.dsn are expanded from the environment, so
// credentials need not live in the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.Storage.DSN = os.ExpandEnv(cfg.Storage.DSN)
	return cfg, nil
}

// ApplyEnv overlays non-empty environment values read through getenv
// (normally os.Getenv) and returns the result.
//
// Errors:
//   - Returns an error naming the variable if a numeric or boolean value
//     does not parse. cfg is returned unchanged in that case.
func ApplyEnv(cfg Config, getenv func(string) string) (Config, error) {
	out := cfg

	if v := env(getenv, EnvDir); v != "" {
		out.Dir = v
	}
	if v := env(getenv, EnvStorageKind); v != "" {
		out.Storage.Kind = v
	}
	if v := env(getenv, EnvStorageDSN); v != "" {
		out.Storage.DSN = v
	}
	if v := env(getenv, EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		out.Runtime.Workers = n
	}
	if v := env(getenv, EnvDisplay); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvDisplay, err)
		}
		out.Runtime.Display = b
	}
	if v := getenv(EnvWorkbookPassword); v != "" {
		out.Workbook.Password = v
	}
	if v := env(getenv, EnvMetricsBackend); v != "" {
		out.Metrics.Backend = v
	}
	if v := env(getenv, EnvMetricsTags); v != "" {
		out.Metrics.Tags = v
	}
	return out, nil
}

// env returns the trimmed value of key. Passwords are read raw instead.
func env(getenv func(string) string, key string) string {
	return strings.TrimSpace(getenv(key))
}

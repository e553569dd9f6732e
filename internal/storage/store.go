// Package storage defines the backend-agnostic persistence contract and the
// registry backends plug into.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownKind is wrapped by New when no backend is registered for a kind.
var ErrUnknownKind = errors.New("storage: unsupported kind")

// Config is the minimal configuration needed to create a Store.
//
// When to use:
//   - Use Config when constructing a Store via New.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific.
//     File-based backends (sqlite) ignore it because the destination is the file.
//
// Errors:
//   - New returns an error if Kind is empty or unsupported.
type Config struct {
	Kind string `json:"kind"`
	DSN  string `json:"dsn,omitempty"`
}

// Store persists the tables extracted from one workbook.
//
// Each backend implements the semantics in its own idiomatic way (a fresh
// SQLite file, a recreated Postgres schema, recreated SQL Server tables).
type Store interface {
	// Persist replaces dest with tables and writes every row.
	//
	// Contract:
	//   - Whatever already exists at dest is discarded first; nothing is merged.
	//   - One table is created per Table, PrimaryKey as its identity column.
	//   - All inserts for the call commit as a single transaction.
	//
	// Errors:
	//   - Returns *PersistenceError. After an error the destination must be
	//     treated as invalid.
	Persist(ctx context.Context, dest string, tables []Table) error

	// Close releases backend resources. Call once.
	Close()
}

// ---- factories ----

type factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "sqlite", "postgres").
//
// When to use:
//   - Call Register from an init() function in a backend package.
//   - The `kind` string becomes the lookup key used by New.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. This fails fast rather than leaving
//     backend selection ambiguous.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Store using the registered backend factory.
//
// Concurrency:
//   - Safe for concurrent use with Register. New takes a read lock while
//     selecting the factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty.
//   - Returns an error wrapping ErrUnknownKind if cfg.Kind is not registered.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("%w: kind=%s", ErrUnknownKind, cfg.Kind)
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package storage

import "fmt"

// PersistenceError reports a failure creating or writing a store. The
// destination is left in an undefined state and must not be trusted.
type PersistenceError struct {
	Kind  string // backend kind
	Dest  string // file path or schema name
	Table string // empty when the failure is not table-specific
	Op    string // "reset", "open", "begin", "create", "insert", "commit"
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("persist %s %s: %s %s: %v", e.Kind, e.Dest, e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("persist %s %s: %s: %v", e.Kind, e.Dest, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err; it returns nil when err is nil.
func NewPersistenceError(kind, dest, op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Kind: kind, Dest: dest, Table: table, Op: op, Err: err}
}

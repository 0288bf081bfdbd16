package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilter is returned when DeleteWhere is called with no
	// filter columns. A programming error, never a client outcome.
	ErrInvalidFilter = errors.New("empty delete filter")

	// ErrPersistence marks any backing-engine failure.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError wraps a low-level engine error with the operation and
// table it occurred on.
type PersistenceError struct {
	Op    string
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func persistErr(op, table string, err error) error {
	return &PersistenceError{Op: op, Table: table, Err: err}
}

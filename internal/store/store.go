// Package store provides generic persistence over the catalog tables. It
// operates purely on table names and column-keyed records; entity semantics
// live one layer up in the app package.
package store

import "scarletbooks/pkg/domain"

// Store defines the relational operations the catalog service relies on.
// All engine failures are reported as *PersistenceError; none of the
// operations retry, since insert and delete are not safe to replay blindly.
type Store interface {
	// TableExists reports whether the table is present. A missing table is
	// never an error.
	TableExists(table string) (bool, error)

	// EnsureTable creates the table from its registered DDL when absent.
	// Idempotent.
	EnsureTable(table string) error

	// Insert lazily ensures the table, then inserts exactly one row and
	// returns the record unchanged. Duplicate-key handling is the caller's
	// decision.
	Insert(table string, rec domain.Record) (domain.Record, error)

	// DeleteWhere removes every row matching the conjunction of all filter
	// columns and returns the count. An empty filter fails with
	// ErrInvalidFilter rather than emptying the table.
	DeleteWhere(table string, filter domain.Record) (int64, error)

	// DeleteAll unconditionally empties the table if it exists.
	DeleteAll(table string) error

	// FetchAll reads every row and zips it positionally against
	// columnOrder. Row order is storage order; callers sort when order
	// matters.
	FetchAll(table string, columnOrder []string) ([]domain.Record, error)

	// Exists reports whether any row matches the filter exactly. Built on
	// FetchAll; fine at catalog volumes, not for indexed lookups.
	Exists(table string, columnOrder []string, filter domain.Record) (bool, error)

	Close() error
}

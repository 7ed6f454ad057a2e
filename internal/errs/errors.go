// Package errs holds the error taxonomy shared by the schema, query and
// seeding packages.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a query that expects a row finds none.
	ErrNotFound = errors.New("record not found")

	// ErrTableNotFound marks store failures caused by a missing table.
	ErrTableNotFound = errors.New("table does not exist")

	// ErrUnknownDirection is returned for migration directions other than up/down.
	ErrUnknownDirection = errors.New("unknown migration direction")

	// ErrInvalidIdentifier is returned for table or column names that are not
	// plain SQL identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// ConstructionError reports an invalid declaration detected before any
// statement reaches the store.
type ConstructionError struct {
	Table  string
	Column string
	Reason string
}

func (e *ConstructionError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("invalid schema for %s.%s: %s", e.Table, e.Column, e.Reason)
	}
	return fmt.Sprintf("invalid schema for %s: %s", e.Table, e.Reason)
}

// Construction builds a ConstructionError with a formatted reason.
func Construction(table, column, format string, args ...any) error {
	return &ConstructionError{Table: table, Column: column, Reason: fmt.Sprintf(format, args...)}
}

// ExecutionError wraps a store failure with the operation context that
// produced it.
type ExecutionError struct {
	Op     string
	Table  string
	Column string
	Err    error
}

func (e *ExecutionError) Error() string {
	target := e.Table
	if e.Column != "" {
		target += "." + e.Column
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, target, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Execution wraps err, returning nil when err is nil.
func Execution(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &ExecutionError{Op: op, Table: table, Err: err}
}

// DuplicateEntryError is raised by seeding under the "error" duplicate policy.
// Err is the store's unique violation when the store caught the duplicate.
type DuplicateEntryError struct {
	Table  string
	Fields []string
	Values []any
	Err    error
}

func (e *DuplicateEntryError) Error() string {
	pairs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		pairs[i] = fmt.Sprintf("%s=%v", f, e.Values[i])
	}
	if len(pairs) == 0 && e.Err != nil {
		return fmt.Sprintf("duplicate entry in %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("duplicate entry in %s (%s)", e.Table, strings.Join(pairs, ", "))
}

func (e *DuplicateEntryError) Unwrap() error { return e.Err }

var notFoundPhrases = []string{
	"does not exist",
	"doesn't exist",
	"no such table",
	"unknown table",
	"not found",
}

// IsNotFound reports whether err belongs to the "does not exist" class.
// Adapters wrap ErrTableNotFound when they can classify by driver code;
// otherwise the message is matched against the phrases stores use.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range notFoundPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// IsConstruction reports whether err is (or wraps) a ConstructionError.
func IsConstruction(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce)
}

// IsDuplicate reports whether err is (or wraps) a DuplicateEntryError.
func IsDuplicate(err error) bool {
	var de *DuplicateEntryError
	return errors.As(err, &de)
}

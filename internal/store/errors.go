package store

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes statement failures.
type ErrorKind string

const (
	// KindPrepareFailed indicates the store rejected the statement text.
	KindPrepareFailed ErrorKind = "PREPARE_FAILED"

	// KindExecuteFailed indicates the statement or its bindings failed at
	// execution.
	KindExecuteFailed ErrorKind = "EXECUTE_FAILED"

	// KindTransactionFailed indicates a batch write failed and was rolled
	// back as a whole.
	KindTransactionFailed ErrorKind = "TRANSACTION_FAILED"
)

// Error is a failed store operation.
type Error struct {
	Kind ErrorKind

	// Op names the operation ("query", "add triples", ...).
	Op string

	// SQL is the statement that failed, if one was issued.
	SQL string

	// Literals holds the values bound to SQL. Positional parameters are keyed
	// by their one-based index.
	Literals map[string]string

	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a store *Error of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// positional keys positional arguments by one-based index.
func positional(args []any) map[string]string {
	out := make(map[string]string, len(args))
	for i, a := range args {
		out[fmt.Sprintf("%d", i+1)] = fmt.Sprint(a)
	}
	return out
}

package triples

import (
	"database/sql"
	"fmt"
	"iter"
)

// Cursor is a forward-only result set. *store.Cursor and *sql.Rows satisfy it.
type Cursor interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Row maps variable names to values. Variables an optional branch left
// unbound are invalid NullStrings.
type Row map[string]sql.NullString

// RelationsIterator reads result rows and re-keys them from output aliases to
// variable names.
//
// The iterator cannot be restarted. Once the cursor is exhausted or fails it
// is closed, and Next keeps returning false.
type RelationsIterator struct {
	cursor     Cursor
	projection map[string]string // output alias -> variable name

	columns []string
	row     Row
	pos     int
	done    bool
	closed  bool
	err     error
}

// NewRelationsIterator wraps cur. projection maps result columns to the
// variable names rows are keyed by; other columns are dropped.
func NewRelationsIterator(cur Cursor, projection map[string]string) *RelationsIterator {
	return &RelationsIterator{
		cursor:     cur,
		projection: projection,
		pos:        -1,
	}
}

// Next advances to the next row.
func (it *RelationsIterator) Next() bool {
	if it.done {
		return false
	}

	if it.columns == nil {
		cols, err := it.cursor.Columns()
		if err != nil {
			it.finish(fmt.Errorf("read columns: %w", err))
			return false
		}
		it.columns = cols
	}

	if !it.cursor.Next() {
		it.finish(it.cursor.Err())
		return false
	}

	values := make([]sql.NullString, len(it.columns))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := it.cursor.Scan(dest...); err != nil {
		it.finish(fmt.Errorf("scan row: %w", err))
		return false
	}

	byAlias := make(map[string]sql.NullString, len(it.columns))
	for i, col := range it.columns {
		byAlias[col] = values[i]
	}
	row := make(Row, len(it.projection))
	for alias, name := range it.projection {
		row[name] = byAlias[alias]
	}

	it.row = row
	it.pos++
	return true
}

// Row returns the current row, or nil before the first and after the last.
func (it *RelationsIterator) Row() Row {
	return it.row
}

// Position returns the zero-based index of the current row; -1 before the
// first call to Next.
func (it *RelationsIterator) Position() int {
	return it.pos
}

// Err returns the error that ended iteration, if any.
func (it *RelationsIterator) Err() error {
	return it.err
}

// Rewind does nothing; results can only be read once.
func (it *RelationsIterator) Rewind() {}

// Close releases the cursor. Closing more than once is a no-op.
func (it *RelationsIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.done = true
	return it.cursor.Close()
}

// All returns the remaining rows as a sequence of (position, row) pairs.
// Breaking out of the loop leaves the iterator open.
func (it *RelationsIterator) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for it.Next() {
			if !yield(it.pos, it.row) {
				return
			}
		}
	}
}

// finish ends iteration with err and closes the cursor.
func (it *RelationsIterator) finish(err error) {
	it.done = true
	it.row = nil
	it.err = err
	if cerr := it.Close(); cerr != nil && it.err == nil {
		it.err = fmt.Errorf("close cursor: %w", cerr)
	}
}

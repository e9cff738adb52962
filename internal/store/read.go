package store

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
)

// FetchTriples returns every triple matching p.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) FetchTriples(ctx context.Context, p Pattern) ([]Triple, error) {
	const op = "fetch triples"

	where, args := p.where(s.dialect.CaseInsensitive)
	query := "SELECT subject, predicate, object, graph FROM data WHERE " + where

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, &Error{Kind: KindPrepareFailed, Op: op, SQL: query, Literals: positional(args), Err: err}
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, &Error{Kind: KindExecuteFailed, Op: op, SQL: query, Literals: positional(args), Err: err}
	}
	defer rows.Close()

	triples := []Triple{}
	for rows.Next() {
		var t Triple
		if err := rows.Scan(&t.Subject, &t.Predicate, &t.Object, &t.Graph); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		triples = append(triples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Kind: KindExecuteFailed, Op: op, SQL: query, Literals: positional(args), Err: err}
	}

	return triples, nil
}

// Query prepares and executes a compiled statement. Literals are bound by
// name: a key "qv3" fills the placeholder :qv3. Values are normalized like
// stored text.
//
// The caller must close the returned Cursor. While it is open it holds the
// store's only connection.
func (s *Store) Query(ctx context.Context, query string, literals map[string]string) (*Cursor, error) {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, &Error{Kind: KindPrepareFailed, Op: "query", SQL: query, Literals: literals, Err: err}
	}

	rows, err := stmt.QueryContext(ctx, namedArgs(literals)...)
	if err != nil {
		stmt.Close()
		return nil, &Error{Kind: KindExecuteFailed, Op: "query", SQL: query, Literals: literals, Err: err}
	}

	return &Cursor{rows: rows, stmt: stmt}, nil
}

// namedArgs binds literals in key order.
func namedArgs(literals map[string]string) []any {
	args := make([]any, 0, len(literals))
	for _, name := range slices.Sorted(maps.Keys(literals)) {
		args = append(args, sql.Named(name, normalize(literals[name])))
	}
	return args
}

// Cursor is an open result set of a Query.
type Cursor struct {
	rows   *sql.Rows
	stmt   *sql.Stmt
	closed bool
}

// Columns returns the result column names.
func (c *Cursor) Columns() ([]string, error) {
	return c.rows.Columns()
}

// Next advances to the next row.
func (c *Cursor) Next() bool {
	return c.rows.Next()
}

// Scan copies the current row into dest.
func (c *Cursor) Scan(dest ...any) error {
	return c.rows.Scan(dest...)
}

// Err returns the error, if any, encountered during iteration.
func (c *Cursor) Err() error {
	return c.rows.Err()
}

// Close releases the result set and its statement. Closing twice is a no-op.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	rowsErr := c.rows.Close()
	stmtErr := c.stmt.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return stmtErr
}

package store

import (
	"context"
	"fmt"
)

const insertSQL = "INSERT INTO data(subject, predicate, object, graph) VALUES(?, ?, ?, ?)"

// AddTriple inserts a single triple.
func (s *Store) AddTriple(ctx context.Context, subject, predicate, object, graph string) error {
	return s.AddTriples(ctx, []Triple{{Subject: subject, Predicate: predicate, Object: object}}, graph)
}

// AddTriples inserts a batch of triples into graph in one transaction. When
// graph is empty, each triple's own Graph is used. If any insert fails the
// whole batch is rolled back and a KindTransactionFailed error is returned.
func (s *Store) AddTriples(ctx context.Context, triples []Triple, graph string) error {
	const op = "add triples"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Kind: KindTransactionFailed, Op: op, Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return &Error{Kind: KindPrepareFailed, Op: op, SQL: insertSQL, Err: err}
	}
	defer stmt.Close()

	for i, t := range triples {
		g := graph
		if g == "" {
			g = t.Graph
		}
		args := []any{normalize(t.Subject), normalize(t.Predicate), normalize(t.Object), normalize(g)}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return &Error{
				Kind:     KindTransactionFailed,
				Op:       op,
				SQL:      insertSQL,
				Literals: positional(args),
				Err:      fmt.Errorf("triple %d of %d: %w", i+1, len(triples), err),
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Kind: KindTransactionFailed, Op: op, Err: fmt.Errorf("commit: %w", err)}
	}

	return nil
}

// RemoveTriples deletes every triple matching p and returns how many were
// removed. The zero Pattern removes everything.
func (s *Store) RemoveTriples(ctx context.Context, p Pattern) (int64, error) {
	const op = "remove triples"

	where, args := p.where(s.dialect.CaseInsensitive)
	query := "DELETE FROM data WHERE " + where

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, &Error{Kind: KindPrepareFailed, Op: op, SQL: query, Literals: positional(args), Err: err}
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, &Error{Kind: KindExecuteFailed, Op: op, SQL: query, Literals: positional(args), Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove triples: rows affected: %w", err)
	}
	return n, nil
}

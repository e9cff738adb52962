// Package store provides SQLite-backed storage for triples.
//
// All facts live in one table:
//
//	data(subject, predicate, object, graph)
//
// Subjects and predicates are non-empty; objects may be empty. A graph names
// the source a batch of triples was imported from, so a source can be
// replaced by removing its graph and adding the new batch.
//
// # Text handling
//
// Every value written, every pattern argument and every bound query literal
// is normalized to Unicode NFC, so text that renders identically compares
// equal. Pattern lookups compare case-insensitively through the dialect.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: a Cursor holds it until closed
//
// # Errors
//
// Statement failures are returned as *Error, carrying the statement text and
// its bound values for diagnosis.
package store

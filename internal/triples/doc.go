// Package triples is the query service over the triple store.
//
// A Service writes and removes triples, compiles query trees with sqlgen and
// executes them against the store. Query results come back as iterators:
//
//   - RelationsIterator yields one Row per result row, keyed by variable
//     name. Reaching the end of the rows closes the underlying cursor.
//   - ResourceIterator groups consecutive rows with the same subject into a
//     Resource holding every predicate and its objects.
//
// Iteration is pull-based and single-threaded. A caller that stops early must
// call Close; the store holds a single connection while a cursor is open.
package triples

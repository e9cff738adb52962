// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/omerida/dokuwiki-strata/internal/store"
)

// PeopleGraph is the graph SeedPeople writes to.
const PeopleGraph = "people"

// People is a small data set of named people, one of them without an age.
//
//	A name Alice, A age 30, B name Bob
var People = []store.Triple{
	{Subject: "A", Predicate: "name", Object: "Alice"},
	{Subject: "A", Predicate: "age", Object: "30"},
	{Subject: "B", Predicate: "name", Object: "Bob"},
}

// OpenStore opens a store backed by a file in a temporary directory. The
// store is closed when the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "strata.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Seed adds triples to graph and fails the test on error.
func Seed(t testing.TB, st *store.Store, graph string, triples ...store.Triple) {
	t.Helper()
	if err := st.AddTriples(context.Background(), triples, graph); err != nil {
		t.Fatalf("seed %d triple(s): %v", len(triples), err)
	}
}

// SeedPeople adds People to PeopleGraph.
func SeedPeople(t testing.TB, st *store.Store) {
	t.Helper()
	Seed(t, st, PeopleGraph, People...)
}

// Package query defines the query algebra evaluated against the triple store.
//
// A query is a tree of seven node kinds. Leaves are triple patterns; inner
// nodes combine sub-results:
//
//	Select
//	  └── Filter
//	        └── Optional
//	              ├── Triple(?person, "name", ?name)
//	              └── Triple(?person, "age", ?age)
//
// Every node produces a set of rows keyed by variable name. A variable that
// appears on both sides of an And, Optional or Union is the same variable;
// Minus correlates on the variables shared by both sides but only exposes its
// left-hand side.
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method. Consumers switch over the value forms
// after calling Normalize, which also accepts pointers:
//
//	node, err := query.Normalize(n)
//	if err != nil {
//	    return err // wraps ErrUnknownNodeKind
//	}
//	switch q := node.(type) {
//	case query.Triple:
//	case query.And:
//	...
//	}
//
// SERIALIZED FORM:
//
// Queries can also be written as YAML, JSON or CUE documents (see Document).
// LoadFile picks the decoder from the file extension.
package query

package query

import (
	"errors"
	"fmt"
)

// ErrUnknownNodeKind is returned when a tree contains a node that is not one
// of the seven query kinds. Trees built in Go cannot produce it except through
// nil nodes; decoded documents can.
var ErrUnknownNodeKind = errors.New("unknown query node kind")

// TermKind tags a Term as a variable or a literal.
type TermKind int

const (
	// VariableTerm is bound by joins.
	VariableTerm TermKind = iota
	// LiteralTerm is a fixed value.
	LiteralTerm
)

// String returns "variable" or "literal".
func (k TermKind) String() string {
	switch k {
	case VariableTerm:
		return "variable"
	case LiteralTerm:
		return "literal"
	default:
		return fmt.Sprintf("TermKind(%d)", int(k))
	}
}

// Term is a variable or a literal appearing in a triple pattern or filter.
//
// Two terms are equal iff they have the same kind and the same text, so plain
// == comparison is the intended equality.
type Term struct {
	Kind TermKind
	Text string
}

// Var returns a variable term.
func Var(name string) Term {
	return Term{Kind: VariableTerm, Text: name}
}

// Lit returns a literal term.
func Lit(text string) Term {
	return Term{Kind: LiteralTerm, Text: text}
}

// IsVariable reports whether t is a variable.
func (t Term) IsVariable() bool {
	return t.Kind == VariableTerm
}

func (t Term) String() string {
	if t.IsVariable() {
		return "?" + t.Text
	}
	return fmt.Sprintf("%q", t.Text)
}

// TriplePattern is a (subject, predicate, object) pattern. A variable that
// occurs in two positions constrains those positions to be equal.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Node is a node of the query algebra tree.
//
// This is a sealed interface - only types in this package implement it.
// Trees are built by the caller and never mutated by the compiler.
//
// Node types:
//   - Triple: a single triple pattern
//   - And: inner join of two sub-results
//   - Optional: left outer join, Rhs may contribute nulls
//   - Minus: rows of Lhs without a match in Rhs
//   - Union: set union of both sides
//   - Filter: restricts Lhs by a conjunction of predicates
//   - Select: projection and ordering, always the root
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// Triple is a leaf producing the rows matching one triple pattern.
type Triple struct {
	Pattern TriplePattern
}

func (Triple) queryNode() {}

// And joins two sub-results, unifying shared variable names.
type And struct {
	Lhs Node
	Rhs Node
}

func (And) queryNode() {}

// Optional left-outer-joins Rhs onto Lhs.
type Optional struct {
	Lhs Node
	Rhs Node
}

func (Optional) queryNode() {}

// Minus keeps the rows of Lhs that have no matching row in Rhs on their
// shared variables. When nothing is shared, any Rhs row excludes every Lhs row.
type Minus struct {
	Lhs Node
	Rhs Node
}

func (Minus) queryNode() {}

// Union is the set union of two sub-results.
type Union struct {
	Lhs Node
	Rhs Node
}

func (Union) queryNode() {}

// Filter restricts Lhs by a conjunction of predicates.
type Filter struct {
	Lhs        Node
	Predicates []Predicate
}

func (Filter) queryNode() {}

// Select fixes the output shape: projected variables and row ordering.
type Select struct {
	Group      Node
	Projection []string
	Ordering   []Ordering
}

func (Select) queryNode() {}

// Operator is a filter comparison operator.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpContains     Operator = "~"
	OpNotContains  Operator = "!~"
	OpPrefix       Operator = "^~"
	OpNotPrefix    Operator = "!^~"
	OpSuffix       Operator = "$~"
	OpNotSuffix    Operator = "!$~"
)

var knownOperators = map[Operator]bool{
	OpEqual: true, OpNotEqual: true,
	OpGreater: true, OpLess: true, OpGreaterEqual: true, OpLessEqual: true,
	OpContains: true, OpNotContains: true,
	OpPrefix: true, OpNotPrefix: true,
	OpSuffix: true, OpNotSuffix: true,
}

// Known reports whether op is one of the supported operators.
func (op Operator) Known() bool {
	return knownOperators[op]
}

// Predicate is a binary comparison between two terms.
type Predicate struct {
	Lhs      Term
	Operator Operator
	Rhs      Term
}

// Direction is an ordering direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Ordering sorts the result on one variable.
type Ordering struct {
	Variable  string
	Direction Direction
}

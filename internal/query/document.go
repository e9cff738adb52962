package query

import (
	"fmt"
	"strings"
)

// Document is the serialized form of a query tree, as written in YAML, JSON
// or CUE query files.
//
// Example (YAML):
//
//	type: select
//	projection: [person, name]
//	ordering:
//	  - variable: name
//	    direction: asc
//	group:
//	  type: triple
//	  subject: {variable: person}
//	  predicate: {literal: name}
//	  object: {variable: name}
//
// Documents are external input, so converting one into a Node is where
// ErrUnknownNodeKind is actually produced.
type Document struct {
	Type string `yaml:"type" json:"type"`

	// triple
	Subject   *TermDocument `yaml:"subject,omitempty" json:"subject,omitempty"`
	Predicate *TermDocument `yaml:"predicate,omitempty" json:"predicate,omitempty"`
	Object    *TermDocument `yaml:"object,omitempty" json:"object,omitempty"`

	// and, optional, minus, union, filter
	Lhs *Document `yaml:"lhs,omitempty" json:"lhs,omitempty"`
	Rhs *Document `yaml:"rhs,omitempty" json:"rhs,omitempty"`

	// filter
	Predicates []PredicateDocument `yaml:"predicates,omitempty" json:"predicates,omitempty"`

	// select
	Group      *Document          `yaml:"group,omitempty" json:"group,omitempty"`
	Projection []string           `yaml:"projection,omitempty" json:"projection,omitempty"`
	Ordering   []OrderingDocument `yaml:"ordering,omitempty" json:"ordering,omitempty"`
}

// TermDocument is a term: exactly one of Variable and Literal is set.
type TermDocument struct {
	Variable *string `yaml:"variable,omitempty" json:"variable,omitempty"`
	Literal  *string `yaml:"literal,omitempty" json:"literal,omitempty"`
}

// PredicateDocument is a serialized filter predicate.
type PredicateDocument struct {
	Lhs      TermDocument `yaml:"lhs" json:"lhs"`
	Operator string       `yaml:"operator" json:"operator"`
	Rhs      TermDocument `yaml:"rhs" json:"rhs"`
}

// OrderingDocument is a serialized ordering entry. Direction defaults to asc.
type OrderingDocument struct {
	Variable  string `yaml:"variable" json:"variable"`
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty"`
}

// Node converts the document into a query tree.
func (d *Document) Node() (Node, error) {
	return d.node("$")
}

func (d *Document) node(path string) (Node, error) {
	if d == nil {
		return nil, fmt.Errorf("%s: missing node", path)
	}

	switch strings.ToLower(d.Type) {
	case "triple":
		return d.triple(path)
	case "and":
		lhs, rhs, err := d.pair(path)
		if err != nil {
			return nil, err
		}
		return &And{Lhs: lhs, Rhs: rhs}, nil
	case "optional":
		lhs, rhs, err := d.pair(path)
		if err != nil {
			return nil, err
		}
		return &Optional{Lhs: lhs, Rhs: rhs}, nil
	case "minus":
		lhs, rhs, err := d.pair(path)
		if err != nil {
			return nil, err
		}
		return &Minus{Lhs: lhs, Rhs: rhs}, nil
	case "union":
		lhs, rhs, err := d.pair(path)
		if err != nil {
			return nil, err
		}
		return &Union{Lhs: lhs, Rhs: rhs}, nil
	case "filter":
		return d.filter(path)
	case "select":
		return d.selectNode(path)
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownNodeKind, d.Type)
	}
}

func (d *Document) triple(path string) (Node, error) {
	s, err := d.Subject.term(path + ".subject")
	if err != nil {
		return nil, err
	}
	p, err := d.Predicate.term(path + ".predicate")
	if err != nil {
		return nil, err
	}
	o, err := d.Object.term(path + ".object")
	if err != nil {
		return nil, err
	}
	return &Triple{Pattern: TriplePattern{Subject: s, Predicate: p, Object: o}}, nil
}

func (d *Document) pair(path string) (Node, Node, error) {
	lhs, err := d.Lhs.node(path + ".lhs")
	if err != nil {
		return nil, nil, err
	}
	rhs, err := d.Rhs.node(path + ".rhs")
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}

func (d *Document) filter(path string) (Node, error) {
	lhs, err := d.Lhs.node(path + ".lhs")
	if err != nil {
		return nil, err
	}

	preds := make([]Predicate, 0, len(d.Predicates))
	for i, pd := range d.Predicates {
		ppath := fmt.Sprintf("%s.predicates[%d]", path, i)
		l, err := pd.Lhs.term(ppath + ".lhs")
		if err != nil {
			return nil, err
		}
		r, err := pd.Rhs.term(ppath + ".rhs")
		if err != nil {
			return nil, err
		}
		// Unsupported operators are kept; the compiler ignores them.
		preds = append(preds, Predicate{Lhs: l, Operator: Operator(pd.Operator), Rhs: r})
	}
	return &Filter{Lhs: lhs, Predicates: preds}, nil
}

func (d *Document) selectNode(path string) (Node, error) {
	group, err := d.Group.node(path + ".group")
	if err != nil {
		return nil, err
	}

	ordering := make([]Ordering, 0, len(d.Ordering))
	for i, od := range d.Ordering {
		if od.Variable == "" {
			return nil, fmt.Errorf("%s.ordering[%d]: variable is required", path, i)
		}
		dir := Direction(strings.ToLower(od.Direction))
		if dir == "" {
			dir = Ascending
		}
		ordering = append(ordering, Ordering{Variable: od.Variable, Direction: dir})
	}

	return &Select{
		Group:      group,
		Projection: append([]string(nil), d.Projection...),
		Ordering:   ordering,
	}, nil
}

func (t *TermDocument) term(path string) (Term, error) {
	switch {
	case t == nil:
		return Term{}, fmt.Errorf("%s: missing term", path)
	case t.Variable != nil && t.Literal != nil:
		return Term{}, fmt.Errorf("%s: term is both variable and literal", path)
	case t.Variable != nil:
		if *t.Variable == "" {
			return Term{}, fmt.Errorf("%s: empty variable name", path)
		}
		return Var(*t.Variable), nil
	case t.Literal != nil:
		return Lit(*t.Literal), nil
	default:
		return Term{}, fmt.Errorf("%s: term needs a variable or a literal", path)
	}
}

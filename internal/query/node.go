package query

import "fmt"

// Normalize returns the value form of n, so callers can switch over the seven
// value types only. Nil nodes, typed nil pointers and foreign types yield an
// error wrapping ErrUnknownNodeKind.
func Normalize(n Node) (Node, error) {
	switch node := n.(type) {
	case Triple, And, Optional, Minus, Union, Filter, Select:
		return node, nil
	case *Triple:
		if node != nil {
			return *node, nil
		}
	case *And:
		if node != nil {
			return *node, nil
		}
	case *Optional:
		if node != nil {
			return *node, nil
		}
	case *Minus:
		if node != nil {
			return *node, nil
		}
	case *Union:
		if node != nil {
			return *node, nil
		}
	case *Filter:
		if node != nil {
			return *node, nil
		}
	case *Select:
		if node != nil {
			return *node, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownNodeKind, n)
}

// Kind returns the lowercase kind name of n ("triple", "and", ...), or
// "unknown".
func Kind(n Node) string {
	node, err := Normalize(n)
	if err != nil {
		return "unknown"
	}
	switch node.(type) {
	case Triple:
		return "triple"
	case And:
		return "and"
	case Optional:
		return "optional"
	case Minus:
		return "minus"
	case Union:
		return "union"
	case Filter:
		return "filter"
	case Select:
		return "select"
	}
	return "unknown"
}

// Variables returns the variable names a node exposes to its parent, in order
// of first occurrence. Minus and Filter expose only their left-hand side;
// Select exposes its projection.
func Variables(n Node) []string {
	var vars []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	collectVariables(n, add)
	return vars
}

func collectVariables(n Node, add func(string)) {
	node, err := Normalize(n)
	if err != nil {
		return
	}
	switch q := node.(type) {
	case Triple:
		for _, t := range []Term{q.Pattern.Subject, q.Pattern.Predicate, q.Pattern.Object} {
			if t.IsVariable() {
				add(t.Text)
			}
		}
	case And:
		collectVariables(q.Lhs, add)
		collectVariables(q.Rhs, add)
	case Optional:
		collectVariables(q.Lhs, add)
		collectVariables(q.Rhs, add)
	case Union:
		collectVariables(q.Lhs, add)
		collectVariables(q.Rhs, add)
	case Minus:
		collectVariables(q.Lhs, add)
	case Filter:
		collectVariables(q.Lhs, add)
	case Select:
		for _, v := range q.Projection {
			add(v)
		}
	}
}

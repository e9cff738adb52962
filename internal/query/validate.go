package query

import (
	"fmt"
	"slices"
)

// ValidationResult contains the findings of Validate.
//
// Errors describe trees that compile to SQL the store will reject or that
// cannot mean what the author intended. Warnings describe parts of the tree
// the compiler ignores.
type ValidationResult struct {
	// IsValid is true when Errors is empty.
	IsValid bool

	Errors   []string
	Warnings []string
}

// Validate checks a query tree before it is compiled.
//
// Rules:
//  1. The root is a Select and no other node is.
//  2. A Select projects at least one variable.
//  3. Projected, sorted and filtered variables are in scope of their group.
//  4. Orderings are ascending or descending.
//  5. Filter operators outside the supported set are reported; the compiler
//     drops them.
//
// Validate is a pure function with no side effects.
func Validate(root Node) ValidationResult {
	v := &validator{
		errors:   []string{},
		warnings: []string{},
	}

	node, err := Normalize(root)
	if err != nil {
		v.addError("invalid query root: %v", err)
	} else if sel, ok := node.(Select); ok {
		v.validateSelect(sel)
	} else {
		v.addError("query root must be a select node, got %s", Kind(node))
		v.validateNode(node)
	}

	return ValidationResult{
		IsValid:  len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

// validator accumulates findings during traversal.
type validator struct {
	errors   []string
	warnings []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(sel Select) {
	if sel.Group == nil {
		v.addError("select has no group")
		return
	}
	v.validateNode(sel.Group)

	scope := Variables(sel.Group)
	if len(sel.Projection) == 0 {
		v.addError("query selects nothing")
	}
	seen := make(map[string]bool, len(sel.Projection))
	for _, name := range sel.Projection {
		if seen[name] {
			v.addError("variable '%s' is selected more than once", name)
		}
		seen[name] = true
		if !slices.Contains(scope, name) {
			v.addError("selected variable '%s' is out-of-scope", name)
		}
	}
	for _, o := range sel.Ordering {
		if !slices.Contains(scope, o.Variable) {
			v.addError("sort variable '%s' is out-of-scope", o.Variable)
		}
		if o.Direction != Ascending && o.Direction != Descending {
			v.addError("sort on '%s' has invalid direction %q", o.Variable, o.Direction)
		}
	}
}

// validateNode recursively validates a non-root node.
func (v *validator) validateNode(n Node) {
	node, err := Normalize(n)
	if err != nil {
		v.addError("%v", err)
		return
	}

	switch q := node.(type) {
	case Triple:
		// Any combination of terms is valid.
	case And:
		v.validateNode(q.Lhs)
		v.validateNode(q.Rhs)
	case Optional:
		v.validateNode(q.Lhs)
		v.validateNode(q.Rhs)
	case Minus:
		v.validateNode(q.Lhs)
		v.validateNode(q.Rhs)
	case Union:
		v.validateNode(q.Lhs)
		v.validateNode(q.Rhs)
	case Filter:
		v.validateNode(q.Lhs)
		v.validateFilter(q)
	case Select:
		v.addError("select is only allowed at the root of a query")
	}
}

func (v *validator) validateFilter(f Filter) {
	scope := Variables(f.Lhs)
	for _, p := range f.Predicates {
		if !p.Operator.Known() {
			v.addWarning("filter operator %q is not supported and will be ignored", p.Operator)
		}
		for _, t := range []Term{p.Lhs, p.Rhs} {
			if t.IsVariable() && !slices.Contains(scope, t.Text) {
				v.addError("filter uses out-of-scope variable '%s'", t.Text)
			}
		}
	}
}

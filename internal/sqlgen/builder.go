package sqlgen

import (
	"slices"
	"strings"
)

// selectStmt is one SELECT statement under construction. Clauses are kept as
// fragments and joined only when the statement is rendered.
type selectStmt struct {
	distinct bool
	fields   []string // empty renders as *
	from     string
	where    []string // conjunction; nil omits the WHERE clause
	orderBy  []string
}

func (s selectStmt) String() string {
	var b strings.Builder

	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.fields) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(s.fields, ", "))
	}

	b.WriteString(" FROM ")
	b.WriteString(s.from)

	if s.where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(s.where, " AND "))
	}

	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.orderBy, ", "))
	}

	return b.String()
}

// subquery renders sql as a derived table named alias.
func subquery(sql, alias string) string {
	return "(" + sql + ") " + alias
}

// The helpers below treat []string as an ordered set: results keep the order
// of first occurrence and never repeat an element.

func unionTerms(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, t := range a {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	for _, t := range b {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func intersectTerms(a, b []string) []string {
	var out []string
	for _, t := range a {
		if slices.Contains(b, t) && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func minusTerms(a, b []string) []string {
	var out []string
	for _, t := range a {
		if !slices.Contains(b, t) && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

package sqlgen

import (
	"fmt"
	"strings"

	"github.com/omerida/dokuwiki-strata/internal/query"
)

const (
	tautology    = "1 = 1"
	joinAlways   = "1"
	matchNothing = "(1=0)"
)

// triple selects the rows of the data table matching one pattern. A term
// repeated across positions is projected once and constrained by equality.
func (t *translator) triple(q query.Triple) (graphPattern, error) {
	p := q.Pattern

	// Projected aliases are allocated before any parameter alias.
	fields := []string{"subject AS " + t.name(p.Subject)}
	if p.Predicate != p.Subject {
		fields = append(fields, "predicate AS "+t.name(p.Predicate))
	}
	if p.Object != p.Subject && p.Object != p.Predicate {
		fields = append(fields, "object AS "+t.name(p.Object))
	}

	var cond []string
	positions := []struct {
		column string
		term   query.Term
	}{
		{"subject", p.Subject},
		{"predicate", p.Predicate},
		{"object", p.Object},
	}
	for _, pos := range positions {
		if pos.term.IsVariable() {
			continue
		}
		param, err := t.bind(pos.term.Text)
		if err != nil {
			return graphPattern{}, err
		}
		cond = append(cond, t.equal(pos.column, param))
	}

	if p.Subject == p.Predicate {
		cond = append(cond, t.equal("subject", "predicate"))
	}
	if p.Subject == p.Object {
		cond = append(cond, t.equal("subject", "object"))
	}
	if p.Predicate == p.Object {
		cond = append(cond, t.equal("predicate", "object"))
	}
	if len(cond) == 0 {
		cond = []string{tautology}
	}

	stmt := selectStmt{fields: fields, from: "data", where: cond}
	return graphPattern{
		sql:   stmt.String(),
		terms: unionTerms(nil, []string{t.name(p.Subject), t.name(p.Predicate), t.name(p.Object)}),
	}, nil
}

// group joins two sides on their shared aliases. Shared columns tolerate
// nulls so that rows an outer join padded still satisfy the condition.
func (t *translator) group(lhs, rhs query.Node, join string) (graphPattern, error) {
	gp1, err := t.translate(lhs)
	if err != nil {
		return graphPattern{}, err
	}
	gp2, err := t.translate(rhs)
	if err != nil {
		return graphPattern{}, err
	}

	terms := unionTerms(gp1.terms, gp2.terms)
	common := intersectTerms(gp1.terms, gp2.terms)
	fields := minusTerms(terms, common)

	on := joinAlways
	if len(common) > 0 {
		conds := make([]string, 0, len(common))
		for _, c := range common {
			conds = append(conds, fmt.Sprintf("(%s OR r1.%s IS NULL OR r2.%s IS NULL)", t.equal("r1."+c, "r2."+c), c, c))
			fields = append(fields, fmt.Sprintf("COALESCE(r1.%[1]s, r2.%[1]s) AS %[1]s", c))
		}
		on = strings.Join(conds, " AND ")
	}

	stmt := selectStmt{
		distinct: true,
		fields:   fields,
		from:     fmt.Sprintf("(%s) AS r1 %s (%s) AS r2 ON %s", gp1.sql, join, gp2.sql, on),
	}
	return graphPattern{sql: stmt.String(), terms: terms}, nil
}

// minus keeps the lhs rows for which no rhs row agrees on the shared
// aliases. With nothing shared, any rhs row excludes every lhs row.
func (t *translator) minus(q query.Minus) (graphPattern, error) {
	gp1, err := t.translate(q.Lhs)
	if err != nil {
		return graphPattern{}, err
	}
	gp2, err := t.translate(q.Rhs)
	if err != nil {
		return graphPattern{}, err
	}

	common := intersectTerms(gp1.terms, gp2.terms)
	conds := make([]string, 0, len(common))
	for _, c := range common {
		conds = append(conds, "("+t.equal("r1."+c, "r2."+c)+")")
	}
	if len(conds) == 0 {
		conds = []string{"1=1"}
	}

	inner := selectStmt{from: subquery(gp2.sql, "r2"), where: conds}
	outer := selectStmt{
		distinct: true,
		from:     subquery(gp1.sql, "r1"),
		where:    []string{"NOT EXISTS (" + inner.String() + ")"},
	}
	return graphPattern{sql: outer.String(), terms: gp1.terms}, nil
}

// union combines both sides. Each half outer-joins the two sides on a false
// condition so that all columns are in scope while only one side supplies
// values. The subtrees are compiled a second time for the second half so no
// parameter name is used twice in the statement.
func (t *translator) union(q query.Union) (graphPattern, error) {
	var gps [4]graphPattern
	for i, n := range []query.Node{q.Lhs, q.Rhs, q.Lhs, q.Rhs} {
		gp, err := t.translate(n)
		if err != nil {
			return graphPattern{}, err
		}
		gps[i] = gp
	}
	gp1, gp2, gp1x, gp2x := gps[0], gps[1], gps[2], gps[3]

	onlyLhs := minusTerms(gp1.terms, gp2.terms)
	onlyRhs := minusTerms(gp2.terms, gp1.terms)
	common := intersectTerms(gp1.terms, gp2.terms)

	first := append(append([]string{}, onlyLhs...), onlyRhs...)
	second := append(append([]string{}, onlyLhs...), onlyRhs...)
	for _, c := range common {
		first = append(first, fmt.Sprintf("r1.%[1]s AS %[1]s", c))
		second = append(second, fmt.Sprintf("r3.%[1]s AS %[1]s", c))
	}

	lhs := selectStmt{
		distinct: true,
		fields:   first,
		from:     subquery(gp1.sql, "r1") + " LEFT OUTER JOIN " + subquery(gp2.sql, "r2") + " ON " + matchNothing,
	}
	rhs := selectStmt{
		distinct: true,
		fields:   second,
		from:     subquery(gp2x.sql, "r3") + " LEFT OUTER JOIN " + subquery(gp1x.sql, "r4") + " ON " + matchNothing,
	}

	return graphPattern{
		sql:   lhs.String() + " UNION " + rhs.String(),
		terms: unionTerms(gp1.terms, gp2.terms),
	}, nil
}

// filter restricts lhs by the conjunction of its predicates. Predicates with
// unsupported operators are skipped.
func (t *translator) filter(q query.Filter) (graphPattern, error) {
	gp, err := t.translate(q.Lhs)
	if err != nil {
		return graphPattern{}, err
	}

	var conds []string
	for _, p := range q.Predicates {
		if !p.Operator.Known() {
			t.logger.Warn("ignoring filter predicate with unsupported operator",
				"operator", string(p.Operator),
				"lhs", p.Lhs.String(),
				"rhs", p.Rhs.String())
			continue
		}

		lhs, err := t.operand(p.Lhs)
		if err != nil {
			return graphPattern{}, err
		}
		rhs, err := t.operand(p.Rhs)
		if err != nil {
			return graphPattern{}, err
		}
		conds = append(conds, t.compare(lhs, p.Operator, rhs))
	}
	if len(conds) == 0 {
		conds = []string{tautology}
	}

	stmt := selectStmt{from: subquery(gp.sql, "r"), where: conds}
	return graphPattern{sql: stmt.String(), terms: gp.terms}, nil
}

// operand renders a filter operand: the alias of a variable, or a fresh
// parameter bound to a literal.
func (t *translator) operand(term query.Term) (string, error) {
	if term.IsVariable() {
		return t.name(term), nil
	}
	return t.bind(term.Text)
}

func (t *translator) compare(lhs string, op query.Operator, rhs string) string {
	switch op {
	case query.OpEqual, query.OpNotEqual:
		return fmt.Sprintf("( %s %s %s )", t.ci(lhs), op, t.ci(rhs))
	case query.OpGreater, query.OpLess, query.OpGreaterEqual, query.OpLessEqual:
		return fmt.Sprintf("( %s %s %s )", t.dialect.CastToNumber(lhs), op, t.dialect.CastToNumber(rhs))
	case query.OpContains:
		return t.match(lhs, false, "'%'", escapeMatch(rhs), "'%'")
	case query.OpNotContains:
		return t.match(lhs, true, "'%'", escapeMatch(rhs), "'%'")
	case query.OpPrefix:
		return t.match(lhs, false, escapeMatch(rhs), "'%'")
	case query.OpNotPrefix:
		return t.match(lhs, true, escapeMatch(rhs), "'%'")
	case query.OpSuffix:
		return t.match(lhs, false, "'%'", escapeMatch(rhs))
	case query.OpNotSuffix:
		return t.match(lhs, true, "'%'", escapeMatch(rhs))
	}
	return tautology
}

// match renders a pattern match of lhs against the concatenated pattern.
func (t *translator) match(lhs string, negate bool, pattern ...string) string {
	op := t.dialect.StringMatch()
	if negate {
		op = "NOT " + op
	}
	return fmt.Sprintf("( %s %s %s ESCAPE '!')", t.ci(lhs), op, t.ci("("+t.dialect.Concat(pattern...)+")"))
}

// escapeMatch escapes the escape character, then both wildcards, inside the
// value of expr.
func escapeMatch(expr string) string {
	return "REPLACE(REPLACE(REPLACE(" + expr + ",'!','!!'),'_','!_'),'%','!%')"
}

// selectNode projects the requested variables and appends one sort key column
// per dialect ordering key.
func (t *translator) selectNode(q query.Select) (graphPattern, error) {
	gp, err := t.translate(q.Group)
	if err != nil {
		return graphPattern{}, err
	}

	fields := make([]string, 0, len(q.Projection))
	terms := make([]string, 0, len(q.Projection))
	for _, v := range q.Projection {
		name := t.name(query.Var(v))
		fields = append(fields, name)
		terms = append(terms, name)
		if err := t.project(name, v); err != nil {
			return graphPattern{}, err
		}
	}

	var orderBy []string
	for _, o := range q.Ordering {
		name := t.name(query.Var(o.Variable))
		dir := "ASC"
		if o.Direction == query.Descending {
			dir = "DESC"
		}
		for _, key := range t.dialect.OrderBy(name) {
			a := t.alias("o")
			fields = append(fields, key+" AS "+a)
			orderBy = append(orderBy, a+" "+dir)
		}
	}

	t.columns = append([]string(nil), q.Projection...)

	stmt := selectStmt{
		distinct: true,
		fields:   fields,
		from:     subquery(gp.sql, "r"),
		orderBy:  orderBy,
	}
	return graphPattern{sql: stmt.String(), terms: terms}, nil
}

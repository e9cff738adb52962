package sqlgen

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/omerida/dokuwiki-strata/internal/dialect"
	"github.com/omerida/dokuwiki-strata/internal/query"
)

// Translation is the result of compiling one query tree.
type Translation struct {
	// SQL is the statement text. Parameters are written :name.
	SQL string

	// Literals maps parameter names (without the colon) to bound values.
	Literals map[string]string

	// Projection maps output column aliases to variable names.
	Projection map[string]string

	// Columns lists the projected variable names of the root Select in
	// projection order.
	Columns []string
}

// Compiler translates query trees for one dialect. A Compiler holds no state
// between calls and is safe for concurrent use.
type Compiler struct {
	dialect dialect.Dialect
	logger  *slog.Logger
}

// New creates a Compiler. A nil logger falls back to slog.Default().
func New(d dialect.Dialect, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{dialect: d, logger: logger}
}

// Translate compiles tree with a default Compiler for d.
func Translate(tree query.Node, d dialect.Dialect) (*Translation, error) {
	return New(d, nil).Translate(tree)
}

// Translate compiles tree into SQL. Trees holding nil or foreign nodes fail
// with a *CompileError wrapping query.ErrUnknownNodeKind.
func (c *Compiler) Translate(tree query.Node) (*Translation, error) {
	t := &translator{
		dialect:    c.dialect,
		logger:     c.logger,
		variables:  make(map[string]string),
		literals:   make(map[string]string),
		bindings:   make(map[string]string),
		projection: make(map[string]string),
	}

	gp, err := t.translate(tree)
	if err != nil {
		var ce *CompileError
		if !errors.As(err, &ce) {
			err = &CompileError{Node: tree, Err: err}
		}
		return nil, err
	}

	return &Translation{
		SQL:        gp.sql,
		Literals:   t.bindings,
		Projection: t.projection,
		Columns:    t.columns,
	}, nil
}

// graphPattern is the compiled form of one node: a statement and the
// aliases of the columns it produces.
type graphPattern struct {
	sql   string
	terms []string
}

// translator carries the alias tables of a single Translate call.
type translator struct {
	dialect dialect.Dialect
	logger  *slog.Logger

	counter   int
	variables map[string]string // variable name -> alias
	literals  map[string]string // literal text -> alias

	bindings   map[string]string // parameter alias -> value
	projection map[string]string // output alias -> variable name
	columns    []string
}

// alias returns a fresh alias. The counter is shared by all prefixes.
func (t *translator) alias(prefix string) string {
	a := prefix + strconv.Itoa(t.counter)
	t.counter++
	return a
}

// name returns the alias standing for term, allocating it on first use.
func (t *translator) name(term query.Term) string {
	table, prefix := t.variables, "v"
	if !term.IsVariable() {
		table, prefix = t.literals, "lit"
	}
	if a, ok := table[term.Text]; ok {
		return a
	}
	a := t.alias(prefix)
	table[term.Text] = a
	return a
}

// bind records value under a fresh parameter and returns its placeholder.
func (t *translator) bind(value string) (string, error) {
	a := t.alias("qv")
	if _, exists := t.bindings[a]; exists {
		return "", fmt.Errorf("%w: parameter %s bound twice", ErrAliasCollision, a)
	}
	t.bindings[a] = value
	return ":" + a, nil
}

// project records that output column alias carries variable.
func (t *translator) project(alias, variable string) error {
	if prev, exists := t.projection[alias]; exists {
		return fmt.Errorf("%w: column %s already projects variable '%s'", ErrAliasCollision, alias, prev)
	}
	t.projection[alias] = variable
	return nil
}

func (t *translator) ci(expr string) string {
	return t.dialect.CaseInsensitive(expr)
}

// equal renders a case-insensitive equality.
func (t *translator) equal(a, b string) string {
	return t.ci(a) + " = " + t.ci(b)
}

func (t *translator) translate(n query.Node) (graphPattern, error) {
	node, err := query.Normalize(n)
	if err != nil {
		return graphPattern{}, &CompileError{Node: n, Err: err}
	}

	switch q := node.(type) {
	case query.Triple:
		return t.triple(q)
	case query.And:
		return t.group(q.Lhs, q.Rhs, "INNER JOIN")
	case query.Optional:
		return t.group(q.Lhs, q.Rhs, "LEFT OUTER JOIN")
	case query.Minus:
		return t.minus(q)
	case query.Union:
		return t.union(q)
	case query.Filter:
		return t.filter(q)
	case query.Select:
		return t.selectNode(q)
	default:
		return graphPattern{}, &CompileError{Node: n, Err: query.ErrUnknownNodeKind}
	}
}

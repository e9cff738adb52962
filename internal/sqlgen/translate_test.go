package sqlgen

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omerida/dokuwiki-strata/internal/dialect"
	"github.com/omerida/dokuwiki-strata/internal/query"
)

var (
	v = query.Var
	l = query.Lit
)

func tp(s, p, o query.Term) query.Triple {
	return query.Triple{Pattern: query.TriplePattern{Subject: s, Predicate: p, Object: o}}
}

func quietCompiler(d dialect.Dialect) *Compiler {
	return New(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// render formats a translation for golden comparison.
func render(tr *Translation) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "-- sql\n%s\n", tr.SQL)
	b.WriteString("-- literals\n")
	for _, k := range slices.Sorted(maps.Keys(tr.Literals)) {
		fmt.Fprintf(&b, "%s = %s\n", k, tr.Literals[k])
	}
	b.WriteString("-- projection\n")
	for _, k := range slices.Sorted(maps.Keys(tr.Projection)) {
		fmt.Fprintf(&b, "%s = %s\n", k, tr.Projection[k])
	}
	return b.Bytes()
}

func TestTranslate_Golden(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Dialect
		tree    query.Node
	}{
		{
			name:    "triple_literal_predicate",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group:      tp(v("person"), l("name"), v("name")),
				Projection: []string{"person", "name"},
			},
		},
		{
			name:    "triple_self_join",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group:      tp(v("x"), v("x"), v("o")),
				Projection: []string{"x", "o"},
			},
		},
		{
			name:    "triple_all_variables",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group:      tp(v("s"), v("p"), v("o")),
				Projection: []string{"s", "p", "o"},
			},
		},
		{
			name:    "and",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group: query.And{
					Lhs: tp(v("p"), l("name"), v("n")),
					Rhs: tp(v("p"), l("age"), v("a")),
				},
				Projection: []string{"n", "a"},
			},
		},
		{
			name:    "optional",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group: query.Optional{
					Lhs: tp(v("p"), l("name"), v("n")),
					Rhs: tp(v("p"), l("age"), v("a")),
				},
				Projection: []string{"n", "a"},
			},
		},
		{
			name:    "filter",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group: query.Filter{
					Lhs: tp(v("p"), l("age"), v("a")),
					Predicates: []query.Predicate{
						{Lhs: v("a"), Operator: query.OpGreaterEqual, Rhs: l("18")},
						{Lhs: v("a"), Operator: query.OpContains, Rhs: l("5%")},
					},
				},
				Projection: []string{"p"},
			},
		},
		{
			name:    "filter_mysql",
			dialect: dialect.MySQL{},
			tree: query.Select{
				Group: query.Filter{
					Lhs: tp(v("p"), l("name"), v("n")),
					Predicates: []query.Predicate{
						{Lhs: v("n"), Operator: query.OpNotPrefix, Rhs: l("a_")},
					},
				},
				Projection: []string{"n"},
			},
		},
		{
			name:    "minus",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group: query.Minus{
					Lhs: tp(v("p"), l("name"), v("n")),
					Rhs: tp(v("p"), l("deleted"), l("yes")),
				},
				Projection: []string{"n"},
			},
		},
		{
			name:    "union",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group: query.Union{
					Lhs: tp(v("p"), l("name"), v("n")),
					Rhs: tp(v("p"), l("nick"), v("n")),
				},
				Projection: []string{"p", "n"},
			},
		},
		{
			name:    "select_ordering",
			dialect: dialect.SQLite{},
			tree: query.Select{
				Group:      tp(v("p"), l("name"), v("n")),
				Projection: []string{"p", "n"},
				Ordering:   []query.Ordering{{Variable: "n", Direction: query.Descending}},
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := quietCompiler(tt.dialect).Translate(tt.tree)
			require.NoError(t, err)
			g.Assert(t, tt.name, render(tr))
		})
	}
}

func TestTranslate_TripleExactSQL(t *testing.T) {
	tr, err := Translate(query.Select{
		Group:      tp(v("s"), l("name"), v("n")),
		Projection: []string{"s", "n"},
	}, dialect.SQLite{})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT DISTINCT v0, v2 FROM (SELECT subject AS v0, predicate AS lit1, object AS v2 FROM data WHERE lower(predicate) = lower(:qv3)) r",
		tr.SQL)
	assert.Equal(t, map[string]string{"qv3": "name"}, tr.Literals)
	assert.Equal(t, map[string]string{"v0": "s", "v2": "n"}, tr.Projection)
	assert.Equal(t, []string{"s", "n"}, tr.Columns)
}

func TestTranslate_PointerNodes(t *testing.T) {
	value, err := Translate(query.Select{
		Group: query.And{
			Lhs: tp(v("s"), l("name"), v("n")),
			Rhs: tp(v("s"), l("age"), v("a")),
		},
		Projection: []string{"s"},
	}, dialect.SQLite{})
	require.NoError(t, err)

	pointer, err := Translate(&query.Select{
		Group: &query.And{
			Lhs: &query.Triple{Pattern: query.TriplePattern{Subject: v("s"), Predicate: l("name"), Object: v("n")}},
			Rhs: &query.Triple{Pattern: query.TriplePattern{Subject: v("s"), Predicate: l("age"), Object: v("a")}},
		},
		Projection: []string{"s"},
	}, dialect.SQLite{})
	require.NoError(t, err)

	assert.Equal(t, value, pointer)
}

func TestTranslate_UnknownNodeKind(t *testing.T) {
	tests := []struct {
		name string
		tree query.Node
	}{
		{"nil root", nil},
		{"nil child", query.Select{Group: query.And{Lhs: tp(v("s"), v("p"), v("o"))}, Projection: []string{"s"}}},
		{"typed nil", query.Select{Group: (*query.Triple)(nil), Projection: []string{"s"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Translate(tt.tree, dialect.SQLite{})
			require.Error(t, err)
			assert.Nil(t, tr)
			assert.ErrorIs(t, err, query.ErrUnknownNodeKind)
			assert.True(t, IsUnknownNodeKind(err))

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "unknown", query.Kind(ce.Node))
		})
	}
}

func TestTranslate_DuplicateProjectionCollides(t *testing.T) {
	_, err := Translate(query.Select{
		Group:      tp(v("s"), v("p"), v("o")),
		Projection: []string{"s", "s"},
	}, dialect.SQLite{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAliasCollision)
}

var selectList = regexp.MustCompile(`SELECT (?:DISTINCT )?(.*?) FROM `)

func TestTranslate_SelfJoinProperties(t *testing.T) {
	tests := []struct {
		name    string
		pattern query.Triple
		conds   []string
		fields  string
	}{
		{
			name:    "subject equals predicate",
			pattern: tp(v("x"), v("x"), v("o")),
			conds:   []string{"lower(subject) = lower(predicate)"},
			fields:  "subject AS v0, object AS v1",
		},
		{
			name:    "subject equals object",
			pattern: tp(v("x"), v("p"), v("x")),
			conds:   []string{"lower(subject) = lower(object)"},
			fields:  "subject AS v0, predicate AS v1",
		},
		{
			name:    "predicate equals object",
			pattern: tp(v("s"), v("x"), v("x")),
			conds:   []string{"lower(predicate) = lower(object)"},
			fields:  "subject AS v0, predicate AS v1",
		},
		{
			name:    "all equal",
			pattern: tp(v("x"), v("x"), v("x")),
			conds: []string{
				"lower(subject) = lower(predicate)",
				"lower(subject) = lower(object)",
				"lower(predicate) = lower(object)",
			},
			fields: "subject AS v0",
		},
		{
			name:    "equal literals",
			pattern: tp(l("a"), l("a"), v("o")),
			conds: []string{
				"lower(subject) = lower(:qv2)",
				"lower(predicate) = lower(:qv3)",
				"lower(subject) = lower(predicate)",
			},
			fields: "subject AS lit0, object AS v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Translate(tt.pattern, dialect.SQLite{})
			require.NoError(t, err)

			assert.Equal(t, "SELECT "+tt.fields+" FROM data WHERE "+strings.Join(tt.conds, " AND "), tr.SQL)

			m := selectList.FindStringSubmatch(tr.SQL)
			require.Len(t, m, 2)
			var aliases []string
			for _, f := range strings.Split(m[1], ", ") {
				parts := strings.Split(f, " AS ")
				aliases = append(aliases, parts[len(parts)-1])
			}
			assert.Len(t, slices.Compact(slices.Sorted(slices.Values(aliases))), len(aliases), "alias projected twice")
		})
	}
}

func TestTranslate_SharedVariableHasOneAlias(t *testing.T) {
	for _, tree := range []query.Node{
		query.And{Lhs: tp(v("p"), l("name"), v("n")), Rhs: tp(v("p"), l("age"), v("a"))},
		query.Optional{Lhs: tp(v("p"), l("name"), v("n")), Rhs: tp(v("p"), l("age"), v("a"))},
	} {
		tr, err := Translate(query.Select{Group: tree, Projection: []string{"p"}}, dialect.SQLite{})
		require.NoError(t, err)

		assert.Contains(t, tr.SQL, "COALESCE(r1.v0, r2.v0) AS v0")
		assert.Contains(t, tr.SQL, "(lower(r1.v0) = lower(r2.v0) OR r1.v0 IS NULL OR r2.v0 IS NULL)")
		assert.Equal(t, map[string]string{"v0": "p"}, tr.Projection)
	}
}

func TestTranslate_NoCommonTermsJoinsUnconditionally(t *testing.T) {
	tr, err := Translate(query.And{
		Lhs: tp(v("a"), v("b"), v("c")),
		Rhs: tp(v("x"), v("y"), v("z")),
	}, dialect.SQLite{})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(tr.SQL, ") AS r2 ON 1"), tr.SQL)
	assert.NotContains(t, tr.SQL, "COALESCE")
}

func TestTranslate_MinusWithoutCommonTerms(t *testing.T) {
	tr, err := Translate(query.Minus{
		Lhs: tp(v("a"), v("b"), v("c")),
		Rhs: tp(v("x"), v("y"), v("z")),
	}, dialect.SQLite{})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(tr.SQL, ") r2 WHERE 1=1)"), tr.SQL)
}

func TestTranslate_UnionParametersAreDistinct(t *testing.T) {
	tree := query.Select{
		Group: query.Union{
			Lhs: tp(v("p"), l("name"), v("n")),
			Rhs: tp(v("p"), l("nick"), v("n")),
		},
		Projection: []string{"p", "n"},
	}

	tr, err := Translate(tree, dialect.SQLite{})
	require.NoError(t, err)

	params := regexp.MustCompile(`:qv\d+`).FindAllString(tr.SQL, -1)
	require.Len(t, params, 4)
	assert.Len(t, slices.Compact(slices.Sorted(slices.Values(params))), 4, "parameter used twice")
	assert.Len(t, tr.Literals, 4)
	for _, p := range params {
		assert.Contains(t, tr.Literals, strings.TrimPrefix(p, ":"))
	}
}

func TestTranslate_IndependentCalls(t *testing.T) {
	tree := query.Select{
		Group:      tp(v("p"), l("name"), v("n")),
		Projection: []string{"p"},
	}
	c := New(dialect.SQLite{}, nil)

	first, err := c.Translate(tree)
	require.NoError(t, err)
	second, err := c.Translate(tree)
	require.NoError(t, err)

	// Each call starts from an empty alias table.
	assert.Equal(t, first, second)

	first.Literals["qv3"] = "changed"
	assert.Equal(t, "name", second.Literals["qv3"])
}

func TestTranslate_DoesNotMutateTree(t *testing.T) {
	tree := &query.Select{
		Group:      tp(v("p"), l("name"), v("n")),
		Projection: []string{"p"},
		Ordering:   []query.Ordering{{Variable: "p", Direction: query.Ascending}},
	}
	before := *tree

	_, err := Translate(tree, dialect.SQLite{})
	require.NoError(t, err)

	assert.Equal(t, before, *tree)
}

func TestTranslate_FilterOperators(t *testing.T) {
	const esc = "REPLACE(REPLACE(REPLACE(:qv4,'!','!!'),'_','!_'),'%','!%')"

	tests := []struct {
		op   query.Operator
		want string
	}{
		{query.OpEqual, "( lower(v2) = lower(:qv4) )"},
		{query.OpNotEqual, "( lower(v2) != lower(:qv4) )"},
		{query.OpGreater, "( CAST(v2 AS NUMERIC) > CAST(:qv4 AS NUMERIC) )"},
		{query.OpLess, "( CAST(v2 AS NUMERIC) < CAST(:qv4 AS NUMERIC) )"},
		{query.OpLessEqual, "( CAST(v2 AS NUMERIC) <= CAST(:qv4 AS NUMERIC) )"},
		{query.OpContains, "( lower(v2) LIKE lower(('%' || " + esc + " || '%')) ESCAPE '!')"},
		{query.OpNotContains, "( lower(v2) NOT LIKE lower(('%' || " + esc + " || '%')) ESCAPE '!')"},
		{query.OpPrefix, "( lower(v2) LIKE lower((" + esc + " || '%')) ESCAPE '!')"},
		{query.OpNotPrefix, "( lower(v2) NOT LIKE lower((" + esc + " || '%')) ESCAPE '!')"},
		{query.OpSuffix, "( lower(v2) LIKE lower(('%' || " + esc + ")) ESCAPE '!')"},
		{query.OpNotSuffix, "( lower(v2) NOT LIKE lower(('%' || " + esc + ")) ESCAPE '!')"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			tr, err := Translate(query.Filter{
				Lhs:        tp(v("s"), l("p"), v("o")),
				Predicates: []query.Predicate{{Lhs: v("o"), Operator: tt.op, Rhs: l("x")}},
			}, dialect.SQLite{})
			require.NoError(t, err)

			assert.True(t, strings.HasSuffix(tr.SQL, ") r WHERE "+tt.want), tr.SQL)
			assert.Equal(t, "x", tr.Literals["qv4"])
		})
	}
}

func TestTranslate_UnknownOperatorIsDropped(t *testing.T) {
	var logs bytes.Buffer
	c := New(dialect.SQLite{}, slog.New(slog.NewTextHandler(&logs, nil)))

	tr, err := c.Translate(query.Filter{
		Lhs: tp(v("s"), l("p"), v("o")),
		Predicates: []query.Predicate{
			{Lhs: v("o"), Operator: "<>", Rhs: l("x")},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(tr.SQL, ") r WHERE 1 = 1"), tr.SQL)
	assert.Equal(t, map[string]string{"qv3": "p"}, tr.Literals, "dropped predicates bind nothing")
	assert.Contains(t, logs.String(), "unsupported operator")
	assert.Contains(t, logs.String(), "operator=<>")
}

func TestTranslate_LiteralOperandsOnBothSides(t *testing.T) {
	tr, err := Translate(query.Filter{
		Lhs: tp(v("s"), v("p"), v("o")),
		Predicates: []query.Predicate{
			{Lhs: l("1"), Operator: query.OpLess, Rhs: l("2")},
		},
	}, dialect.SQLite{})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(tr.SQL, "( CAST(:qv3 AS NUMERIC) < CAST(:qv4 AS NUMERIC) )"), tr.SQL)
	assert.Equal(t, map[string]string{"qv3": "1", "qv4": "2"}, tr.Literals)
}

func TestTermSets(t *testing.T) {
	a := []string{"v0", "lit1", "v2"}
	b := []string{"v0", "lit4", "v2", "v5"}

	assert.Equal(t, []string{"v0", "lit1", "v2", "lit4", "v5"}, unionTerms(a, b))
	assert.Equal(t, []string{"v0", "v2"}, intersectTerms(a, b))
	assert.Equal(t, []string{"lit1"}, minusTerms(a, b))
	assert.Equal(t, []string{"v0"}, unionTerms(nil, []string{"v0", "v0", "v0"}))
	assert.Empty(t, intersectTerms(a, nil))
}

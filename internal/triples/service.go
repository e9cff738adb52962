package triples

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omerida/dokuwiki-strata/internal/query"
	"github.com/omerida/dokuwiki-strata/internal/sqlgen"
	"github.com/omerida/dokuwiki-strata/internal/store"
)

// Variables added by resource queries.
const (
	PredicateVariable = "__predicate"
	ObjectVariable    = "__object"
)

// Options configures a Service.
type Options struct {
	// Debug logs the statement and bound literals of every failed
	// operation at error level.
	Debug bool

	// Logger receives service logs. Nil falls back to slog.Default().
	Logger *slog.Logger

	// Registerer receives the service metrics. Nil keeps them in a private
	// registry.
	Registerer prometheus.Registerer
}

// Service executes triple operations and queries against a store.
type Service struct {
	store    *store.Store
	compiler *sqlgen.Compiler
	logger   *slog.Logger
	debug    bool
	metrics  *serviceMetrics
}

// New creates a Service over st.
func New(st *store.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		compiler: sqlgen.New(st.Dialect(), logger),
		logger:   logger,
		debug:    opts.Debug,
		metrics:  newMetrics(opts.Registerer),
	}
}

// AddTriple adds a single triple to graph.
func (s *Service) AddTriple(ctx context.Context, subject, predicate, object, graph string) error {
	return s.AddTriples(ctx, []store.Triple{{Subject: subject, Predicate: predicate, Object: object}}, graph)
}

// AddTriples adds a batch of triples to graph. The batch is committed as a
// whole or not at all.
func (s *Service) AddTriples(ctx context.Context, triples []store.Triple, graph string) error {
	if err := s.store.AddTriples(ctx, triples, graph); err != nil {
		s.fail("failed to add triples", err, "graph", graph, "count", len(triples))
		return err
	}
	s.metrics.triplesAdded.Add(float64(len(triples)))
	s.logger.Debug("added triples", "graph", graph, "count", len(triples))
	return nil
}

// FetchTriples returns the triples matching p. Empty pattern fields match
// anything.
func (s *Service) FetchTriples(ctx context.Context, p store.Pattern) ([]store.Triple, error) {
	triples, err := s.store.FetchTriples(ctx, p)
	if err != nil {
		s.fail("failed to fetch triples", err)
		return nil, err
	}
	return triples, nil
}

// RemoveTriples deletes the triples matching p and returns how many were
// removed.
func (s *Service) RemoveTriples(ctx context.Context, p store.Pattern) (int64, error) {
	n, err := s.store.RemoveTriples(ctx, p)
	if err != nil {
		s.fail("failed to remove triples", err)
		return 0, err
	}
	s.metrics.triplesRemoved.Add(float64(n))
	s.logger.Debug("removed triples", "graph", p.Graph, "count", n)
	return n, nil
}

// Compile translates tree without executing it.
func (s *Service) Compile(tree query.Node) (*sqlgen.Translation, error) {
	return s.compiler.Translate(tree)
}

// QueryRelations executes tree and returns an iterator over its rows. A tree
// that fails to compile or execute yields no iterator.
func (s *Service) QueryRelations(ctx context.Context, tree query.Node) (*RelationsIterator, error) {
	return s.queryRelations(ctx, tree, "relations")
}

// QueryResources executes a select query for the resources bound to its first
// projected variable. See ResourceQuery for how the query is rewritten. The
// caller's tree is not modified.
func (s *Service) QueryResources(ctx context.Context, tree query.Node) (*ResourceIterator, error) {
	rq, err := ResourceQuery(tree)
	if err != nil {
		s.metrics.queries.WithLabelValues("resources", outcomeCompileError).Inc()
		return nil, err
	}

	rel, err := s.queryRelations(ctx, rq, "resources")
	if err != nil {
		return nil, err
	}
	return NewResourceIterator(rel, rq.Projection[0], PredicateVariable, ObjectVariable), nil
}

// ResourceQuery rewrites a select query into one that returns every
// predicate and object of the subjects bound to its first projected variable
// Vx: the group is joined with the pattern (Vx, ?__predicate, ?__object), the
// projection becomes [Vx, __predicate, __object] and an ascending ordering on
// Vx is appended, so that rows of one subject are adjacent.
func ResourceQuery(tree query.Node) (query.Select, error) {
	node, err := query.Normalize(tree)
	if err != nil {
		return query.Select{}, err
	}
	sel, ok := node.(query.Select)
	if !ok {
		return query.Select{}, fmt.Errorf("resource query root must be a select node, got %s", query.Kind(node))
	}
	if len(sel.Projection) == 0 {
		return query.Select{}, errors.New("resource query selects nothing")
	}

	vx := sel.Projection[0]
	return query.Select{
		Group: query.And{
			Lhs: sel.Group,
			Rhs: query.Triple{Pattern: query.TriplePattern{
				Subject:   query.Var(vx),
				Predicate: query.Var(PredicateVariable),
				Object:    query.Var(ObjectVariable),
			}},
		},
		Projection: []string{vx, PredicateVariable, ObjectVariable},
		Ordering:   append(slices.Clone(sel.Ordering), query.Ordering{Variable: vx, Direction: query.Ascending}),
	}, nil
}

func (s *Service) queryRelations(ctx context.Context, tree query.Node, kind string) (*RelationsIterator, error) {
	start := time.Now()

	tr, err := s.compiler.Translate(tree)
	if err != nil {
		s.metrics.queries.WithLabelValues(kind, outcomeCompileError).Inc()
		s.logger.Error("failed to compile query", "kind", kind, "error", err)
		return nil, fmt.Errorf("compile query: %w", err)
	}

	cur, err := s.store.Query(ctx, tr.SQL, tr.Literals)
	s.metrics.queryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.queries.WithLabelValues(kind, outcomeStoreError).Inc()
		s.fail("failed to execute query", err, "kind", kind)
		return nil, err
	}

	s.metrics.queries.WithLabelValues(kind, outcomeOK).Inc()
	s.logger.Debug("executed query", "kind", kind, "duration", time.Since(start))
	return NewRelationsIterator(cur, tr.Projection), nil
}

// fail logs a failed operation. In debug mode the statement and its bound
// values are logged as well.
func (s *Service) fail(msg string, err error, args ...any) {
	s.logger.Error(msg, append(args, "error", err)...)

	var se *store.Error
	if s.debug && errors.As(err, &se) && se.SQL != "" {
		s.logger.Error("debug statement", "sql", se.SQL, "literals", se.Literals)
	}
}

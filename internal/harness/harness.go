package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/omerida/dokuwiki-strata/internal/query"
	"github.com/omerida/dokuwiki-strata/internal/store"
	"github.com/omerida/dokuwiki-strata/internal/triples"
)

// Harness is the test execution engine.
// It runs a scenario against an isolated in-memory store.
type Harness struct {
	service *triples.Service
	logger  *slog.Logger
}

// Option configures a Harness run.
type Option func(*Harness)

// WithLogger sets the logger used by the run. Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Add the scenario triples in one batch
// 3. Validate and compile the query
// 4. Execute it in the scenario's mode and collect the result
// 5. Evaluate assertions
//
// A returned error means the scenario could not be executed; failed
// assertions are reported in the result instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.service = triples.New(st, triples.Options{Debug: true, Logger: h.logger})

	if err := h.service.AddTriples(ctx, scenario.Triples, scenario.graph()); err != nil {
		return nil, fmt.Errorf("failed to add triples: %w", err)
	}

	tree, err := scenario.node()
	if err != nil {
		return nil, fmt.Errorf("failed to load query: %w", err)
	}

	result := NewResult()
	validation := query.Validate(tree)
	if !validation.IsValid {
		return nil, fmt.Errorf("invalid query: %v", validation.Errors)
	}
	result.Warnings = validation.Warnings

	tr, err := h.service.Compile(tree)
	if err != nil {
		return nil, err
	}
	result.SQL = tr.SQL
	result.Literals = tr.Literals

	switch scenario.mode() {
	case ModeResources:
		err = h.collectResources(ctx, tree, result)
	default:
		err = h.collectRows(ctx, tree, result)
	}
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"mode", scenario.mode(),
		"results", result.size(),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) collectRows(ctx context.Context, tree query.Node, result *Result) error {
	it, err := h.service.QueryRelations(ctx, tree)
	if err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}
	defer it.Close()

	result.Rows = []map[string]*string{}
	for _, row := range it.All() {
		out := make(map[string]*string, len(row))
		for name, v := range row {
			if v.Valid {
				s := v.String
				out[name] = &s
			} else {
				out[name] = nil
			}
		}
		result.Rows = append(result.Rows, out)
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	return nil
}

func (h *Harness) collectResources(ctx context.Context, tree query.Node, result *Result) error {
	it, err := h.service.QueryResources(ctx, tree)
	if err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}
	defer it.Close()

	result.Resources = []ResourceSnapshot{}
	for it.Next() {
		res := it.Resource()
		result.Resources = append(result.Resources, ResourceSnapshot{
			Subject:    res.Subject,
			Properties: res.Properties,
		})
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("failed to read resources: %w", err)
	}
	return nil
}

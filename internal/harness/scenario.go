package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/omerida/dokuwiki-strata/internal/query"
	"github.com/omerida/dokuwiki-strata/internal/store"
)

// Scenario defines a query test scenario.
// A scenario loads triples into a fresh store, runs one query and asserts on
// the rows or resources it returns.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the graph the triples are added to. Defaults to DefaultGraph.
	Graph string `yaml:"graph,omitempty"`

	// Triples are added in one batch before the query runs.
	Triples []store.Triple `yaml:"triples"`

	// Query is the query document. Exactly one of Query and QueryFile is set.
	Query *query.Document `yaml:"query,omitempty"`

	// QueryFile is a .yaml, .json or .cue query document. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	QueryFile string `yaml:"query_file,omitempty"`

	// Mode is "relations" (default) or "resources".
	Mode string `yaml:"mode,omitempty"`

	// Assertions validate the query result.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultGraph is the graph scenario triples go to when none is named.
const DefaultGraph = "scenario"

// Execution modes.
const (
	ModeRelations = "relations"
	ModeResources = "resources"
)

// Assertion validates a query result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "count": the result has exactly Count rows or resources
	// - "rows": the rows equal Rows, in order
	// - "contains_row": some row equals Row
	// - "resource": the resource for Subject has exactly Properties
	// - "sql_contains": the compiled SQL contains Text
	Type string `yaml:"type"`

	// Count is the expected number of rows or resources (used by count).
	Count int `yaml:"count,omitempty"`

	// Rows are the expected rows (used by rows). A null value expects an
	// unbound variable.
	Rows []map[string]*string `yaml:"rows,omitempty"`

	// Row is the expected row (used by contains_row).
	Row map[string]*string `yaml:"row,omitempty"`

	// Subject and Properties describe the expected resource (used by
	// resource).
	Subject    string              `yaml:"subject,omitempty"`
	Properties map[string][]string `yaml:"properties,omitempty"`

	// Text is the expected SQL fragment (used by sql_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertCount       = "count"
	AssertRows        = "rows"
	AssertContainsRow = "contains_row"
	AssertResource    = "resource"
	AssertSQLContains = "sql_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the query file BEFORE validation so existence is checked on
	// the real path.
	if scenario.QueryFile != "" && !filepath.IsAbs(scenario.QueryFile) {
		scenario.QueryFile = filepath.Join(filepath.Dir(path), scenario.QueryFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Query == nil && s.QueryFile == "":
		return fmt.Errorf("one of query or query_file is required")
	case s.Query != nil && s.QueryFile != "":
		return fmt.Errorf("query and query_file are mutually exclusive")
	}

	if s.QueryFile != "" {
		if _, err := os.Stat(s.QueryFile); os.IsNotExist(err) {
			return fmt.Errorf("query file not found: %s", s.QueryFile)
		}
	}

	switch s.Mode {
	case "", ModeRelations, ModeResources:
	default:
		return fmt.Errorf("unknown mode %q (expected relations or resources)", s.Mode)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, t := range s.Triples {
		if t.Subject == "" || t.Predicate == "" {
			return fmt.Errorf("triples[%d]: subject and predicate are required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.mode()); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, mode string) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertRows:
		if mode != ModeRelations {
			return fmt.Errorf("assertions[%d]: rows requires relations mode", index)
		}
	case AssertContainsRow:
		if mode != ModeRelations {
			return fmt.Errorf("assertions[%d]: contains_row requires relations mode", index)
		}
		if len(a.Row) == 0 {
			return fmt.Errorf("assertions[%d]: row is required for contains_row", index)
		}
	case AssertResource:
		if mode != ModeResources {
			return fmt.Errorf("assertions[%d]: resource requires resources mode", index)
		}
		if a.Subject == "" {
			return fmt.Errorf("assertions[%d]: subject is required for resource", index)
		}
	case AssertSQLContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for sql_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func (s *Scenario) mode() string {
	if s.Mode == "" {
		return ModeRelations
	}
	return s.Mode
}

func (s *Scenario) graph() string {
	if s.Graph == "" {
		return DefaultGraph
	}
	return s.Graph
}

// node returns the scenario's query tree.
func (s *Scenario) node() (query.Node, error) {
	if s.QueryFile != "" {
		return query.LoadFile(s.QueryFile)
	}
	return s.Query.Node()
}

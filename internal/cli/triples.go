package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omerida/dokuwiki-strata/internal/config"
	"github.com/omerida/dokuwiki-strata/internal/store"
)

// resolveGraph picks the graph for new triples: the flag, then the configured
// default, then a generated name.
func (o *RootOptions) resolveGraph(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.DefaultGraph != "" {
		return cfg.DefaultGraph
	}
	return o.newGraph()
}

// patternFlags binds the --subject, --predicate, --object and --graph flags.
type patternFlags struct {
	store.Pattern
}

func (p *patternFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Subject, "subject", "", "match subject (case-insensitive)")
	cmd.Flags().StringVar(&p.Predicate, "predicate", "", "match predicate (case-insensitive)")
	cmd.Flags().StringVar(&p.Object, "object", "", "match object (case-insensitive)")
	cmd.Flags().StringVar(&p.Graph, "graph", "", "match graph (case-insensitive)")
}

func (p *patternFlags) empty() bool {
	return p.Pattern == store.Pattern{}
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Graph string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <subject> <predicate> <object>",
		Short: "Add one triple",
		Long: `Add a single subject/predicate/object triple to the store.

The graph defaults to default_graph from the config, or a new UUIDv7 when
none is configured.

Examples:
  strata add "Alice" "age" "30" --graph people
  strata add "Alice" "knows" "Bob"`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Graph, "graph", "", "graph to add the triple to")

	return cmd
}

func runAdd(opts *AddOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	sess, err := opts.openSession(cmd)
	if err != nil {
		return reportExit(formatter, err)
	}
	defer sess.Close()

	triple := store.Triple{
		Subject:   args[0],
		Predicate: args[1],
		Object:    args[2],
		Graph:     opts.resolveGraph(opts.Graph, sess.cfg),
	}

	if err := sess.service.AddTriple(cmd.Context(), triple.Subject, triple.Predicate, triple.Object, triple.Graph); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to add triple", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(triple)
	}
	fmt.Fprintf(formatter.Writer, "✓ Added triple to graph %s\n", triple.Graph)
	return nil
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Graph string
}

// TripleFile is the document read by the import command.
type TripleFile struct {
	Graph   string         `json:"graph,omitempty" yaml:"graph,omitempty"`
	Triples []store.Triple `json:"triples" yaml:"triples"`
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	File    string `json:"file"`
	Graph   string `json:"graph,omitempty"`
	Triples int    `json:"triples"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import triples from a YAML or JSON file",
		Long: `Import a batch of triples in one transaction.

The file holds a list of triples and an optional graph:

  graph: people
  triples:
    - {subject: Alice, predicate: age, object: "30"}

The graph is taken from --graph, then the file, then default_graph from the
config. When none is set, triples keep their own graph and the rest share a
new UUID. If any triple is rejected, nothing is imported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Graph, "graph", "", "graph for all imported triples")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	doc, err := loadTripleFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("file not found: %s", path), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to load triple file", err)
	}
	formatter.VerboseLog("Loaded %d triple(s) from %s", len(doc.Triples), path)

	sess, err := opts.openSession(cmd)
	if err != nil {
		return reportExit(formatter, err)
	}
	defer sess.Close()

	graph := opts.Graph
	if graph == "" {
		graph = doc.Graph
	}
	if graph == "" {
		graph = sess.cfg.DefaultGraph
	}
	if graph == "" {
		fallback := opts.newGraph()
		for i := range doc.Triples {
			if doc.Triples[i].Graph == "" {
				doc.Triples[i].Graph = fallback
			}
		}
	}

	if err := sess.service.AddTriples(cmd.Context(), doc.Triples, graph); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to import triples", err)
	}

	result := ImportResult{File: path, Graph: graph, Triples: len(doc.Triples)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if graph != "" {
		fmt.Fprintf(formatter.Writer, "✓ Imported %d triple(s) into graph %s\n", result.Triples, graph)
	} else {
		fmt.Fprintf(formatter.Writer, "✓ Imported %d triple(s)\n", result.Triples)
	}
	return nil
}

// loadTripleFile decodes a triple file by extension. Unknown fields are
// rejected in both formats.
func loadTripleFile(path string) (*TripleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc TripleFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported file extension %q (expected .yaml, .yml or .json)", filepath.Ext(path))
	}

	if len(doc.Triples) == 0 {
		return nil, errors.New("no triples in file")
	}
	return &doc, nil
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	var pattern patternFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "List triples matching a pattern",
		Long: `List stored triples. Each set flag must match (case-insensitive);
unset flags match anything.

Examples:
  strata fetch --subject Alice
  strata fetch --graph people --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(rootOpts, pattern.Pattern, cmd)
		},
	}

	pattern.bind(cmd)

	return cmd
}

func runFetch(opts *RootOptions, pattern store.Pattern, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	sess, err := opts.openSession(cmd)
	if err != nil {
		return reportExit(formatter, err)
	}
	defer sess.Close()

	found, err := sess.service.FetchTriples(cmd.Context(), pattern)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to fetch triples", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(found)
	}
	for _, t := range found {
		fmt.Fprintf(formatter.Writer, "%s\t%s\t%s\t%s\n", t.Subject, t.Predicate, t.Object, t.Graph)
	}
	fmt.Fprintf(formatter.Writer, "%d triple(s)\n", len(found))
	return nil
}

// RemoveResult reports how many triples a remove deleted.
type RemoveResult struct {
	Removed int64 `json:"removed"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pattern patternFlags
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove triples matching a pattern",
		Long: `Remove stored triples. Each set flag must match (case-insensitive).
Removing every triple requires --all.

Examples:
  strata remove --graph people
  strata remove --subject Alice --predicate age
  strata remove --all`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.newFormatter(cmd)
			if pattern.empty() && !all {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, "no pattern given (use --all to remove every triple)", nil)
			}
			return runRemove(rootOpts, pattern.Pattern, formatter, cmd)
		},
	}

	pattern.bind(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "remove every triple")

	return cmd
}

func runRemove(opts *RootOptions, pattern store.Pattern, formatter *OutputFormatter, cmd *cobra.Command) error {
	sess, err := opts.openSession(cmd)
	if err != nil {
		return reportExit(formatter, err)
	}
	defer sess.Close()

	n, err := sess.service.RemoveTriples(cmd.Context(), pattern)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to remove triples", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RemoveResult{Removed: n})
	}
	fmt.Fprintf(formatter.Writer, "✓ Removed %d triple(s)\n", n)
	return nil
}

// reportExit writes an ExitError from session setup through the formatter.
// The message carries the error code as its prefix.
func reportExit(formatter *OutputFormatter, err error) error {
	code, message := ErrCodeGeneric, err.Error()
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if c, rest, ok := strings.Cut(exitErr.Error(), ": "); ok {
			code, message = c, rest
		}
	}
	_ = formatter.Error(code, message, nil)
	return err
}

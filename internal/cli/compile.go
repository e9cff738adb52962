package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omerida/dokuwiki-strata/internal/dialect"
	"github.com/omerida/dokuwiki-strata/internal/query"
	"github.com/omerida/dokuwiki-strata/internal/sqlgen"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Dialect string // overrides database.dialect
	Output  string // output file path for the SQL text
}

// CompilationResult is the translation of one query file.
type CompilationResult struct {
	Dialect    string            `json:"dialect"`
	SQL        string            `json:"sql"`
	Literals   map[string]string `json:"literals"`
	Projection map[string]string `json:"projection"`
	Columns    []string          `json:"columns"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Compile a query to SQL",
		Long: `Compile a query document (.yaml, .json or .cue) to a SQL statement and its
bound literals without touching the database.

The dialect defaults to database.dialect from the config. MySQL statements
can be compiled here even though only SQLite databases can be queried.

Examples:
  strata compile people.yaml
  strata compile people.cue --dialect mysql -o people.sql`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", fmt.Sprintf("SQL dialect (%s)", strings.Join(dialect.Names(), "|")))
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if opts.Dialect != "" {
		cfg.Database.Dialect = opts.Dialect
	}
	d, err := cfg.Dialect()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid dialect", err)
	}
	logger, err := opts.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to build logger", err)
	}

	tree, err := loadQuery(formatter, path)
	if err != nil {
		return err
	}

	formatter.VerboseLog("Compiling %s for %s", path, d.Name())

	tr, err := sqlgen.New(d, logger).Translate(tree)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCompile, "failed to compile query", err)
	}

	result := CompilationResult{
		Dialect:    d.Name(),
		SQL:        tr.SQL,
		Literals:   tr.Literals,
		Projection: tr.Projection,
		Columns:    tr.Columns,
		Warnings:   query.Validate(tree).Warnings,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(tr.SQL+"\n"), 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// loadQuery reads a query file, reporting failures through formatter.
func loadQuery(formatter *OutputFormatter, path string) (query.Node, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("query file not found: %s", path), nil)
	}
	tree, err := query.LoadFile(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to load query", err)
	}
	return tree, nil
}

// outputCompileSuccess outputs the compiled statement.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled query for %s\n\n", result.Dialect)
	fmt.Fprintf(w, "SQL:\n  %s\n\n", result.SQL)

	if len(result.Literals) > 0 {
		fmt.Fprintln(w, "Literals:")
		for _, name := range slices.Sorted(maps.Keys(result.Literals)) {
			fmt.Fprintf(w, "  %s = %q\n", name, result.Literals[name])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Columns: %s\n", strings.Join(result.Columns, ", "))

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote SQL to %s\n", outputFile)
	}

	return nil
}

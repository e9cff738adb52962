package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/omerida/dokuwiki-strata/internal/query"
	"github.com/omerida/dokuwiki-strata/internal/sqlgen"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Resources bool
}

// RelationsResult is the output of a relations query. A nil cell is NULL.
type RelationsResult struct {
	Columns []string             `json:"columns"`
	Rows    []map[string]*string `json:"rows"`
}

// ResourceResult is one resource of a resources query.
type ResourceResult struct {
	Subject    string              `json:"subject"`
	Properties map[string][]string `json:"properties"`

	predicates []string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query-file>",
		Short: "Run a query against the store",
		Long: `Run a query document (.yaml, .json or .cue) against the configured database.

By default rows are printed with one column per projected variable. With
--resources, every predicate and object of the subjects bound to the first
projected variable is printed instead.

Examples:
  strata query people.yaml
  strata query people.yaml --resources --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Resources, "resources", false, "group results into resources")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	tree, err := loadQuery(formatter, path)
	if err != nil {
		return err
	}

	vr := query.Validate(tree)
	if !vr.IsValid {
		return formatter.Fail(ExitFailure, ErrCodeQueryInvalid, "invalid query", errors.New(strings.Join(vr.Errors, "; ")))
	}
	for _, warning := range vr.Warnings {
		formatter.VerboseLog("Warning: %s", warning)
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return reportExit(formatter, err)
	}
	defer sess.Close()

	if opts.Resources {
		return runResourcesQuery(sess, tree, formatter, cmd)
	}
	return runRelationsQuery(sess, tree, formatter, cmd)
}

func runRelationsQuery(sess *session, tree query.Node, formatter *OutputFormatter, cmd *cobra.Command) error {
	tr, err := sess.service.Compile(tree)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCompile, "failed to compile query", err)
	}

	it, err := sess.service.QueryRelations(cmd.Context(), tree)
	if err != nil {
		return queryFailure(formatter, err)
	}
	defer it.Close()

	result := RelationsResult{Columns: tr.Columns, Rows: []map[string]*string{}}
	for _, row := range it.All() {
		cells := make(map[string]*string, len(row))
		for name, value := range row {
			if value.Valid {
				cells[name] = &value.String
			} else {
				cells[name] = nil
			}
		}
		result.Rows = append(result.Rows, cells)
	}
	if err := it.Err(); err != nil {
		return queryFailure(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputRelationsText(formatter, result)
}

func runResourcesQuery(sess *session, tree query.Node, formatter *OutputFormatter, cmd *cobra.Command) error {
	it, err := sess.service.QueryResources(cmd.Context(), tree)
	if err != nil {
		return queryFailure(formatter, err)
	}
	defer it.Close()

	resources := []ResourceResult{}
	for it.Next() {
		res := it.Resource()
		resources = append(resources, ResourceResult{
			Subject:    res.Subject,
			Properties: res.Properties,
			predicates: res.Predicates(),
		})
	}
	if err := it.Err(); err != nil {
		return queryFailure(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(resources)
	}

	w := formatter.Writer
	for _, res := range resources {
		fmt.Fprintln(w, res.Subject)
		for _, p := range res.predicates {
			fmt.Fprintf(w, "  %s: %s\n", p, strings.Join(res.Properties[p], ", "))
		}
	}
	fmt.Fprintf(w, "%d resource(s)\n", len(resources))
	return nil
}

// queryFailure reports a failed query. Trees the compiler rejects are
// reported apart from database failures.
func queryFailure(formatter *OutputFormatter, err error) error {
	var ce *sqlgen.CompileError
	if errors.As(err, &ce) || sqlgen.IsUnknownNodeKind(err) {
		return formatter.Fail(ExitCommandError, ErrCodeCompile, "failed to compile query", err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeQueryFailed, "query failed", err)
}

// outputRelationsText prints rows as an aligned table.
func outputRelationsText(formatter *OutputFormatter, result RelationsResult) error {
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			if v := row[col]; v != nil {
				cells[i] = *v
			} else {
				cells[i] = "NULL"
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "%d row(s)\n", len(result.Rows))
	return nil
}

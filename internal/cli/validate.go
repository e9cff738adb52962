package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omerida/dokuwiki-strata/internal/query"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Validate a query without compiling it",
		Long: `Check a query document for problems the compiler cannot recover from:
a root that is not a select, empty projections, out-of-scope variables and
bad sort directions. Unsupported filter operators are reported as warnings.

Exit codes:
  0 - Query is valid
  1 - Query has errors
  2 - Command error (file not found, parse error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	tree, err := loadQuery(formatter, path)
	if err != nil {
		return err
	}

	formatter.VerboseLog("Validating %s", path)

	vr := query.Validate(tree)
	result := ValidationResult{
		Valid:    vr.IsValid,
		Errors:   vr.Errors,
		Warnings: vr.Warnings,
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Query valid")
	for _, warning := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", warning)
	}
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeQueryInvalid,
				Message: result.Errors[0],
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, msg := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeQueryInvalid, msg)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", warning)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

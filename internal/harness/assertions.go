package harness

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Compiled statement for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.SQL != "" {
		fmt.Fprintf(&buf, "\nSQL:\n  %s\n", e.SQL)
	}

	return buf.String()
}

// assertCount checks the number of rows or resources.
func assertCount(result *Result, assertion Assertion) error {
	if n := result.size(); n != assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d results", assertion.Count),
			Actual:   fmt.Sprintf("%d results", n),
			SQL:      result.SQL,
		}
	}
	return nil
}

// assertRows checks that the rows equal the expected rows in order.
func assertRows(result *Result, assertion Assertion) error {
	if len(result.Rows) != len(assertion.Rows) {
		return &AssertionError{
			Type:     AssertRows,
			Expected: fmt.Sprintf("%d rows: %s", len(assertion.Rows), formatRows(assertion.Rows)),
			Actual:   fmt.Sprintf("%d rows: %s", len(result.Rows), formatRows(result.Rows)),
			SQL:      result.SQL,
		}
	}

	for i := range assertion.Rows {
		if !rowsEqual(result.Rows[i], assertion.Rows[i]) {
			return &AssertionError{
				Type:     AssertRows,
				Expected: fmt.Sprintf("row %d = %s", i, formatRow(assertion.Rows[i])),
				Actual:   fmt.Sprintf("row %d = %s", i, formatRow(result.Rows[i])),
				SQL:      result.SQL,
			}
		}
	}
	return nil
}

// assertContainsRow checks that some row equals the expected row.
func assertContainsRow(result *Result, assertion Assertion) error {
	for _, row := range result.Rows {
		if rowsEqual(row, assertion.Row) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertContainsRow,
		Expected: fmt.Sprintf("a row %s", formatRow(assertion.Row)),
		Actual:   fmt.Sprintf("rows %s", formatRows(result.Rows)),
		SQL:      result.SQL,
	}
}

// assertResource checks the first resource with the expected subject.
// Property order within a predicate matters; predicate order does not.
func assertResource(result *Result, assertion Assertion) error {
	for _, res := range result.Resources {
		if res.Subject != assertion.Subject {
			continue
		}
		if !reflect.DeepEqual(res.Properties, normalizeProperties(assertion.Properties)) {
			return &AssertionError{
				Type:     AssertResource,
				Expected: fmt.Sprintf("%s properties %v", assertion.Subject, assertion.Properties),
				Actual:   fmt.Sprintf("%s properties %v", res.Subject, res.Properties),
				SQL:      result.SQL,
			}
		}
		return nil
	}

	subjects := make([]string, len(result.Resources))
	for i, res := range result.Resources {
		subjects[i] = res.Subject
	}
	return &AssertionError{
		Type:     AssertResource,
		Expected: fmt.Sprintf("resource %s", assertion.Subject),
		Actual:   fmt.Sprintf("resources %v", subjects),
		SQL:      result.SQL,
	}
}

// assertSQLContains checks the compiled statement text.
func assertSQLContains(result *Result, assertion Assertion) error {
	if !strings.Contains(result.SQL, assertion.Text) {
		return &AssertionError{
			Type:     AssertSQLContains,
			Expected: fmt.Sprintf("SQL containing %q", assertion.Text),
			Actual:   "not found",
			SQL:      result.SQL,
		}
	}
	return nil
}

// rowsEqual compares two rows. A missing key and a nil value are different:
// the expected row must name every variable.
func rowsEqual(actual, expected map[string]*string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for k, want := range expected {
		got, ok := actual[k]
		if !ok {
			return false
		}
		if (got == nil) != (want == nil) {
			return false
		}
		if got != nil && *got != *want {
			return false
		}
	}
	return true
}

// normalizeProperties maps a nil expectation to an empty map so it compares
// equal to a resource with no properties.
func normalizeProperties(p map[string][]string) map[string][]string {
	if p == nil {
		return map[string][]string{}
	}
	return p
}

// formatRow renders a row with sorted keys and null for unbound values.
func formatRow(row map[string]*string) string {
	parts := make([]string, 0, len(row))
	for _, k := range slices.Sorted(maps.Keys(row)) {
		v := "null"
		if row[k] != nil {
			v = fmt.Sprintf("%q", *row[k])
		}
		parts = append(parts, k+"="+v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatRows(rows []map[string]*string) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = formatRow(row)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCount:
			err = assertCount(result, assertion)
		case AssertRows:
			err = assertRows(result, assertion)
		case AssertContainsRow:
			err = assertContainsRow(result, assertion)
		case AssertResource:
			err = assertResource(result, assertion)
		case AssertSQLContains:
			err = assertSQLContains(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

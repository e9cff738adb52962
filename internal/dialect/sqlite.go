package dialect

import (
	"fmt"
	"strings"
)

// SQLite is the dialect of the embedded store.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) CaseInsensitive(expr string) string {
	return "lower(" + expr + ")"
}

func (SQLite) CastToNumber(expr string) string {
	return "CAST(" + expr + " AS NUMERIC)"
}

func (SQLite) StringMatch() string { return "LIKE" }

func (SQLite) Concat(parts ...string) string {
	return strings.Join(parts, " || ")
}

// OrderBy sorts numeric values before text, numbers by value and text
// without regard to case. SQLite compares the cast with the original under
// numeric affinity, so only values that are entirely numeric rank as numbers.
func (SQLite) OrderBy(expr string) []string {
	return []string{
		fmt.Sprintf("CASE WHEN CAST(%[1]s AS NUMERIC) = %[1]s THEN 0 ELSE 1 END", expr),
		"CAST(" + expr + " AS NUMERIC)",
		"lower(" + expr + ")",
	}
}

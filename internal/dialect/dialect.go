// Package dialect describes the SQL capabilities the query compiler needs from
// a database engine.
//
// The compiler never writes engine-specific SQL itself. Case folding, numeric
// casts, string matching, concatenation and sort keys all go through a
// Dialect, so one query tree can be lowered for several engines.
package dialect

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect renders engine-specific SQL expressions.
type Dialect interface {
	// Name is the registry name of the dialect ("sqlite", "mysql").
	Name() string

	// CaseInsensitive wraps expr so that comparisons on the result ignore
	// letter case.
	CaseInsensitive(expr string) string

	// CastToNumber converts expr to a numeric value for ordering comparisons.
	CastToNumber(expr string) string

	// StringMatch returns the pattern-match operator token (LIKE).
	StringMatch() string

	// Concat joins string expressions.
	Concat(parts ...string) string

	// OrderBy expands expr into sort keys, most significant first.
	OrderBy(expr string) []string
}

var registry = map[string]Dialect{
	"sqlite": SQLite{},
	"mysql":  MySQL{},
}

// ForName returns the dialect registered under name. Lookup ignores case.
func ForName(name string) (Dialect, error) {
	d, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names returns the registered dialect names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

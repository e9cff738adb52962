package store

import "strings"

// Triple is one stored fact.
type Triple struct {
	Subject   string `json:"subject" yaml:"subject"`
	Predicate string `json:"predicate" yaml:"predicate"`
	Object    string `json:"object" yaml:"object"`
	Graph     string `json:"graph,omitempty" yaml:"graph,omitempty"`
}

// Pattern selects triples. Empty fields match any value; set fields match
// without regard to case.
type Pattern struct {
	Subject   string
	Predicate string
	Object    string
	Graph     string
}

// where renders the pattern as a WHERE condition over the data table plus
// its positional arguments.
func (p Pattern) where(ci func(string) string) (string, []any) {
	filters := []string{"1 = 1"}
	var args []any

	fields := []struct {
		column string
		value  string
	}{
		{"subject", p.Subject},
		{"predicate", p.Predicate},
		{"object", p.Object},
		{"graph", p.Graph},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		filters = append(filters, ci(f.column)+" = "+ci("?"))
		args = append(args, normalize(f.value))
	}

	return strings.Join(filters, " AND "), args
}

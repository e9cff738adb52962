package harness

// ResourceSnapshot is one resource of a resources-mode result.
type ResourceSnapshot struct {
	Subject    string              `json:"subject"`
	Properties map[string][]string `json:"properties"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// SQL and Literals are the compiled statement.
	SQL      string            `json:"sql"`
	Literals map[string]string `json:"literals"`

	// Rows holds relations-mode rows. Unbound variables are nil.
	Rows []map[string]*string `json:"rows,omitempty"`

	// Resources holds resources-mode results in iteration order.
	Resources []ResourceSnapshot `json:"resources,omitempty"`

	// Warnings are the validation warnings of the query.
	Warnings []string `json:"warnings,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// size is the number of rows or resources in the result.
func (r *Result) size() int {
	if r.Resources != nil {
		return len(r.Resources)
	}
	return len(r.Rows)
}

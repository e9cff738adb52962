// Package harness runs query scenarios against an in-memory triple store.
//
// A scenario loads triples, runs one query and validates the rows or
// resources it returns. Scenarios back the package tests of the query engine
// and the `strata test` command.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: optional_age
//	description: "People without an age still appear"
//	graph: people
//	triples:
//	  - {subject: A, predicate: name, object: Alice}
//	  - {subject: A, predicate: age, object: "30"}
//	  - {subject: B, predicate: name, object: Bob}
//	mode: relations
//	query:
//	  type: select
//	  projection: [p, a]
//	  ordering: [{variable: p}]
//	  group:
//	    type: optional
//	    lhs: {type: triple, subject: {variable: p}, predicate: {literal: name}, object: {variable: n}}
//	    rhs: {type: triple, subject: {variable: p}, predicate: {literal: age}, object: {variable: a}}
//	assertions:
//	  - type: rows
//	    rows:
//	      - {p: A, a: "30"}
//	      - {p: B, a: null}
//
// The query may instead be read from a document with query_file, resolved
// relative to the scenario file.
//
// # Assertion Types
//
//   - count: the result has exactly N rows (or resources)
//   - rows: the rows equal the listed rows, in order
//   - contains_row: some row equals the given row
//   - resource: the resource with the given subject has exactly the listed properties
//   - sql_contains: the compiled SQL contains a fragment
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/optional_age.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness

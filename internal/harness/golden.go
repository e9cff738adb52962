package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures the observable output of a scenario execution.
// encoding/json writes map keys in sorted order, so snapshots are stable.
type Snapshot struct {
	ScenarioName string               `json:"scenario_name"`
	Rows         []map[string]*string `json:"rows,omitempty"`
	Resources    []ResourceSnapshot   `json:"resources,omitempty"`
}

// marshal renders the snapshot as indented JSON with a trailing newline.
func (s *Snapshot) marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Golden renders the snapshot of r recorded under scenarioName.
func (r *Result) Golden(scenarioName string) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Rows:         r.Rows,
		Resources:    r.Resources,
	}
	return snapshot.marshal()
}

// RunWithGolden executes a scenario and compares its rows or resources
// against a golden file. The golden file is stored in
// testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := result.Golden(scenarioName)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

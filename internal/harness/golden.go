package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden form of a scenario result. It leaves out pass/fail
// and assertion messages so goldens only change when loading behavior does.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Entries      []EntryOutcome  `json:"entries"`
	Modules      []ModuleOutcome `json:"modules"`
	Evaluated    []string        `json:"evaluated"`
	Fetches      map[string]int  `json:"fetches"`
	Polyfilled   bool            `json:"polyfilled"`
}

// MarshalSnapshot renders the snapshot of result as indented JSON without
// HTML escaping. Map keys are sorted by encoding/json.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Entries:      result.Entries,
		Modules:      result.Modules,
		Evaluated:    result.Evaluated,
		Fetches:      result.Fetches,
		Polyfilled:   result.Polyfilled,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
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

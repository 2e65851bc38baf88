package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/micromata/projectforge-sub013/internal/history"
)

// Snapshot renders a scenario result as stable text: one section per step
// with its status and history entries, followed by the final destination.
func Snapshot(name string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	for i, step := range result.Steps {
		fmt.Fprintf(&buf, "## step %d: %s, assigned %d\n", i+1, step.Status, step.Assigned)
		if err := history.Render(&buf, step.Entries); err != nil {
			return nil, err
		}
	}
	buf.WriteString("## final\n")
	buf.WriteString(result.Final)
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

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}

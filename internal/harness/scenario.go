package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/micromata/projectforge-sub013/internal/candh"
	"github.com/micromata/projectforge-sub013/internal/history"
)

// Scenario describes a sequence of copy passes onto one destination graph
// and the history they must leave behind.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE schema directory, relative to the scenario file.
	Schema string `yaml:"schema"`

	// Actor is recorded on every entry. Defaults to "test".
	Actor string `yaml:"actor,omitempty"`

	// Location renders date-only values. Defaults to UTC.
	Location string `yaml:"location,omitempty"`

	// Dest is the initial destination graph.
	Dest string `yaml:"dest"`

	// Steps are applied in order to the same destination.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the stored history after the last
	// step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one copy pass.
type Step struct {
	// Source is the graph copied onto the destination.
	Source string `yaml:"source"`

	// Op is the root history operation: insert, update or delete.
	Op string `yaml:"op,omitempty"`

	// Ignore names root properties that are not copied.
	Ignore []string `yaml:"ignore,omitempty"`

	// NoHistory disables recording for this pass.
	NoHistory bool `yaml:"no_history,omitempty"`

	// Expect is checked right after the pass. Nil skips the check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of one step.
type Expect struct {
	// Status is the expected change status (NONE, MINOR or MAJOR).
	Status string `yaml:"status"`

	// Entries is the expected number of finalized entries.
	Entries *int `yaml:"entries,omitempty"`
}

// Assertion validates the stored history.
type Assertion struct {
	// Type is history_contains, history_count or final_state.
	Type string `yaml:"type"`

	// Entity selects entries by "Type#id". Required for final_state.
	Entity string `yaml:"entity,omitempty"`

	// Operation matches the entry operation (history_contains).
	Operation string `yaml:"operation,omitempty"`

	// Property selects an attribute (history_contains). Old and New are
	// compared when set; OldNull and NewNull require a null value.
	Property string  `yaml:"property,omitempty"`
	Old      *string `yaml:"old,omitempty"`
	New      *string `yaml:"new,omitempty"`
	OldNull  bool    `yaml:"old_null,omitempty"`
	NewNull  bool    `yaml:"new_null,omitempty"`

	// Count is the expected number of entries (history_count).
	Count int `yaml:"count,omitempty"`

	// Values are expected replayed property values (final_state).
	Values map[string]string `yaml:"values,omitempty"`

	// Created and Deleted are expected lifecycle flags (final_state).
	Created *bool `yaml:"created,omitempty"`
	Deleted *bool `yaml:"deleted,omitempty"`
}

// Assertion type constants.
const (
	AssertHistoryContains = "history_contains"
	AssertHistoryCount    = "history_count"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. The schema path is
// resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the scenario files in dir, sorted by name.
func FindScenarios(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if info, err := os.Stat(s.Schema); err != nil || !info.IsDir() {
		return fmt.Errorf("schema directory not found: %s", s.Schema)
	}
	if s.Dest == "" {
		return fmt.Errorf("dest is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Source == "" {
			return fmt.Errorf("steps[%d]: source is required", i)
		}
		if _, err := history.ParseOp(step.Op); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Expect != nil {
			if _, err := candh.ParseStatus(step.Expect.Status); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Entity != "" {
		if _, _, err := parseEntity(a.Entity); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	switch a.Type {
	case AssertHistoryContains:
		if a.Entity == "" {
			return fmt.Errorf("assertions[%d]: entity is required for history_contains", index)
		}
		if a.Property == "" && (a.Old != nil || a.New != nil || a.OldNull || a.NewNull) {
			return fmt.Errorf("assertions[%d]: old/new require a property", index)
		}
		if _, err := history.ParseOp(a.Operation); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertHistoryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history_count", index)
		}
	case AssertFinalState:
		if a.Entity == "" {
			return fmt.Errorf("assertions[%d]: entity is required for final_state", index)
		}
		if len(a.Values) == 0 && a.Created == nil && a.Deleted == nil {
			return fmt.Errorf("assertions[%d]: values, created or deleted is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

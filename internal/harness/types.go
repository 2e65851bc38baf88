package harness

import "github.com/micromata/projectforge-sub013/internal/history"

// StepResult is the outcome of one copy pass.
type StepResult struct {
	Status   string          `json:"status"`
	Assigned int             `json:"assigned"`
	Entries  []history.Entry `json:"entries"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Steps holds one result per step, in order.
	Steps []StepResult `json:"steps"`

	// Final is the destination graph after the last step, in record YAML.
	Final string `json:"final"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Entries returns the entries of every step in order.
func (r *Result) Entries() []history.Entry {
	var all []history.Entry
	for _, s := range r.Steps {
		all = append(all, s.Entries...)
	}
	return all
}

// Package runbook defines the structure and parsing of runbook files.
// A runbook is a YAML document describing a sequence of steps to run
// against one cluster.
package runbook

import (
	"fmt"
	"strconv"
	"strings"
)

// Runbook represents a parsed runbook file.
type Runbook struct {
	// Path is the file path the runbook was loaded from.
	Path string

	// Name is an optional description of the runbook.
	Name string

	// Vars defines variables available to all steps.
	Vars map[string]any

	// Steps is the ordered list of steps to execute.
	Steps []*Step
}

// Step represents a single step in a runbook.
type Step struct {
	// Name is a description of the step.
	Name string

	// Type is the step type to execute (sql, shell, put, get).
	Type string

	// Params are the parameters to pass to the step.
	Params map[string]any

	// Register stores the step result in a variable with this name.
	Register string

	// IgnoreErrors continues execution even if the step fails.
	IgnoreErrors bool

	// EachDay repeats the step once per day of the given month partition.
	// The value is an epoch month identifier or a {{var}} reference that
	// resolves to one; the "day" and "day_date" variables are set on each
	// iteration. Empty means the step runs once.
	EachDay string
}

// Validate checks the runbook for common errors.
func (r *Runbook) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("runbook has no steps")
	}

	for i, step := range r.Steps {
		if err := step.Validate(); err != nil {
			name := step.Name
			if name == "" {
				name = fmt.Sprintf("step %d", i+1)
			}
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// Validate checks the step for common errors.
func (s *Step) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("step has no type specified")
	}

	if s.EachDay != "" && !strings.Contains(s.EachDay, "{{") {
		n, err := strconv.Atoi(s.EachDay)
		if err != nil || n < 0 {
			return fmt.Errorf("each_day must be an epoch month or a variable reference, got %q", s.EachDay)
		}
	}

	return nil
}

// String returns a human-readable description of the step.
func (s *Step) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s: %v", s.Type, summarizeParams(s.Params))
}

// summarizeParams creates a brief summary of step parameters.
func summarizeParams(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}

	var parts []string
	for k, v := range params {
		switch val := v.(type) {
		case string:
			if len(val) > 30 {
				val = val[:27] + "..."
			}
			parts = append(parts, fmt.Sprintf("%s=%q", k, val))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		if len(parts) >= 3 {
			parts = append(parts, "...")
			break
		}
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

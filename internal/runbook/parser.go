package runbook

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hiveline/hiveline/internal/step"
)

// knownStepFields are fields that are step directives, not step types.
var knownStepFields = map[string]bool{
	"name":          true,
	"register":      true,
	"ignore_errors": true,
	"each_day":      true,
}

// ParseFile parses a runbook from a YAML file.
func ParseFile(path string) (*Runbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runbook: %w", err)
	}

	rb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse runbook %s: %w", path, err)
	}

	rb.Path = path
	return rb, nil
}

// Parse parses a runbook from YAML data.
func Parse(data []byte) (*Runbook, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid runbook format: %w", err)
	}

	rb := &Runbook{
		Vars: make(map[string]any),
	}

	if v, ok := raw["name"].(string); ok {
		rb.Name = v
	}
	if vars, ok := raw["vars"].(map[string]any); ok {
		rb.Vars = vars
	}

	steps, ok := raw["steps"].([]any)
	if !ok {
		return nil, fmt.Errorf("runbook is missing required 'steps' list")
	}

	for i, rawStep := range steps {
		stepMap, ok := rawStep.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d: invalid step format", i+1)
		}
		s, err := parseRawStep(stepMap)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		rb.Steps = append(rb.Steps, s)
	}

	if err := rb.Validate(); err != nil {
		return nil, err
	}

	return rb, nil
}

// parseRawStep parses a single step from a raw map. The step type is a
// dynamic key, so the map is scanned for the one key that is not a
// directive.
func parseRawStep(raw map[string]any) (*Step, error) {
	s := &Step{
		Params: make(map[string]any),
	}

	if v, ok := raw["name"].(string); ok {
		s.Name = v
	}
	if v, ok := raw["register"].(string); ok {
		s.Register = v
	}
	if v, ok := raw["ignore_errors"].(bool); ok {
		s.IgnoreErrors = v
	}
	switch v := raw["each_day"].(type) {
	case nil:
	case int:
		s.EachDay = strconv.Itoa(v)
	case string:
		s.EachDay = v
	default:
		return nil, fmt.Errorf("each_day must be an epoch month or a variable reference, got %T", v)
	}

	for key, value := range raw {
		if knownStepFields[key] {
			continue
		}

		if s.Type != "" {
			return nil, fmt.Errorf("multiple step types specified: %s and %s", s.Type, key)
		}

		s.Type = key

		switch params := value.(type) {
		case map[string]any:
			s.Params = params
		case string:
			// Short form: the value is the step's main argument.
			s.Params = map[string]any{"_raw": params}
		case nil:
			s.Params = make(map[string]any)
		default:
			s.Params = map[string]any{"_raw": value}
		}
	}

	ExpandShorthand(s)

	return s, nil
}

// ExpandShorthand expands shorthand step syntax. A bare string becomes
// the step type's main parameter, and "key=value key=value" strings
// become proper parameter maps.
func ExpandShorthand(s *Step) {
	raw, ok := s.Params["_raw"].(string)
	if !ok {
		return
	}

	if !strings.Contains(raw, "=") || s.Type == "sql" || s.Type == "shell" {
		switch s.Type {
		case "sql":
			s.Params = map[string]any{"query": raw}
		case "shell":
			s.Params = map[string]any{"cmd": raw}
		default:
			s.Params = map[string]any{"src": raw}
		}
		return
	}

	newParams := make(map[string]any)
	for _, part := range strings.Fields(raw) {
		if idx := strings.Index(part, "="); idx > 0 {
			key := part[:idx]
			value := strings.Trim(part[idx+1:], "\"'")
			newParams[key] = value
		}
	}
	s.Params = newParams
}

// ResolveType checks if the step's type exists in the registry.
func ResolveType(s *Step) error {
	if s.Type == "" {
		return fmt.Errorf("no step type specified")
	}

	if step.Get(s.Type) == nil {
		available := step.List()
		return fmt.Errorf("unknown step type '%s' (available: %s)",
			s.Type, strings.Join(available, ", "))
	}

	return nil
}

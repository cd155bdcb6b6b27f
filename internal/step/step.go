// Package step defines the operations a runbook can perform. Step types
// register themselves at init time and are selected by key in the
// runbook YAML.
package step

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hiveline/hiveline/internal/connector"
	"github.com/hiveline/hiveline/internal/session"
)

// Env is the execution environment handed to every step.
type Env struct {
	// Session dispatches SQL and shell commands to the cluster.
	Session *session.Session

	// Conn moves files to and from the target.
	Conn connector.Connector
}

// Result holds the outcome of a step execution.
type Result struct {
	// Message is a human-readable description of what happened.
	Message string

	// Data holds values a runbook can capture via register.
	Data map[string]any
}

// Step is the interface all step types implement.
type Step interface {
	// Name returns the step type's unique identifier.
	Name() string

	// Run executes the step with the given parameters.
	Run(ctx context.Context, env *Env, params map[string]any) (*Result, error)
}

// registry holds all registered step types.
var (
	registry   = make(map[string]Step)
	registryMu sync.RWMutex
)

// Register adds a step type to the registry.
// It panics if the name is already taken.
func Register(s Step) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := s.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("step type %q is already registered", name))
	}
	registry[name] = s
}

// Get retrieves a step type by name, or nil if unknown.
func Get(name string) Step {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[name]
}

// List returns the names of all registered step types, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parameter extraction helpers shared by step implementations.

// RequireString returns the named parameter or an error if missing/empty.
func RequireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("required parameter '%s' is missing", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter '%s' must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("parameter '%s' cannot be empty", key)
	}
	return s, nil
}

// GetString returns the named parameter or a default.
func GetString(params map[string]any, key, defaultValue string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return defaultValue
}

// GetBool returns the named parameter or a default.
func GetBool(params map[string]any, key string, defaultValue bool) bool {
	if b, ok := params[key].(bool); ok {
		return b
	}
	return defaultValue
}

// GetInt returns the named parameter or a default. YAML integers arrive
// as int; interpolated values may arrive as strings.
func GetInt(params map[string]any, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}

// Package shell provides a step for running shell commands on the edge node.
package shell

import (
	"context"
	"strings"

	"github.com/hiveline/hiveline/internal/step"
)

func init() {
	step.Register(&Step{})
}

// Step runs a shell command on the remote host.
type Step struct{}

// Name returns the step identifier.
func (s *Step) Name() string {
	return "shell"
}

// Run executes the shell step.
//
// Parameters:
//   - cmd (string, required): The command to execute
func (s *Step) Run(ctx context.Context, env *step.Env, params map[string]any) (*step.Result, error) {
	cmd, err := step.RequireString(params, "cmd")
	if err != nil {
		return nil, err
	}

	out, err := env.Session.RunShell(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return &step.Result{
		Message: "command executed",
		Data: map[string]any{
			"cmd":    cmd,
			"stdout": strings.TrimSpace(out),
		},
	}, nil
}

// Ensure Step implements the step.Step interface.
var _ step.Step = (*Step)(nil)

// Package get provides a step for downloading files from the edge node.
package get

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiveline/hiveline/internal/step"
)

func init() {
	step.Register(&Step{})
}

// Step downloads a remote file over SFTP.
type Step struct{}

// Name returns the step identifier.
func (s *Step) Name() string {
	return "get"
}

// Run executes the get step.
//
// Parameters:
//   - src (string, required): Remote file path
//   - dest (string, required): Local destination path
func (s *Step) Run(ctx context.Context, env *step.Env, params map[string]any) (*step.Result, error) {
	src, err := step.RequireString(params, "src")
	if err != nil {
		return nil, err
	}
	dest, err := step.RequireString(params, "dest")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if err := env.Conn.Download(ctx, src, f); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", src, err)
	}

	return &step.Result{
		Message: fmt.Sprintf("downloaded %s to %s", src, dest),
		Data: map[string]any{
			"src":  src,
			"dest": dest,
		},
	}, nil
}

// Ensure Step implements the step.Step interface.
var _ step.Step = (*Step)(nil)

// Package put provides a step for uploading files to the edge node.
package put

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/hiveline/hiveline/internal/step"
)

func init() {
	step.Register(&Step{})
}

// Step uploads a local file over SFTP.
type Step struct{}

// Name returns the step identifier.
func (s *Step) Name() string {
	return "put"
}

// Run executes the put step.
//
// Parameters:
//   - src (string, required): Local file path
//   - dest (string, required): Remote destination path
//   - mode (string): Octal permission string, e.g. "0644" (default: "0644")
func (s *Step) Run(ctx context.Context, env *step.Env, params map[string]any) (*step.Result, error) {
	src, err := step.RequireString(params, "src")
	if err != nil {
		return nil, err
	}
	dest, err := step.RequireString(params, "dest")
	if err != nil {
		return nil, err
	}

	mode, err := parseMode(step.GetString(params, "mode", "0644"))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	if err := env.Conn.Upload(ctx, f, dest, mode); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", src, err)
	}

	return &step.Result{
		Message: fmt.Sprintf("uploaded %s to %s", src, dest),
		Data: map[string]any{
			"src":  src,
			"dest": dest,
		},
	}, nil
}

func parseMode(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode '%s': %w", s, err)
	}
	return uint32(n), nil
}

// Ensure Step implements the step.Step interface.
var _ step.Step = (*Step)(nil)

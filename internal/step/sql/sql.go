// Package sql provides a step for running HiveQL statements.
package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/hiveline/hiveline/internal/session"
	"github.com/hiveline/hiveline/internal/step"
)

func init() {
	step.Register(&Step{})
}

// Step runs a SQL statement against the cluster.
type Step struct{}

// Name returns the step identifier.
func (s *Step) Name() string {
	return "sql"
}

// Run executes the sql step.
//
// Parameters:
//   - query (string, required): The statement to run
//   - queue (string): YARN queue to submit to (default: configured queue)
//   - timeout (int): Seconds to wait before cancelling (default: no limit)
//   - log (bool): Whether to record the query in the log directory (default: true)
func (s *Step) Run(ctx context.Context, env *step.Env, params map[string]any) (*step.Result, error) {
	query, err := step.RequireString(params, "query")
	if err != nil {
		return nil, err
	}

	opts := []session.RunOption{
		session.WithLog(step.GetBool(params, "log", true)),
	}
	if queue := step.GetString(params, "queue", ""); queue != "" {
		opts = append(opts, session.WithQueue(queue))
	}
	if timeout := step.GetInt(params, "timeout", 0); timeout > 0 {
		opts = append(opts, session.WithTimeout(time.Duration(timeout)*time.Second))
	}

	res, err := env.Session.RunSQL(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"row_count": res.RowCount,
		"raw":       res.Raw,
	}
	if res.Table != nil {
		data["columns"] = res.Table.Columns
		data["rows"] = res.Table.Rows
	}

	return &step.Result{
		Message: fmt.Sprintf("%d rows", res.RowCount),
		Data:    data,
	}, nil
}

// Ensure Step implements the step.Step interface.
var _ step.Step = (*Step)(nil)

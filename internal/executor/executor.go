// Package executor runs runbooks against the configured cluster.
package executor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hiveline/hiveline/internal/output"
	"github.com/hiveline/hiveline/internal/partition"
	"github.com/hiveline/hiveline/internal/runbook"
	"github.com/hiveline/hiveline/internal/step"
)

// Executor runs runbooks.
type Executor struct {
	// Output handles formatted output.
	Output *output.Output

	// Env is the execution environment handed to each step.
	Env *step.Env

	// DryRun only shows what would be done without running anything.
	DryRun bool
}

// New creates a new executor.
func New(env *step.Env) *Executor {
	return &Executor{
		Output: output.New(os.Stdout),
		Env:    env,
	}
}

// RunResult holds the result of a runbook run.
type RunResult struct {
	// Success is true if all steps completed successfully.
	Success bool

	// Stats holds execution statistics.
	Stats *Stats
}

// Stats holds execution statistics.
type Stats struct {
	Steps     int
	OK        int
	Failed    int
	Skipped   int
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the total execution time.
func (s *Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// GetOK returns the OK count (implements output.Stats).
func (s *Stats) GetOK() int { return s.OK }

// GetFailed returns the Failed count (implements output.Stats).
func (s *Stats) GetFailed() int { return s.Failed }

// GetSkipped returns the Skipped count (implements output.Stats).
func (s *Stats) GetSkipped() int { return s.Skipped }

// GetDuration returns the duration (implements output.Stats).
func (s *Stats) GetDuration() time.Duration { return s.Duration() }

// runContext holds state shared across one runbook execution.
type runContext struct {
	// Vars holds all variables (runbook vars + builtins + registered).
	Vars map[string]any

	// Registered holds step results stored via register.
	Registered map[string]any
}

// Run executes a runbook. Steps run sequentially; the first failure
// stops the run unless the step sets ignore_errors.
func (e *Executor) Run(ctx context.Context, rb *runbook.Runbook) (*RunResult, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	result := &RunResult{
		Success: true,
		Stats:   stats,
	}

	e.Output.RunStart(rb.Path)

	rctx := &runContext{
		Vars:       make(map[string]any),
		Registered: make(map[string]any),
	}
	for k, v := range rb.Vars {
		rctx.Vars[k] = v
	}
	rctx.Vars["env"] = getEnvMap()
	rctx.Vars["today"] = partition.Today()
	rctx.Vars["this_month"] = partition.ThisMonth()

	for _, s := range rb.Steps {
		if err := e.runStep(ctx, rctx, s, stats); err != nil {
			if s.IgnoreErrors {
				e.Output.StepResult(s.String(), "failed (ignored)", err.Error())
				continue
			}
			result.Success = false
			e.Output.Error("Step failed: %v", err)
			break
		}
	}

	stats.EndTime = time.Now()
	e.Output.RunEnd(stats)

	return result, nil
}

// runStep executes a single step, expanding each_day into one run per
// partition day.
func (e *Executor) runStep(ctx context.Context, rctx *runContext, s *runbook.Step, stats *Stats) error {
	if s.EachDay != "" {
		return e.runStepDays(ctx, rctx, s, stats)
	}

	stats.Steps++
	return e.runSingleStep(ctx, rctx, s, stats)
}

// runStepDays executes a step once per day of the each_day month, in
// ascending order.
func (e *Executor) runStepDays(ctx context.Context, rctx *runContext, s *runbook.Step, stats *Stats) error {
	month, err := e.resolveMonth(s.EachDay, rctx)
	if err != nil {
		stats.Steps++
		stats.Failed++
		e.Output.StepResult(s.String(), "failed", err.Error())
		return err
	}

	for _, day := range partition.DaysOf(month) {
		rctx.Vars["day"] = day
		rctx.Vars["day_date"] = partition.FormatDay(day)
		rctx.Vars["day_start"] = partition.DayTime(day).Unix()
		rctx.Vars["day_end"] = partition.DayTime(day+1).Unix() - 1

		stats.Steps++
		if err := e.runSingleStep(ctx, rctx, s, stats); err != nil {
			return err
		}
	}

	delete(rctx.Vars, "day")
	delete(rctx.Vars, "day_date")
	delete(rctx.Vars, "day_start")
	delete(rctx.Vars, "day_end")

	return nil
}

// resolveMonth turns an each_day value into an epoch month identifier.
// The value may be a literal month or a {{var}} reference to one.
func (e *Executor) resolveMonth(expr string, rctx *runContext) (int, error) {
	v, err := e.interpolateString(expr, rctx)
	if err != nil {
		return 0, fmt.Errorf("each_day: %w", err)
	}

	switch m := v.(type) {
	case int:
		return m, nil
	case int64:
		return int(m), nil
	case float64:
		return int(m), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(m))
		if err != nil {
			return 0, fmt.Errorf("each_day: %q does not resolve to an epoch month", m)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("each_day: cannot use %T as an epoch month", v)
	}
}

// runSingleStep executes a step once.
func (e *Executor) runSingleStep(ctx context.Context, rctx *runContext, s *runbook.Step, stats *Stats) error {
	name := s.String()

	st := step.Get(s.Type)
	if st == nil {
		stats.Failed++
		err := fmt.Errorf("unknown step type: %s", s.Type)
		e.Output.StepResult(name, "failed", err.Error())
		return err
	}

	params, err := e.interpolateParams(s.Params, rctx)
	if err != nil {
		stats.Failed++
		e.Output.StepResult(name, "failed", err.Error())
		return fmt.Errorf("failed to interpolate parameters: %w", err)
	}

	if e.DryRun {
		stats.Skipped++
		e.Output.StepResult(name, "skipped", "dry run")
		return nil
	}

	e.Output.Step(name)

	res, err := st.Run(ctx, e.Env, params)
	if err != nil {
		stats.Failed++
		e.Output.StepResult(name, "failed", err.Error())
		return err
	}

	if s.Register != "" {
		reg := map[string]any{
			"message": res.Message,
			"data":    res.Data,
		}
		rctx.Registered[s.Register] = reg
		rctx.Vars[s.Register] = reg
	}

	stats.OK++
	e.Output.StepResult(name, "ok", res.Message)

	return nil
}

// getEnvMap returns environment variables as a map.
func getEnvMap() map[string]string {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if idx := strings.Index(e, "="); idx > 0 {
			env[e[:idx]] = e[idx+1:]
		}
	}
	return env
}

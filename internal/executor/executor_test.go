package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/hiveline/hiveline/internal/connector"
	"github.com/hiveline/hiveline/internal/output"
	"github.com/hiveline/hiveline/internal/partition"
	"github.com/hiveline/hiveline/internal/runbook"
	"github.com/hiveline/hiveline/internal/step"
)

// recordStep captures the parameters it was run with.
type recordStep struct {
	name  string
	calls []map[string]any
	err   error
}

func (r *recordStep) Name() string { return r.name }

func (r *recordStep) Run(ctx context.Context, env *step.Env, params map[string]any) (*step.Result, error) {
	r.calls = append(r.calls, params)
	if r.err != nil {
		return nil, r.err
	}
	return &step.Result{
		Message: "done",
		Data:    map[string]any{"row_count": 5},
	}, nil
}

type nopConnector struct{}

func (nopConnector) Connect(ctx context.Context) error { return nil }

func (nopConnector) Execute(ctx context.Context, cmd string) (*connector.Result, error) {
	return &connector.Result{}, nil
}

func (nopConnector) Upload(ctx context.Context, src io.Reader, dst string, mode uint32) error {
	return nil
}

func (nopConnector) Download(ctx context.Context, src string, dst io.Writer) error { return nil }
func (nopConnector) Close() error                                                  { return nil }
func (nopConnector) String() string                                                { return "nop" }

func newTestExecutor() (*Executor, *bytes.Buffer) {
	var buf bytes.Buffer
	e := New(&step.Env{Conn: nopConnector{}})
	e.Output = output.New(&buf)
	e.Output.SetColor(false)
	return e, &buf
}

func TestRun(t *testing.T) {
	rec := &recordStep{name: "record_run"}
	step.Register(rec)

	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Vars: map[string]any{"table": "events"},
		Steps: []*runbook.Step{
			{Type: "record_run", Params: map[string]any{"query": "SELECT COUNT(*) FROM {{table}}"}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if res.Stats.OK != 1 || res.Stats.Steps != 1 {
		t.Errorf("Stats = %+v, want 1 step 1 ok", res.Stats)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("step ran %d times, want 1", len(rec.calls))
	}
	if got := rec.calls[0]["query"]; got != "SELECT COUNT(*) FROM events" {
		t.Errorf("interpolated query = %v", got)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	failing := &recordStep{name: "record_fail", err: errors.New("boom")}
	after := &recordStep{name: "record_after"}
	step.Register(failing)
	step.Register(after)

	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Steps: []*runbook.Step{
			{Type: "record_fail", Params: map[string]any{}},
			{Type: "record_after", Params: map[string]any{}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
	if res.Stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Stats.Failed)
	}
	if len(after.calls) != 0 {
		t.Error("step after failure should not run")
	}
}

func TestRunIgnoreErrors(t *testing.T) {
	failing := &recordStep{name: "record_fail_ignored", err: errors.New("boom")}
	after := &recordStep{name: "record_after_ignored"}
	step.Register(failing)
	step.Register(after)

	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Steps: []*runbook.Step{
			{Type: "record_fail_ignored", Params: map[string]any{}, IgnoreErrors: true},
			{Type: "record_after_ignored", Params: map[string]any{}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if len(after.calls) != 1 {
		t.Error("step after ignored failure should still run")
	}
}

func TestRunEachDay(t *testing.T) {
	rec := &recordStep{name: "record_days"}
	step.Register(rec)

	// 679 is 2026-08, a 31-day month.
	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Steps: []*runbook.Step{
			{Type: "record_days", EachDay: "679", Params: map[string]any{"query": "day={{day}}"}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	days := partition.DaysOf(679)
	if res.Stats.Steps != len(days) || res.Stats.OK != len(days) {
		t.Errorf("Stats = %+v, want %d steps all ok", res.Stats, len(days))
	}
	for i, call := range rec.calls {
		want := "day=" + strconv.Itoa(days[i])
		if call["query"] != want {
			t.Errorf("call %d query = %v, want %q", i, call["query"], want)
		}
	}
}

func TestRunEachDayVariable(t *testing.T) {
	rec := &recordStep{name: "record_days_var"}
	step.Register(rec)

	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Vars: map[string]any{"m": 600},
		Steps: []*runbook.Step{
			{Type: "record_days_var", EachDay: "{{ m }}", Params: map[string]any{"query": "day={{day}}"}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	days := partition.DaysOf(600)
	if len(rec.calls) != len(days) {
		t.Fatalf("step ran %d times, want %d", len(rec.calls), len(days))
	}
	if res.Stats.OK != len(days) {
		t.Errorf("OK = %d, want %d", res.Stats.OK, len(days))
	}
	if want := "day=" + strconv.Itoa(days[0]); rec.calls[0]["query"] != want {
		t.Errorf("first call query = %v, want %q", rec.calls[0]["query"], want)
	}
}

func TestRunEachDayUnresolvedVariable(t *testing.T) {
	rec := &recordStep{name: "record_days_bad"}
	step.Register(rec)

	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Steps: []*runbook.Step{
			{Type: "record_days_bad", EachDay: "{{ nope }}", Params: map[string]any{"query": "day={{day}}"}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false for unresolved each_day")
	}
	if res.Stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Stats.Failed)
	}
	if len(rec.calls) != 0 {
		t.Errorf("step ran %d times, want 0", len(rec.calls))
	}
}

func TestRunDryRun(t *testing.T) {
	rec := &recordStep{name: "record_dry"}
	step.Register(rec)

	e, buf := newTestExecutor()
	e.DryRun = true
	e.Output.SetDebug(true)
	rb := &runbook.Runbook{
		Steps: []*runbook.Step{
			{Type: "record_dry", Params: map[string]any{}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Stats.Skipped)
	}
	if len(rec.calls) != 0 {
		t.Error("dry run should not execute steps")
	}
	if !strings.Contains(buf.String(), "dry run") {
		t.Errorf("output missing dry run note: %q", buf.String())
	}
}

func TestRunUnknownType(t *testing.T) {
	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Steps: []*runbook.Step{
			{Type: "no_such_type", Params: map[string]any{}},
		},
	}

	res, err := e.Run(context.Background(), rb)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
}

func TestRunRegister(t *testing.T) {
	first := &recordStep{name: "record_first"}
	second := &recordStep{name: "record_second"}
	step.Register(first)
	step.Register(second)

	e, _ := newTestExecutor()
	rb := &runbook.Runbook{
		Steps: []*runbook.Step{
			{Type: "record_first", Params: map[string]any{}, Register: "counts"},
			{Type: "record_second", Params: map[string]any{"query": "total is {{counts.data.row_count}}"}},
		},
	}

	if _, err := e.Run(context.Background(), rb); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := second.calls[0]["query"]; got != "total is 5" {
		t.Errorf("registered lookup = %v, want %q", got, "total is 5")
	}
}

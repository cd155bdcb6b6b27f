// Package output provides formatted terminal output for statement and
// runbook execution.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hiveline/hiveline/internal/table"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Stats holds execution statistics for the recap line.
type Stats interface {
	GetOK() int
	GetFailed() int
	GetSkipped() int
	GetDuration() time.Duration
}

// Output handles formatted output.
type Output struct {
	w        io.Writer
	useColor bool
	debug    bool
}

// New creates a new output handler.
func New(w io.Writer) *Output {
	return &Output{
		w:        w,
		useColor: true,
	}
}

// SetColor enables or disables color output.
func (o *Output) SetColor(enabled bool) {
	o.useColor = enabled
}

// SetDebug enables or disables debug output.
func (o *Output) SetDebug(enabled bool) {
	o.debug = enabled
}

// color returns the string wrapped in color codes if enabled.
func (o *Output) color(c, s string) string {
	if !o.useColor {
		return s
	}
	return c + s + colorReset
}

// RunStart prints the runbook start banner.
func (o *Output) RunStart(path string) {
	o.printf("\n%s %s\n", o.color(colorBold, "RUNBOOK"), path)
	if o.debug {
		o.printf("%s\n", strings.Repeat("-", 60))
	}
}

// RunEnd prints the runbook summary.
func (o *Output) RunEnd(stats Stats) {
	o.printf("\n%s ", o.color(colorBold, "RECAP"))

	ok := o.color(colorGreen, fmt.Sprintf("ok=%d", stats.GetOK()))
	failed := o.color(colorRed, fmt.Sprintf("failed=%d", stats.GetFailed()))
	skipped := o.color(colorCyan, fmt.Sprintf("skipped=%d", stats.GetSkipped()))

	o.printf("%s %s %s", ok, failed, skipped)
	o.printf(" %s\n", o.color(colorGray, fmt.Sprintf("(%.2fs)", stats.GetDuration().Seconds())))
}

// StepResult prints the outcome of one step in a single line.
func (o *Output) StepResult(name, status, message string) {
	var indicator string
	var statusColor string

	switch status {
	case "ok":
		indicator = "✓"
		statusColor = colorGreen
	case "skipped":
		indicator = "○"
		statusColor = colorCyan
	case "failed":
		indicator = "✗"
		statusColor = colorRed
	default:
		indicator = "?"
		statusColor = colorGray
	}

	o.printf("  %s %s\n", o.color(statusColor, indicator), name)

	if o.debug && message != "" {
		o.printf("    %s %s\n", o.color(colorGray, "→"), message)
	}
}

// Table prints a parsed result grid with its row line underneath.
func (o *Output) Table(t *table.Table, rowLine string) {
	if t != nil && !t.Empty() {
		o.printf("%s", t.String())
	}
	if rowLine != "" {
		o.printf("%s\n", o.color(colorGray, rowLine))
	}
}

// Raw prints unstructured command output as-is.
func (o *Output) Raw(s string) {
	if s == "" {
		return
	}
	o.printf("%s\n", strings.TrimRight(s, "\n"))
}

// Info prints an informational message.
func (o *Output) Info(format string, args ...any) {
	o.printf("%s %s\n", o.color(colorBlue, "INFO"), fmt.Sprintf(format, args...))
}

// Warn prints a warning message.
func (o *Output) Warn(format string, args ...any) {
	o.printf("%s %s\n", o.color(colorYellow, "WARN"), fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (o *Output) Error(format string, args ...any) {
	o.printf("%s %s\n", o.color(colorRed, "ERROR"), fmt.Sprintf(format, args...))
}

// Debug prints a debug message (only in debug mode).
func (o *Output) Debug(format string, args ...any) {
	if o.debug {
		o.printf("%s %s\n", o.color(colorGray, "DEBUG"), fmt.Sprintf(format, args...))
	}
}

// Step prints a progress line for a long-running pipeline step.
func (o *Output) Step(description string) {
	o.printf("%s %s\n", o.color(colorCyan, "»"), description)
}

func (o *Output) printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}

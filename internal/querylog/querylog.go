// Package querylog persists executed statements and their captured output
// to timestamped text files, fanned out into year/month directories so a
// long-running installation stays browsable.
package querylog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const separator = "----------------------------------------------------------------------"

// Writer appends query records to the day's log file.
type Writer struct {
	dir string
	now func() time.Time
}

// New creates a Writer rooted at dir. A leading "~" is expanded to the
// user's home directory.
func New(dir string) (*Writer, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot expand %q: %w", dir, err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Path returns the log file for the given time, creating its directory.
func (w *Writer) Path(t time.Time) (string, error) {
	dir := filepath.Join(w.dir, t.Format("2006"), t.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return filepath.Join(dir, "logs_"+t.Format("2006_01_02")+".txt"), nil
}

// Record appends a statement and its output under a timestamp banner.
func (w *Writer) Record(statement, output, rowLine string) (string, error) {
	t := w.now()
	path, err := w.Path(t)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(separator)
	sb.WriteByte('\n')
	sb.WriteString(t.Format("2006-01-02 15:04:05"))
	sb.WriteByte('\n')
	sb.WriteString(separator)
	sb.WriteString("\n\n")
	sb.WriteString(statement)
	sb.WriteString("\n\n")
	sb.WriteString(output)
	if rowLine != "" {
		sb.WriteByte('\n')
		sb.WriteString(rowLine)
	}
	sb.WriteByte('\n')

	if _, err := f.WriteString(sb.String()); err != nil {
		return "", fmt.Errorf("failed to write log record: %w", err)
	}
	return path, nil
}

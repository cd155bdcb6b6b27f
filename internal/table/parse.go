package table

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	borderLine = regexp.MustCompile(`^[+-]+$`)
	promptLine = regexp.MustCompile(`(?m)^\d+: jdbc:[^\n]+>`)
	rowsLine   = regexp.MustCompile(`^(\d+) rows? selected|^No rows selected`)
)

// zero-width characters that some clients inject into cell padding.
var zeroWidth = strings.NewReplacer(
	"\u200b", "", // zero width space
	"\u200c", "", // zero width non-joiner
	"\u200d", "", // zero width joiner
	"\u2060", "", // word joiner
	"\ufeff", "", // BOM
)

func trimCell(s string) string {
	return strings.TrimSpace(zeroWidth.Replace(s))
}

// Parse converts an ASCII result grid into a Table. The expected shape is
// a border line, a header row, a border, data rows, and a closing border,
// optionally followed by a "N rows selected" summary line. The returned
// count is the summary line's value, or -1 when no summary is present.
//
// Parsing is lenient: border lines may repeat mid-table (paged output),
// repeated header rows are dropped, rows with too many cells are skipped,
// and rows with too few are padded with empty cells. Empty input yields
// an empty table with count 0. Parse holds no state; the same input
// always produces the same result.
func Parse(text string) (*Table, int) {
	t := &Table{}
	if strings.TrimSpace(text) == "" {
		return t, 0
	}
	count := -1

	var header []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if borderLine.MatchString(trimmed) {
			continue
		}
		if m := rowsLine.FindStringSubmatch(trimmed); m != nil {
			if m[1] == "" {
				count = 0
			} else {
				count, _ = strconv.Atoi(m[1])
			}
			continue
		}
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}

		cells := splitRow(trimmed)
		if header == nil {
			header = cells
			t.Columns = cells
			continue
		}
		if len(cells) > len(header) {
			continue // malformed row, skip
		}
		if equalCells(cells, header) {
			continue // repeated header from paged output
		}
		for len(cells) < len(header) {
			cells = append(cells, "")
		}
		t.Rows = append(t.Rows, cells)
	}

	return t, count
}

// splitRow breaks "| a | b |" into trimmed cells.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = trimCell(p)
	}
	return cells
}

func equalCells(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Extract isolates the result portion of a raw interactive transcript.
// It returns the bordered grid and the row-count summary line when a
// result table is present; the client's "Error: ..." message (trimmed of
// any trailing parser dump) when the statement failed; or the cleaned
// remainder of the transcript when neither is recognized.
func Extract(raw string) (grid, rowLine, errMsg string) {
	out := strings.ReplaceAll(raw, "\r\n", "\n")

	// Drop connection noise up to the client prompt.
	if loc := promptLine.FindStringIndex(out); loc != nil {
		out = strings.TrimSpace(out[loc[1]:])
	}

	lines := strings.Split(out, "\n")
	start, end := findGrid(lines)
	if start >= 0 {
		for _, line := range lines[end+1:] {
			if rowsLine.MatchString(strings.TrimSpace(line)) {
				rowLine = strings.TrimSpace(line)
				break
			}
		}
		return strings.Join(lines[start:end+1], "\n"), rowLine, ""
	}

	if idx := strings.Index(out, "Error:"); idx >= 0 {
		msg := out[idx:]
		// Some engines append a parser state dump after the message.
		if cut := strings.Index(msg, "\n=="); cut >= 0 {
			msg = msg[:cut]
		}
		return "", "", strings.TrimSpace(msg)
	}

	return strings.TrimSpace(out), "", ""
}

// findGrid locates a border/header/border sequence and the matching
// closing border, returning (-1, -1) if none exists.
func findGrid(lines []string) (int, int) {
	isBorder := func(s string) bool {
		s = strings.TrimSpace(s)
		return strings.HasPrefix(s, "+") && strings.Contains(s, "-") && borderLine.MatchString(s)
	}

	for i := 0; i+2 < len(lines); i++ {
		if !isBorder(lines[i]) {
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(lines[i+1]), "|") {
			continue
		}
		if !isBorder(lines[i+2]) {
			continue
		}
		for j := len(lines) - 1; j > i+2; j-- {
			if isBorder(lines[j]) {
				return i, j
			}
		}
		// Degenerate: header block only, no closing border after it.
		return i, i + 2
	}
	return -1, -1
}

// Count parses a "N rows selected" summary line, returning -1 when the
// line is not a summary.
func Count(line string) int {
	m := rowsLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return -1
	}
	if m[1] == "" {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Package table models tabular query results and converts the ASCII grid
// output of command-line SQL clients into structured form.
package table

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table is an ordered set of named columns and rows of string cells.
// Every row holds exactly one cell per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// Empty reports whether the table has no columns and no rows.
func (t *Table) Empty() bool {
	return len(t.Columns) == 0 && len(t.Rows) == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns all values of the named column, or nil if the column
// does not exist.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// Get returns the cell at the given row in the named column.
func (t *Table) Get(row int, name string) (string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return "", fmt.Errorf("no column %q", name)
	}
	if row < 0 || row >= len(t.Rows) {
		return "", fmt.Errorf("row %d out of range (%d rows)", row, len(t.Rows))
	}
	return t.Rows[row][idx], nil
}

// Render writes the table back out as an aligned ASCII grid: bordered,
// header centered, data left-aligned.
func (t *Table) Render(w io.Writer) error {
	if t.Empty() {
		return nil
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	border := buildBorder(widths)
	var sb strings.Builder
	sb.WriteString(border)
	sb.WriteByte('\n')
	writeRow(&sb, t.Columns, widths, true)
	sb.WriteString(border)
	sb.WriteByte('\n')
	for _, row := range t.Rows {
		writeRow(&sb, row, widths, false)
	}
	sb.WriteString(border)
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders the table to a string.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func buildBorder(widths []int) string {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteByte('+')
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string, widths []int, center bool) {
	sb.WriteByte('|')
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := w - utf8.RuneCountInString(cell)
		left, right := 0, pad
		if center {
			left = pad / 2
			right = pad - left
		}
		sb.WriteByte(' ')
		sb.WriteString(strings.Repeat(" ", left))
		sb.WriteString(cell)
		sb.WriteString(strings.Repeat(" ", right))
		sb.WriteString(" |")
	}
	sb.WriteByte('\n')
}

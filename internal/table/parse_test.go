package table

import (
	"strings"
	"testing"
)

const sampleGrid = `+-----+----------+
| id  | name     |
+-----+----------+
| 1   | alpha    |
| 2   | beta     |
| 3   | gamma    |
+-----+----------+
3 rows selected (0.214 seconds)`

func TestParse(t *testing.T) {
	tbl, count := Parse(sampleGrid)

	if tbl.NumCols() != 2 {
		t.Fatalf("expected 2 columns, got %d", tbl.NumCols())
	}
	if tbl.Columns[0] != "id" || tbl.Columns[1] != "name" {
		t.Errorf("unexpected columns: %v", tbl.Columns)
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", tbl.NumRows())
	}
	if count != 3 {
		t.Errorf("expected reported count 3, got %d", count)
	}
	if tbl.Rows[1][1] != "beta" {
		t.Errorf("expected cell 'beta', got %q", tbl.Rows[1][1])
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "  \n\t\n"} {
		tbl, count := Parse(input)
		if !tbl.Empty() {
			t.Errorf("Parse(%q): expected empty table, got %v", input, tbl)
		}
		if count != 0 {
			t.Errorf("Parse(%q): expected count 0, got %d", input, count)
		}
	}
}

func TestParseNoSummary(t *testing.T) {
	grid := strings.Join(strings.Split(sampleGrid, "\n")[:7], "\n")
	tbl, count := Parse(grid)
	if tbl.NumRows() != 3 {
		t.Errorf("expected 3 rows, got %d", tbl.NumRows())
	}
	if count != -1 {
		t.Errorf("expected count -1 without summary line, got %d", count)
	}
}

func TestParseNoRowsSelected(t *testing.T) {
	text := `+-----+
| id  |
+-----+
+-----+
No rows selected (0.1 seconds)`
	tbl, count := Parse(text)
	if tbl.NumRows() != 0 {
		t.Errorf("expected 0 rows, got %d", tbl.NumRows())
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
}

func TestParseMalformedRowSkipped(t *testing.T) {
	text := `+-----+------+
| id  | name |
+-----+------+
| 1   | a    |
| 2   | b    | extra | cells |
| 3   | c    |
+-----+------+`
	tbl, _ := Parse(text)
	if tbl.NumRows() != 2 {
		t.Fatalf("expected malformed row to be skipped, got %d rows", tbl.NumRows())
	}
	if tbl.Rows[0][0] != "1" || tbl.Rows[1][0] != "3" {
		t.Errorf("unexpected surviving rows: %v", tbl.Rows)
	}
}

func TestParseShortRowPadded(t *testing.T) {
	text := `+-----+------+
| id  | name |
+-----+------+
| 1   |
+-----+------+`
	tbl, _ := Parse(text)
	if tbl.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", tbl.NumRows())
	}
	if tbl.Rows[0][0] != "1" || tbl.Rows[0][1] != "" {
		t.Errorf("expected short row padded with empty cell, got %v", tbl.Rows[0])
	}
}

func TestParseRepeatedHeaderDropped(t *testing.T) {
	text := `+-----+------+
| id  | name |
+-----+------+
| 1   | a    |
+-----+------+
| id  | name |
+-----+------+
| 2   | b    |
+-----+------+`
	tbl, _ := Parse(text)
	if tbl.NumRows() != 2 {
		t.Fatalf("expected 2 data rows, got %d: %v", tbl.NumRows(), tbl.Rows)
	}
}

func TestParseTrimsZeroWidth(t *testing.T) {
	text := "+-----+\n| i\u200bd\u200c  |\n+-----+\n| \ufeff4\u20602\u200d  |\n+-----+"
	tbl, _ := Parse(text)
	if tbl.Columns[0] != "id" {
		t.Errorf("expected zero-width chars trimmed from header, got %q", tbl.Columns[0])
	}
	if tbl.Rows[0][0] != "42" {
		t.Errorf("expected zero-width chars trimmed from cell, got %q", tbl.Rows[0][0])
	}
}

func TestParseIdempotent(t *testing.T) {
	a, ca := Parse(sampleGrid)
	b, cb := Parse(sampleGrid)
	if ca != cb {
		t.Errorf("counts differ: %d vs %d", ca, cb)
	}
	if a.String() != b.String() {
		t.Errorf("tables differ between parses")
	}
}

func TestExtractGrid(t *testing.T) {
	raw := "Connecting to jdbc:hive2://edge:10000\n" +
		"0: jdbc:hive2://edge:10000> SELECT * FROM t;\n" +
		sampleGrid + "\n" +
		"0: jdbc:hive2://edge:10000>"

	grid, rowLine, errMsg := Extract(raw)
	if errMsg != "" {
		t.Fatalf("unexpected error text: %q", errMsg)
	}
	if !strings.HasPrefix(grid, "+-----+") {
		t.Errorf("grid should start at the border, got %q", grid)
	}
	if rowLine != "3 rows selected (0.214 seconds)" {
		t.Errorf("unexpected row line: %q", rowLine)
	}

	tbl, _ := Parse(grid)
	if tbl.NumRows() != 3 {
		t.Errorf("extracted grid should parse to 3 rows, got %d", tbl.NumRows())
	}
	if Count(rowLine) != 3 {
		t.Errorf("Count(%q) = %d, want 3", rowLine, Count(rowLine))
	}
}

func TestExtractError(t *testing.T) {
	raw := "0: jdbc:hive2://edge:10000> SELECT nope;\n" +
		"Error: Error while compiling statement (state=42000,code=40000)\n" +
		"== Parser state ==\ninternal dump\n"

	grid, rowLine, errMsg := Extract(raw)
	if grid != "" || rowLine != "" {
		t.Errorf("expected no grid for error output, got %q / %q", grid, rowLine)
	}
	if !strings.HasPrefix(errMsg, "Error:") {
		t.Errorf("expected Error prefix, got %q", errMsg)
	}
	if strings.Contains(errMsg, "Parser state") {
		t.Errorf("parser dump should be trimmed, got %q", errMsg)
	}
}

func TestExtractPlainOutput(t *testing.T) {
	grid, rowLine, errMsg := Extract("  just some text\n")
	if grid != "just some text" || rowLine != "" || errMsg != "" {
		t.Errorf("unexpected extract: %q %q %q", grid, rowLine, errMsg)
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"3 rows selected (0.2 seconds)", 3},
		{"1 row selected (0.2 seconds)", 1},
		{"No rows selected (0.2 seconds)", 0},
		{"something else", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := Count(tt.line); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

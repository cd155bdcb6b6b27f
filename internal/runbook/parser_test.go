package runbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hiveline/hiveline/internal/step"
	_ "github.com/hiveline/hiveline/internal/step/shell"
	_ "github.com/hiveline/hiveline/internal/step/sql"
)

const sampleRunbook = `
name: daily refresh
vars:
  table: events
steps:
  - name: add partition
    each_day: 679
    sql:
      query: "ALTER TABLE {{table}} ADD IF NOT EXISTS PARTITION (day={{day}})"
      queue: etl
  - name: count rows
    sql: "SELECT COUNT(*) FROM {{table}}"
    register: total
  - name: tidy scratch dir
    shell: "rm -rf /tmp/scratch"
    ignore_errors: true
`

func TestParse(t *testing.T) {
	rb, err := Parse([]byte(sampleRunbook))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if rb.Name != "daily refresh" {
		t.Errorf("Name = %q, want %q", rb.Name, "daily refresh")
	}
	if rb.Vars["table"] != "events" {
		t.Errorf("Vars[table] = %v, want events", rb.Vars["table"])
	}
	if len(rb.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(rb.Steps))
	}

	first := rb.Steps[0]
	if first.Type != "sql" {
		t.Errorf("step 1 type = %q, want sql", first.Type)
	}
	if first.EachDay != "679" {
		t.Errorf("step 1 EachDay = %q, want 679", first.EachDay)
	}
	if first.Params["queue"] != "etl" {
		t.Errorf("step 1 queue = %v, want etl", first.Params["queue"])
	}

	second := rb.Steps[1]
	if second.Register != "total" {
		t.Errorf("step 2 Register = %q, want total", second.Register)
	}
	if second.Params["query"] != "SELECT COUNT(*) FROM {{table}}" {
		t.Errorf("step 2 shorthand not expanded: %v", second.Params)
	}

	third := rb.Steps[2]
	if third.Type != "shell" {
		t.Errorf("step 3 type = %q, want shell", third.Type)
	}
	if !third.IgnoreErrors {
		t.Error("step 3 IgnoreErrors = false, want true")
	}
	if third.Params["cmd"] != "rm -rf /tmp/scratch" {
		t.Errorf("step 3 cmd = %v", third.Params["cmd"])
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh.yaml")
	if err := os.WriteFile(path, []byte(sampleRunbook), 0o644); err != nil {
		t.Fatal(err)
	}

	rb, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if rb.Path != path {
		t.Errorf("Path = %q, want %q", rb.Path, path)
	}
}

func TestParseNoSteps(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	if err == nil {
		t.Fatal("expected error for runbook without steps")
	}
	if !strings.Contains(err.Error(), "steps") {
		t.Errorf("error = %v, want mention of steps", err)
	}
}

func TestParseMultipleTypes(t *testing.T) {
	doc := `
steps:
  - sql: "SELECT 1"
    shell: "echo hi"
`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected error for step with two types")
	}
	if !strings.Contains(err.Error(), "multiple step types") {
		t.Errorf("error = %v", err)
	}
}

func TestParseEachDayVariable(t *testing.T) {
	doc := `
steps:
  - each_day: "{{ m }}"
    sql: "SELECT COUNT(*) FROM events WHERE day={{day}}"
`
	rb, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rb.Steps[0].EachDay != "{{ m }}" {
		t.Errorf("EachDay = %q, want the variable reference preserved", rb.Steps[0].EachDay)
	}
}

func TestParseEachDayBadValue(t *testing.T) {
	docs := map[string]string{
		"list":    "steps:\n  - each_day: [1, 2]\n    sql: \"SELECT 1\"\n",
		"bool":    "steps:\n  - each_day: true\n    sql: \"SELECT 1\"\n",
		"garbage": "steps:\n  - each_day: soon\n    sql: \"SELECT 1\"\n",
	}
	for name, doc := range docs {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error for invalid each_day value", name)
		}
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte(":\n  - not yaml")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestExpandShorthandKeyValue(t *testing.T) {
	s := &Step{
		Type:   "put",
		Params: map[string]any{"_raw": `src=/tmp/data.csv dest=/remote/data.csv mode=0600`},
	}
	ExpandShorthand(s)

	if s.Params["src"] != "/tmp/data.csv" {
		t.Errorf("src = %v", s.Params["src"])
	}
	if s.Params["dest"] != "/remote/data.csv" {
		t.Errorf("dest = %v", s.Params["dest"])
	}
	if s.Params["mode"] != "0600" {
		t.Errorf("mode = %v", s.Params["mode"])
	}
}

func TestExpandShorthandSQLWithEquals(t *testing.T) {
	s := &Step{
		Type:   "sql",
		Params: map[string]any{"_raw": "SELECT * FROM t WHERE day=19723"},
	}
	ExpandShorthand(s)

	if s.Params["query"] != "SELECT * FROM t WHERE day=19723" {
		t.Errorf("query = %v", s.Params["query"])
	}
}

func TestResolveType(t *testing.T) {
	if err := ResolveType(&Step{Type: "sql"}); err != nil {
		t.Errorf("ResolveType(sql) error = %v", err)
	}

	err := ResolveType(&Step{Type: "teleport"})
	if err == nil {
		t.Fatal("expected error for unknown step type")
	}
	for _, name := range step.List() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should list available type %q: %v", name, err)
		}
	}
}

package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hail-framework/framework-sub003/internal/redis/command"
)

// ============================================================
// TableFormatter Tests
// ============================================================

func TestTableFormatter_Format_Table(t *testing.T) {
	table := &Table{
		Headers: []string{"NAME", "VALUE"},
		Rows: [][]string{
			{"key1", "value1"},
			{"key2", "value2"},
		},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "key1") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestTableFormatter_Format_NoHeaders(t *testing.T) {
	table := Table{Headers: []string{"NAME"}, Rows: [][]string{{"data"}}}

	var buf bytes.Buffer
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "NAME") {
		t.Error("headers should be omitted")
	}
}

func TestTableFormatter_Format_Hash(t *testing.T) {
	data := map[string]any{"zeta": "1", "alpha": "2", "gone": false}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	wantOrder := []string{"KEY", "alpha", "gone", "zeta"}
	for i, w := range wantOrder {
		if !strings.HasPrefix(lines[i], w) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], w)
		}
	}
	if !strings.Contains(lines[2], "(false)") {
		t.Errorf("false cell rendered as %q", lines[2])
	}
}

func TestTableFormatter_Format_Array(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, []any{"a", int64(7), nil}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"#", "VALUE", "1", "a", "7", "(nil)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestTableFormatter_Format_ScanPage(t *testing.T) {
	page := command.ScanPage{Cursor: 42, Fields: map[string]any{"f": "v"}}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, page); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "cursor: 42\n") {
		t.Errorf("missing cursor line: %q", out)
	}
	if !strings.Contains(out, "KEY") || !strings.Contains(out, "f") {
		t.Errorf("missing fields table: %q", out)
	}
}

func TestTableFormatter_Format_Struct(t *testing.T) {
	data := struct {
		Version   string `json:"version"`
		GoVersion string
		Hidden    string `table:"-"`
		internal  string
	}{Version: "1.0", GoVersion: "go1.24", Hidden: "x", internal: "y"}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FIELD", "VERSION", "1.0", "GO_VERSION", "go1.24"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "HIDDEN") || strings.Contains(out, "INTERNAL") {
		t.Errorf("hidden fields rendered: %q", out)
	}
}

func TestTableFormatter_Format_Scalar(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, int64(3)); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.String() != "(integer) 3\n" {
		t.Errorf("scalar rendered as %q", buf.String())
	}
}

// ============================================================
// Table Tests
// ============================================================

func TestTable_Render(t *testing.T) {
	table := &Table{}
	table.SetHeaders("A", "B")
	table.AddRow("1", "2")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !reflect.DeepEqual(table.Rows, [][]string{{"1", "2"}}) {
		t.Errorf("rows = %v", table.Rows)
	}
	if got := buf.String(); got != "A  B\n1  2\n" {
		t.Errorf("Render() = %q", got)
	}
}

func TestFormatValue(t *testing.T) {
	str := "s"
	tests := []struct {
		name string
		v    any
		want string
	}{
		{name: "string", v: "x", want: "x"},
		{name: "int", v: 5, want: "5"},
		{name: "uint", v: uint64(5), want: "5"},
		{name: "float", v: 2.25, want: "2.25"},
		{name: "true", v: true, want: "OK"},
		{name: "empty slice", v: []string{}, want: "-"},
		{name: "slice", v: []int{1, 2}, want: "[2 items]"},
		{name: "map", v: map[string]int{"a": 1}, want: "{1 keys}"},
		{name: "pointer", v: &str, want: "s"},
		{name: "zero time", v: time.Time{}, want: "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(reflect.ValueOf(tt.v)); got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}

	if got := formatValue(reflect.Value{}); got != "(nil)" {
		t.Errorf("invalid value = %q", got)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Version":   "Version",
		"GoVersion": "Go_Version",
		"ID":        "I_D",
		"":          "",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

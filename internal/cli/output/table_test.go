package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestTable_Render(t *testing.T) {
	table := &Table{}
	table.SetHeaders("NAME", "VALUE")
	table.AddRow("environment", "PROD")
	table.AddRow("base_url", "https://api.example.test")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("header = %q", lines[0])
	}
	// Columns are aligned.
	if strings.Index(lines[1], "PROD") != strings.Index(lines[2], "https") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestTable_NoHeaders(t *testing.T) {
	table := &Table{Headers: []string{"A"}, Rows: [][]string{{"x"}}}

	var buf bytes.Buffer
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, table); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "x\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	expires := time.Date(2025, 6, 1, 9, 20, 0, 0, time.UTC)
	data := &sampleStatus{
		Authenticated: true,
		Environment:   "PROD",
		ExpiresAt:     expires,
		Remaining:     19*time.Minute + 400*time.Millisecond,
		Secret:        "hidden",
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"FIELD", "authenticated", "true", "PROD", expires.Format(TimeLayout), "19m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("json:\"-\" field was printed")
	}
}

func TestTableFormatter_MapSorted(t *testing.T) {
	data := map[string]any{"b": 2, "a": "one", "c": nil}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{"KEY", "a", "b", "c"}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
	if !strings.HasSuffix(lines[3], "-") {
		t.Errorf("nil value should render as -: %q", lines[3])
	}
}

func TestTableFormatter_SliceOfStructs(t *testing.T) {
	type row struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
		skip  string
	}
	data := []row{{Name: "login", Count: 2}, {Name: "renew", Count: 5}}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "NAME") || !strings.Contains(out, "COUNT") {
		t.Errorf("headers missing:\n%s", out)
	}
	if !strings.Contains(out, "renew") || !strings.Contains(out, "5") {
		t.Errorf("rows missing:\n%s", out)
	}
}

func TestTableFormatter_FallbackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	var nilPtr *string
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"empty string", "", "-"},
		{"string", "x", "x"},
		{"int", 7, "7"},
		{"float", 1.5, "1.5"},
		{"json number", json.Number("1234"), "1234"},
		{"bool", false, "false"},
		{"nil pointer", nilPtr, "-"},
		{"zero time", time.Time{}, "-"},
		{"duration", 90 * time.Second, "1m30s"},
		{"slice", []string{"a", "b"}, "a, b"},
		{"empty slice", []string{}, "-"},
		{"map", map[string]int{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(reflect.ValueOf(tt.in)); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

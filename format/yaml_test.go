package format

import "testing"

func TestParseYAML(t *testing.T) {
	input := `
speed: 2.5
count: 42
name: fast
quoted: "2.5"
enabled: true
missing:
nested:
  skip: 1
list:
  - a
  - b
`
	got, err := parseYAML([]byte(input))
	if err != nil {
		t.Fatalf("parseYAML failed: %v", err)
	}

	assertValues(t, got, map[string]string{
		"speed":   "2.5",
		"count":   "42",
		"name":    "fast",
		"quoted":  "2.5",
		"enabled": "true",
		"missing": "",
	})
}

func TestParseYAMLPreservesScalarText(t *testing.T) {
	got, err := parseYAML([]byte("a: 2.50\nb: 1e3\n"))
	if err != nil {
		t.Fatalf("parseYAML failed: %v", err)
	}
	if got["a"] != "2.50" {
		t.Errorf("a = %q, want source text %q", got["a"], "2.50")
	}
	if got["b"] != "1e3" {
		t.Errorf("b = %q, want source text %q", got["b"], "1e3")
	}
}

func TestParseYAMLExplicitNull(t *testing.T) {
	got, err := parseYAML([]byte("a: null\nb: ~\nkeep: 1\n"))
	if err != nil {
		t.Fatalf("parseYAML failed: %v", err)
	}
	if got["a"] != "" || got["b"] != "" {
		t.Errorf("null values = %q, %q, want empty strings", got["a"], got["b"])
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only comments", "# nothing here\n"},
		{"empty document", "---\n"},
		{"top-level scalar", "just a string\n"},
		{"top-level sequence", "- a\n- b\n"},
		{"invalid syntax", "a: [unclosed\n"},
		{"only nested", "outer:\n  inner: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseYAML([]byte(tt.input)); err == nil {
				t.Errorf("parseYAML(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	orig := map[string]string{
		"speed":   "2.5",
		"count":   "42",
		"name":    "fast mode",
		"enabled": "true",
		"blank":   "",
	}

	out, err := marshalYAML(orig)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	back, err := parseYAML(out)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	assertValues(t, back, orig)
}

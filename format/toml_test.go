package format

import (
	"strings"
	"testing"
)

func TestParseTOML(t *testing.T) {
	input := `
speed = 2.5
count = 42
name = "fast"
enabled = true
stamp = 2026-08-25T10:30:00Z

[nested]
skip = 1
`
	got, err := parseTOML([]byte(input))
	if err != nil {
		t.Fatalf("parseTOML failed: %v", err)
	}

	assertValues(t, got, map[string]string{
		"speed":   "2.5",
		"count":   "42",
		"name":    "fast",
		"enabled": "true",
		"stamp":   "2026-08-25T10:30:00Z",
	})
}

func TestParseTOMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only comments", "# nothing\n"},
		{"invalid syntax", "speed = \n"},
		{"only nested", "[table]\na = 1\n"},
		{"only arrays", "list = [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseTOML([]byte(tt.input)); err == nil {
				t.Errorf("parseTOML(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestMarshalTOML(t *testing.T) {
	out, err := marshalTOML(map[string]string{
		"speed":   "2.5",
		"count":   "42",
		"enabled": "true",
		"name":    "fast",
	})
	if err != nil {
		t.Fatalf("marshalTOML failed: %v", err)
	}

	text := string(out)
	if !strings.Contains(text, "speed = 2.5") {
		t.Errorf("output missing native float: %s", text)
	}
	if !strings.Contains(text, "count = 42") {
		t.Errorf("output missing native integer: %s", text)
	}
	if !strings.Contains(text, "enabled = true") {
		t.Errorf("output missing native boolean: %s", text)
	}
	if !strings.Contains(text, "name = 'fast'") && !strings.Contains(text, `name = "fast"`) {
		t.Errorf("output missing string value: %s", text)
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	orig := map[string]string{
		"speed":   "2.5",
		"count":   "42",
		"name":    "fast mode",
		"enabled": "true",
		"blank":   "",
	}

	out, err := marshalTOML(orig)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	back, err := parseTOML(out)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	assertValues(t, back, orig)
}

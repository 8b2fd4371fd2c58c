package format

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestTemplateYieldsNoValues(t *testing.T) {
	// A fresh template must parse with "no values" so bound parameters
	// keep their defaults until the user edits the file.
	formats := []Format{KeyValue, Plain, JSON, YAML, TOML, Lua}
	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			tmpl := Template(f)
			if len(tmpl) == 0 {
				t.Fatal("empty template")
			}
			if _, err := Parse(tmpl, f); err == nil {
				t.Error("template parsed to values, want none")
			}
		})
	}
}

func TestTemplateJSONIsValid(t *testing.T) {
	if !gjson.ValidBytes(Template(JSON)) {
		t.Errorf("JSON template is not valid JSON: %s", Template(JSON))
	}
}

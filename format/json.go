package format

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// parseJSON extracts the scalar members of a flat top-level JSON object.
// Strings are taken as-is, numbers keep their source text, booleans
// become "true"/"false", null becomes "". Nested objects and arrays are
// skipped. Anything other than an object at the top level is an error.
func parseJSON(data []byte) (map[string]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Format: JSON, Message: "invalid JSON"}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Format: JSON, Message: "top-level value is not an object"}
	}

	result := make(map[string]string)
	root.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			result[key.String()] = value.Str
		case gjson.Number:
			// Keep the source text so "2.5" stays "2.5".
			result[key.String()] = value.Raw
		case gjson.True:
			result[key.String()] = "true"
		case gjson.False:
			result[key.String()] = "false"
		case gjson.Null:
			result[key.String()] = ""
		default:
			// Nested objects and arrays are not flat values.
		}
		return true
	})

	if len(result) == 0 {
		return nil, &ParseError{Format: JSON, Message: "no scalar members in object"}
	}
	return result, nil
}

// marshalJSON builds a flat JSON object from values, preserving numeric
// and boolean literals as JSON types, and pretty-prints the result.
func marshalJSON(values map[string]string) ([]byte, error) {
	out := []byte("{}")
	var err error
	for _, k := range sortedKeys(values) {
		v := values[k]
		if raw, ok := jsonLiteral(v); ok {
			out, err = sjson.SetRawBytes(out, escapeKey(k), raw)
		} else {
			out, err = sjson.SetBytes(out, escapeKey(k), v)
		}
		if err != nil {
			return nil, &ParseError{Format: JSON, Message: "building object", Err: err}
		}
	}
	return pretty.PrettyOptions(out, &pretty.Options{Indent: "  ", SortKeys: true}), nil
}

// jsonLiteral reports whether v can be embedded as a bare JSON number or
// boolean, returning the raw bytes to embed.
func jsonLiteral(v string) ([]byte, bool) {
	if v == "true" || v == "false" {
		return []byte(v), true
	}
	if gjson.Valid(v) {
		if r := gjson.Parse(v); r.Type == gjson.Number {
			return []byte(v), true
		}
	}
	return nil, false
}

// escapeKey protects sjson path metacharacters in a literal key name.
func escapeKey(k string) string {
	var out []byte
	for i := 0; i < len(k); i++ {
		switch k[i] {
		case '.', '*', '?', '|', '#', '@', '\\':
			out = append(out, '\\')
		}
		out = append(out, k[i])
	}
	return string(out)
}

// Package format parses configuration file content into flat string maps.
//
// The package is the parsing collaborator for the update pipeline: it turns
// raw bytes into a name-to-string map and back, with the file format either
// stated explicitly or detected from the file extension. Parsed values are
// plain strings; typed interpretation belongs to the caller.
//
// Supported formats:
//
//	KeyValue  key = value lines, ; and # comments, [sections] ignored
//	Plain     a bare scalar per line, for single-value files
//	JSON      a flat top-level object
//	YAML      a flat top-level mapping
//	TOML      a flat top-level table
//	Lua       a script returning a table, or setting globals
package format

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Format identifies a configuration file format.
type Format uint8

const (
	// Auto detects the format from the file extension.
	Auto Format = iota
	// Plain is a bare scalar value per line.
	Plain
	// KeyValue is line-oriented key = value (INI-style).
	KeyValue
	// JSON is a flat top-level JSON object.
	JSON
	// YAML is a flat top-level YAML mapping.
	YAML
	// TOML is a flat top-level TOML table.
	TOML
	// Lua is a Lua script evaluated for its scalar results.
	Lua
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case Auto:
		return "auto"
	case Plain:
		return "plain"
	case KeyValue:
		return "keyvalue"
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	case Lua:
		return "lua"
	default:
		return "unknown"
	}
}

// Detect returns the format for path based on its extension. Unknown
// extensions detect as KeyValue; Plain is never detected, only requested.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	case ".toml":
		return TOML
	case ".lua":
		return Lua
	default:
		// .ini, .cfg, .conf, .txt and everything else.
		return KeyValue
	}
}

// Resolve replaces Auto with the detected format for path.
func Resolve(f Format, path string) Format {
	if f == Auto {
		return Detect(path)
	}
	return f
}

// ParseError describes a failure to parse file content.
type ParseError struct {
	// Format is the format that was being parsed.
	Format Format
	// Message describes the parse error.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s): %s", e.Format, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse converts raw file content into a flat name-to-string map.
// Auto parses as KeyValue, the package default; callers that know the
// file path should Resolve first.
func Parse(data []byte, f Format) (map[string]string, error) {
	switch f {
	case JSON:
		return parseJSON(data)
	case YAML:
		return parseYAML(data)
	case TOML:
		return parseTOML(data)
	case Lua:
		return parseLua(data)
	default:
		// KeyValue, Plain and Auto share the line parser.
		return parseKeyValue(data)
	}
}

// Marshal renders values in the given format. Keys are emitted in sorted
// order. Lua files are read-only and return an error.
func Marshal(values map[string]string, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return marshalJSON(values)
	case YAML:
		return marshalYAML(values)
	case TOML:
		return marshalTOML(values)
	case Lua:
		return nil, &ParseError{Format: Lua, Message: "lua files are read-only"}
	default:
		return marshalKeyValue(values)
	}
}

// sortedKeys returns the keys of values in sorted order.
func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// inferScalar maps a canonical string value back to a typed scalar for
// emitters with native numbers and booleans. Only decimal number syntax
// is recognized; "Inf", "NaN" and hex floats stay strings.
func inferScalar(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if !decimalLike(s) {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// decimalLike reports whether s could be a plain decimal number.
func decimalLike(s string) bool {
	if s == "" {
		return false
	}
	hasDigit := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return hasDigit
}

// canonicalNumber renders a float in its shortest round-trip form.
func canonicalNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

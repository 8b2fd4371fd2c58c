package format

import (
	"strings"
)

// parseKeyValue parses line-oriented key = value content. Rules, applied
// per trimmed line: empty lines and lines starting with # or ; are
// comments; bare "---" and "..." document markers are skipped; [section]
// headers are skipped; the separator is the first '=', falling back to
// the first ':'; surrounding quotes are stripped from values; lines
// without a separator or key are ignored.
func parseKeyValue(data []byte) (map[string]string, error) {
	result := make(map[string]string)

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)

		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line == "---" || line == "..." {
			continue
		}
		if line[0] == '[' && line[len(line)-1] == ']' {
			continue
		}

		sep := strings.IndexByte(line, '=')
		if sep < 0 {
			sep = strings.IndexByte(line, ':')
		}
		if sep < 0 {
			continue
		}

		key := strings.TrimSpace(line[:sep])
		value := stripQuotes(strings.TrimSpace(line[sep+1:]))
		if key != "" {
			result[key] = value
		}
	}

	if len(result) == 0 {
		return nil, &ParseError{Format: KeyValue, Message: "no key = value pairs found"}
	}
	return result, nil
}

// marshalKeyValue renders values as sorted "key = value" lines. Values
// that would not survive the line parser bare are double-quoted.
func marshalKeyValue(values map[string]string) ([]byte, error) {
	var b strings.Builder
	for _, k := range sortedKeys(values) {
		v := values[k]
		if needsQuoting(v) {
			v = `"` + v + `"`
		}
		b.WriteString(k)
		b.WriteString(" = ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// needsQuoting reports whether a bare value would be mangled by the line
// parser: surrounding whitespace is trimmed, a leading quote is stripped,
// a leading # or ; comments the line out, and an empty value vanishes.
func needsQuoting(v string) bool {
	if v == "" {
		return true
	}
	if strings.TrimSpace(v) != v {
		return true
	}
	switch v[0] {
	case '"', '\'', '#', ';', '[':
		return true
	}
	return false
}

// stripQuotes removes one matching pair of surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// ScalarLines returns the candidate value lines of a Plain file: each
// line trimmed, with blank lines and # or ; comments removed. Quotes are
// left intact for the typed conversion to strip.
func ScalarLines(data []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

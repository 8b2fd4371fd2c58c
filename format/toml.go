package format

import (
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// parseTOML extracts the scalar entries of a flat top-level TOML table.
// Integers, floats and booleans are converted to their canonical text;
// datetimes become RFC 3339 strings. Nested tables and arrays are
// skipped.
func parseTOML(data []byte) (map[string]string, error) {
	var table map[string]any
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, &ParseError{Format: TOML, Message: err.Error(), Err: err}
	}

	result := make(map[string]string)
	for key, value := range table {
		switch v := value.(type) {
		case string:
			result[key] = v
		case int64:
			result[key] = strconv.FormatInt(v, 10)
		case float64:
			result[key] = canonicalNumber(v)
		case bool:
			result[key] = strconv.FormatBool(v)
		case time.Time:
			result[key] = v.Format(time.RFC3339)
		default:
			// Nested tables, arrays and local dates are not flat values.
		}
	}

	if len(result) == 0 {
		return nil, &ParseError{Format: TOML, Message: "no scalar entries in table"}
	}
	return result, nil
}

// marshalTOML renders values as a flat table, restoring native number
// and boolean types where the text allows it. go-toml emits table keys
// in sorted order.
func marshalTOML(values map[string]string) ([]byte, error) {
	typed := make(map[string]any, len(values))
	for k, v := range values {
		typed[k] = inferScalar(v)
	}
	out, err := toml.Marshal(typed)
	if err != nil {
		return nil, &ParseError{Format: TOML, Message: "encoding table", Err: err}
	}
	return out, nil
}

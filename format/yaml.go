package format

import (
	"gopkg.in/yaml.v3"
)

// parseYAML extracts the scalar entries of a flat top-level YAML mapping.
// Scalars keep their source text, so "speed: 2.5" yields "2.5" exactly.
// Null values become "". Nested mappings and sequences are skipped.
func parseYAML(data []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Format: YAML, Message: err.Error(), Err: err}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{Format: YAML, Message: "empty document"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Format: YAML, Message: "top-level value is not a mapping"}
	}

	result := make(map[string]string)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			continue
		}
		if value.Tag == "!!null" {
			result[key.Value] = ""
		} else {
			result[key.Value] = value.Value
		}
	}

	if len(result) == 0 {
		return nil, &ParseError{Format: YAML, Message: "no scalar entries in mapping"}
	}
	return result, nil
}

// marshalYAML renders values as a flat mapping, restoring native number
// and boolean types where the text allows it.
func marshalYAML(values map[string]string) ([]byte, error) {
	typed := make(map[string]any, len(values))
	for k, v := range values {
		typed[k] = inferScalar(v)
	}
	out, err := yaml.Marshal(typed)
	if err != nil {
		return nil, &ParseError{Format: YAML, Message: "encoding mapping", Err: err}
	}
	return out, nil
}

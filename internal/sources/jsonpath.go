package sources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// splitFragment separates an optional #.json.path fragment from a reference.
// Backends that store whole JSON documents use the fragment to address a
// nested value.
func splitFragment(ref string) (base, jsonPath string) {
	if idx := strings.Index(ref, "#"); idx != -1 {
		return ref[:idx], ref[idx+1:]
	}
	return ref, ""
}

// extractJSONPath extracts a value from a JSON document using a dotted path
// like .db.password. Array elements are addressed by index. Complex values
// are re-serialized as JSON so a sub-object can itself be a secret payload.
func extractJSONPath(jsonStr, path string) (string, error) {
	if !strings.HasPrefix(path, ".") {
		return "", fmt.Errorf("JSON path must start with '.'")
	}

	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	parts := strings.Split(strings.TrimPrefix(path, "."), ".")

	current := data
	for _, part := range parts {
		if part == "" {
			continue
		}

		switch v := current.(type) {
		case map[string]any:
			val, exists := v[part]
			if !exists {
				return "", fmt.Errorf("field %q not found in JSON", part)
			}
			current = val
		case []any:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 || index >= len(v) {
				return "", fmt.Errorf("invalid array index %q", part)
			}
			current = v[index]
		default:
			return "", fmt.Errorf("cannot navigate into non-object at %q", part)
		}
	}

	switch v := current.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal result: %w", err)
		}
		return string(bytes), nil
	}
}

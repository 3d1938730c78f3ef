package secretmap

import (
	"encoding/json"
	"strings"
)

// Decode parses a raw payload into a generic structured value. The payload
// is trimmed of surrounding whitespace, stripped of every literal backslash
// (a blunt escape-stripping step, not an unescape), unwrapped from at most
// one matching pair of surrounding double or single quotes, and then parsed
// as JSON. The result is opaque until shape-validated.
//
// An empty payload yields *MissingPayloadError; a parse failure yields
// *InvalidJSONError wrapping the underlying message.
func Decode(name, payload string) (any, error) {
	if payload == "" {
		return nil, &MissingPayloadError{Name: name}
	}

	text := strings.TrimSpace(payload)
	text = strings.ReplaceAll(text, `\`, "")
	text = stripQuotePair(text)

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, &InvalidJSONError{Name: name, Err: err}
	}
	return value, nil
}

// stripQuotePair removes exactly one pair of matching surrounding quote
// characters. It never recurses: a doubly wrapped payload keeps its inner
// layer.
func stripQuotePair(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last {
		return s
	}
	if first == '"' || first == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

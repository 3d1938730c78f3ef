package secretmap

// ValidShape reports whether a decoded value matches the structural
// expectations of a kind. It never returns an error: non-objects, null
// values, and unknown kinds are simply false.
//
// For the fixed kinds every required field must be present with a text
// value; extra fields are permitted and ignored. For key_value, every value
// in the object must be text (keys are unconstrained).
func ValidShape(value any, kind Kind) bool {
	obj, ok := value.(map[string]any)
	if !ok || obj == nil {
		return false
	}

	switch kind {
	case KindBasicCredentials, KindDatabaseCredentials, KindSSHKey:
		for _, field := range requiredFields[kind] {
			v, present := obj[field]
			if !present {
				return false
			}
			if _, isText := v.(string); !isText {
				return false
			}
		}
		return true

	case KindKeyValue:
		for _, v := range obj {
			if _, isText := v.(string); !isText {
				return false
			}
		}
		return true

	default:
		return false
	}
}

package secretmap

import "fmt"

// Kind identifies one of the recognized secret shapes.
type Kind string

// The closed set of secret kinds.
const (
	KindBasicCredentials    Kind = "basic_credentials"
	KindDatabaseCredentials Kind = "database_credentials"
	KindKeyValue            Kind = "key_value"
	KindSSHKey              Kind = "ssh_key"
)

// requiredFields lists the fields every payload of a kind must carry, all of
// primitive text type. key_value has no fixed field set and is absent here.
var requiredFields = map[Kind][]string{
	KindBasicCredentials:    {"username", "password"},
	KindDatabaseCredentials: {"engine", "username", "password", "host", "dbname", "port"},
	KindSSHKey:              {"ssh_private_key"},
}

// defaultMappings fixes the field → variable projection per kind. key_value
// has no default; callers must supply its mapping in full.
var defaultMappings = map[Kind]Mapping{
	KindBasicCredentials: {
		"username": "USERNAME",
		"password": "PASSWORD",
	},
	KindDatabaseCredentials: {
		"engine":   "DB_ENGINE",
		"username": "DB_USERNAME",
		"password": "DB_PASSWORD",
		"host":     "DB_HOST",
		"dbname":   "DB_NAME",
		"port":     "DB_PORT",
	},
	KindSSHKey: {
		"ssh_private_key": "SSH_PRIVATE_KEY",
	},
}

// Kinds returns all recognized kinds in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindBasicCredentials,
		KindDatabaseCredentials,
		KindKeyValue,
		KindSSHKey,
	}
}

// ParseKind converts a string into a Kind, rejecting anything outside the
// closed set.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown secret kind %q (expected one of: %s, %s, %s, %s)",
			s, KindBasicCredentials, KindDatabaseCredentials, KindKeyValue, KindSSHKey)
	}
	return k, nil
}

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBasicCredentials, KindDatabaseCredentials, KindKeyValue, KindSSHKey:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// RequiredFields returns the fields a payload of this kind must carry, in
// the shape table's order. It returns nil for key_value (no fixed set) and
// for unknown kinds.
func (k Kind) RequiredFields() []string {
	fields, ok := requiredFields[k]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// DefaultMapping returns a copy of the kind's built-in field → variable
// mapping. key_value and unknown kinds yield an empty mapping.
func DefaultMapping(kind Kind) Mapping {
	return defaultMappings[kind].Clone()
}

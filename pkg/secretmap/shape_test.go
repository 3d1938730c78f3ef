package secretmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/secretmap/pkg/secretmap"
)

func TestValidShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		kind     secretmap.Kind
		expected bool
	}{
		{
			name:     "basic credentials complete",
			value:    map[string]any{"username": "a", "password": "b"},
			kind:     secretmap.KindBasicCredentials,
			expected: true,
		},
		{
			name:     "basic credentials with extra fields",
			value:    map[string]any{"username": "a", "password": "b", "note": "extra", "attempts": float64(3)},
			kind:     secretmap.KindBasicCredentials,
			expected: true,
		},
		{
			name:     "basic credentials missing password",
			value:    map[string]any{"username": "a"},
			kind:     secretmap.KindBasicCredentials,
			expected: false,
		},
		{
			name:     "basic credentials non-string password",
			value:    map[string]any{"username": "a", "password": float64(123)},
			kind:     secretmap.KindBasicCredentials,
			expected: false,
		},
		{
			name:     "basic credentials null username",
			value:    map[string]any{"username": nil, "password": "b"},
			kind:     secretmap.KindBasicCredentials,
			expected: false,
		},
		{
			name: "database credentials complete",
			value: map[string]any{
				"engine": "postgres", "username": "app", "password": "pw",
				"host": "db.internal", "dbname": "orders", "port": "5432",
			},
			kind:     secretmap.KindDatabaseCredentials,
			expected: true,
		},
		{
			name: "database credentials missing dbname",
			value: map[string]any{
				"engine": "postgres", "username": "app", "password": "pw",
				"host": "db.internal", "port": "5432",
			},
			kind:     secretmap.KindDatabaseCredentials,
			expected: false,
		},
		{
			name: "database credentials numeric port",
			value: map[string]any{
				"engine": "postgres", "username": "app", "password": "pw",
				"host": "db.internal", "dbname": "orders", "port": float64(5432),
			},
			kind:     secretmap.KindDatabaseCredentials,
			expected: false,
		},
		{
			name:     "key value all strings",
			value:    map[string]any{"API_URL": "https://api", "API_TOKEN": "t"},
			kind:     secretmap.KindKeyValue,
			expected: true,
		},
		{
			name:     "key value empty object",
			value:    map[string]any{},
			kind:     secretmap.KindKeyValue,
			expected: true,
		},
		{
			name:     "key value with numeric value",
			value:    map[string]any{"API_URL": "https://api", "RETRIES": float64(5)},
			kind:     secretmap.KindKeyValue,
			expected: false,
		},
		{
			name:     "key value with nested object",
			value:    map[string]any{"outer": map[string]any{"inner": "x"}},
			kind:     secretmap.KindKeyValue,
			expected: false,
		},
		{
			name:     "ssh key complete",
			value:    map[string]any{"ssh_private_key": "-----BEGIN KEY-----"},
			kind:     secretmap.KindSSHKey,
			expected: true,
		},
		{
			name:     "ssh key missing field",
			value:    map[string]any{"public_key": "ssh-ed25519 AAA"},
			kind:     secretmap.KindSSHKey,
			expected: false,
		},
		{
			name:     "json string is not an object",
			value:    "just a string",
			kind:     secretmap.KindKeyValue,
			expected: false,
		},
		{
			name:     "json number is not an object",
			value:    float64(42),
			kind:     secretmap.KindBasicCredentials,
			expected: false,
		},
		{
			name:     "json array is not an object",
			value:    []any{"a", "b"},
			kind:     secretmap.KindKeyValue,
			expected: false,
		},
		{
			name:     "null value",
			value:    nil,
			kind:     secretmap.KindSSHKey,
			expected: false,
		},
		{
			name:     "unknown kind",
			value:    map[string]any{"username": "a", "password": "b"},
			kind:     secretmap.Kind("certificate"),
			expected: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, secretmap.ValidShape(tt.value, tt.kind))
		})
	}
}

func TestValidShapeNeverPanics(t *testing.T) {
	t.Parallel()

	values := []any{
		nil,
		"",
		float64(0),
		true,
		[]any{},
		map[string]any(nil),
		map[string]any{"": nil},
	}
	for _, kind := range append(secretmap.Kinds(), secretmap.Kind("bogus")) {
		for _, value := range values {
			assert.NotPanics(t, func() {
				secretmap.ValidShape(value, kind)
			})
		}
	}
}

package sources_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretmap/internal/config"
	"github.com/systmms/secretmap/internal/sources"
	"github.com/systmms/secretmap/tests/fakes"
)

func TestParseRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantScheme string
		wantRef    string
		wantErr    bool
	}{
		{
			name:       "aws_secrets_manager",
			raw:        "aws-sm://prod/db-credentials",
			wantScheme: "aws-sm",
			wantRef:    "prod/db-credentials",
		},
		{
			name:       "environment_variable",
			raw:        "env://DATABASE_JSON",
			wantScheme: "env",
			wantRef:    "DATABASE_JSON",
		},
		{
			name:       "ref_contains_url",
			raw:        `literal://{"host":"postgres://db:5432"}`,
			wantScheme: "literal",
			wantRef:    `{"host":"postgres://db:5432"}`,
		},
		{
			name:       "ref_with_fragment",
			raw:        "gcp-sm://app-config#database",
			wantScheme: "gcp-sm",
			wantRef:    "app-config#database",
		},
		{
			name:    "missing_separator",
			raw:     "aws-sm:prod/db",
			wantErr: true,
		},
		{
			name:    "empty_scheme",
			raw:     "://prod/db",
			wantErr: true,
		},
		{
			name:    "empty_ref",
			raw:     "aws-sm://",
			wantErr: true,
		},
		{
			name:    "empty_string",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scheme, ref, err := sources.ParseRef(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.wantRef, ref)
		})
	}
}

func TestRegistryKnowsAllSchemes(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry(sources.Options{Defaults: config.Defaults{}})

	want := []string{
		"akeyless", "aws-sm", "aws-ssm", "azure-kv",
		"env", "file", "gcp-sm", "keyring", "literal",
	}
	assert.Equal(t, want, registry.Schemes())

	for _, scheme := range want {
		assert.True(t, registry.IsSupported(scheme), scheme)
	}
	assert.False(t, registry.IsSupported("vault"))
}

func TestRegistryUnknownScheme(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry(sources.Options{})

	_, err := registry.Get("vault")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault")
	assert.Contains(t, err.Error(), "aws-sm")
}

func TestRegistryMemoizesInstances(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry(sources.Options{})

	first, err := registry.Get("literal")
	require.NoError(t, err)
	second, err := registry.Get("literal")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestRegistryFactoryOverride(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry(sources.Options{})

	original, err := registry.Get("env")
	require.NoError(t, err)

	fake := fakes.NewFakeSource("env").WithValue("PAYLOAD", `{"a":"b"}`)
	registry.RegisterFactory("env", fake.Factory)

	replaced, err := registry.Get("env")
	require.NoError(t, err)
	assert.NotSame(t, original, replaced)

	value, err := replaced.Fetch(context.Background(), "PAYLOAD")
	require.NoError(t, err)
	assert.Equal(t, `{"a":"b"}`, value)
}

func TestRegistryForRef(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry(sources.Options{})
	fake := fakes.NewFakeSource("fake").WithValue("prod/db", `{"username":"app"}`)
	registry.RegisterFactory("fake", fake.Factory)

	src, ref, err := registry.ForRef("fake://prod/db")
	require.NoError(t, err)
	assert.Equal(t, "fake", src.Scheme())
	assert.Equal(t, "prod/db", ref)

	value, err := src.Fetch(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, `{"username":"app"}`, value)

	_, _, err = registry.ForRef("no-scheme")
	assert.Error(t, err)
}

func TestFakeSourceNotFound(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSource("fake")

	_, err := fake.Fetch(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, sources.IsNotFound(err))

	var notFound *sources.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "fake", notFound.Source)
	assert.Equal(t, "missing", notFound.Ref)
}

package sources_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/secretmap/internal/config"
	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/sources"
	"github.com/systmms/secretmap/tests/fakes"
)

func newGCPSource(t *testing.T, fake *fakes.FakeSecretManagerServer, project string) *sources.GCPSource {
	t.Helper()

	src, err := sources.NewGCPSource(context.Background(), sources.Options{
		Defaults: config.Defaults{GCP: &config.GCPDefaults{Project: project}},
	}, sources.WithGCPClient(fake.Client(t)))
	require.NoError(t, err)
	return src
}

func TestGCPFetch(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSecretManagerServer()
	fake.AddSecretString("acme-prod", "db-credentials", "3", `{"engine":"postgres","password":"pw"}`)

	src := newGCPSource(t, fake, "acme-prod")

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "latest_by_default",
			ref:  "db-credentials",
			want: `{"engine":"postgres","password":"pw"}`,
		},
		{
			name: "pinned_version",
			ref:  "db-credentials@3",
			want: `{"engine":"postgres","password":"pw"}`,
		},
		{
			name: "json_path_fragment",
			ref:  "db-credentials#.engine",
			want: "postgres",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := src.Fetch(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGCPFetchNotFound(t *testing.T) {
	t.Parallel()

	src := newGCPSource(t, fakes.NewFakeSecretManagerServer(), "acme-prod")

	_, err := src.Fetch(context.Background(), "missing-secret")
	require.Error(t, err)
	assert.True(t, sources.IsNotFound(err))

	var notFound *sources.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "gcp-sm", notFound.Source)
}

func TestGCPFetchPermissionDenied(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSecretManagerServer()
	fake.AddError("projects/acme-prod/secrets/locked/versions/latest",
		status.Error(codes.PermissionDenied, "caller lacks secretmanager.versions.access"))

	src := newGCPSource(t, fake, "acme-prod")

	_, err := src.Fetch(context.Background(), "locked")
	assert.True(t, sources.IsAuthError(err))
}

func TestGCPHealthy(t *testing.T) {
	t.Parallel()

	t.Run("reachable", func(t *testing.T) {
		t.Parallel()

		fake := fakes.NewFakeSecretManagerServer()
		fake.AddSecretString("acme-prod", "db-credentials", "1", "x")

		src := newGCPSource(t, fake, "acme-prod")
		assert.NoError(t, src.Healthy(context.Background()))
	})

	t.Run("empty_project_is_healthy", func(t *testing.T) {
		t.Parallel()

		src := newGCPSource(t, fakes.NewFakeSecretManagerServer(), "acme-prod")
		assert.NoError(t, src.Healthy(context.Background()))
	})

	t.Run("permission_denied", func(t *testing.T) {
		t.Parallel()

		fake := fakes.NewFakeSecretManagerServer()
		fake.AddError("projects/acme-prod",
			status.Error(codes.PermissionDenied, "caller lacks secretmanager.secrets.list"))

		src := newGCPSource(t, fake, "acme-prod")
		err := src.Healthy(context.Background())
		assert.True(t, sources.IsAuthError(err))
	})
}

func TestGCPProjectResolution(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("GCLOUD_PROJECT", "")
	t.Setenv("GCP_PROJECT", "")

	_, err := sources.NewGCPSource(context.Background(), sources.Options{})
	require.Error(t, err)

	var cfgErr *smerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "defaults.gcp.project", cfgErr.Field)

	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-project")

	fake := fakes.NewFakeSecretManagerServer()
	fake.AddSecretString("env-project", "api-key", "1", "k-123")

	src, err := sources.NewGCPSource(context.Background(), sources.Options{},
		sources.WithGCPClient(fake.Client(t)))
	require.NoError(t, err)

	value, err := src.Fetch(context.Background(), "api-key")
	require.NoError(t, err)
	assert.Equal(t, "k-123", value)
}

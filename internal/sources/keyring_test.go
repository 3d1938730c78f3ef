package sources_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/secretmap/internal/sources"
)

func newKeyringSource(t *testing.T) sources.Source {
	t.Helper()

	keyring.MockInit()

	src, err := sources.NewKeyringSourceFactory(sources.Options{})
	require.NoError(t, err)
	return src
}

func TestKeyringFetch(t *testing.T) {
	src := newKeyringSource(t)

	require.NoError(t, keyring.Set("secretmap-test", "db", `{"username":"app","password":"pw"}`))

	value, err := src.Fetch(context.Background(), "secretmap-test/db")
	require.NoError(t, err)
	assert.Equal(t, `{"username":"app","password":"pw"}`, value)

	value, err = src.Fetch(context.Background(), "secretmap-test/db#.username")
	require.NoError(t, err)
	assert.Equal(t, "app", value)
}

func TestKeyringFetchAccountWithSlash(t *testing.T) {
	src := newKeyringSource(t)

	require.NoError(t, keyring.Set("secretmap-test", "prod/db", "payload"))

	value, err := src.Fetch(context.Background(), "secretmap-test/prod/db")
	require.NoError(t, err)
	assert.Equal(t, "payload", value)
}

func TestKeyringFetchNotFound(t *testing.T) {
	src := newKeyringSource(t)

	_, err := src.Fetch(context.Background(), "secretmap-test/absent")
	require.Error(t, err)
	assert.True(t, sources.IsNotFound(err))

	var notFound *sources.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "keyring", notFound.Source)
	assert.Equal(t, "secretmap-test/absent", notFound.Ref)
}

func TestKeyringInvalidRef(t *testing.T) {
	src := newKeyringSource(t)

	for _, ref := range []string{"no-account", "service/", "/account"} {
		_, err := src.Fetch(context.Background(), ref)
		require.Error(t, err, ref)
		assert.Contains(t, err.Error(), "expected service/account")
	}
}

package varstore_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretmap/pkg/varstore"
)

func TestStoreSetAndLookup(t *testing.T) {
	t.Parallel()

	s := varstore.New()

	s.Set("DB_HOST", "db.internal")
	s.Set("DB_PORT", "5432")

	v, ok := s.Lookup("DB_HOST")
	require.True(t, ok)
	assert.Equal(t, "db.internal", v)

	assert.Equal(t, "5432", s.Get("DB_PORT"))
	assert.Equal(t, 2, s.Len())

	_, ok = s.Lookup("MISSING")
	assert.False(t, ok)
	assert.Empty(t, s.Get("MISSING"))
}

func TestStoreSetOverwrites(t *testing.T) {
	t.Parallel()

	s := varstore.New()
	s.Set("TOKEN", "first")
	s.Set("TOKEN", "second")

	assert.Equal(t, "second", s.Get("TOKEN"))
	assert.Equal(t, 1, s.Len())
}

func TestStoreEmptyValueIsSet(t *testing.T) {
	t.Parallel()

	s := varstore.New()
	s.Set("EMPTY", "")

	v, ok := s.Lookup("EMPTY")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestStoreHasTracksDecodedCache(t *testing.T) {
	t.Parallel()

	s := varstore.New()

	// Variables alone do not make a secret "decoded".
	s.Set("USERNAME", "alice")
	assert.False(t, s.Has("app-login"))

	s.MarkDecoded("app-login", map[string]any{"username": "alice"})
	assert.True(t, s.Has("app-login"))
	assert.False(t, s.Has("other-secret"))

	decoded, ok := s.Decoded("app-login")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"username": "alice"}, decoded)
}

func TestStoreMarkDecodedLastWriteWins(t *testing.T) {
	t.Parallel()

	s := varstore.New()
	s.MarkDecoded("db", map[string]any{"host": "old"})
	s.MarkDecoded("db", map[string]any{"host": "new"})

	decoded, ok := s.Decoded("db")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"host": "new"}, decoded)
}

func TestStoreNamesSorted(t *testing.T) {
	t.Parallel()

	s := varstore.New()
	s.Set("ZULU", "z")
	s.Set("ALPHA", "a")
	s.Set("MIKE", "m")

	assert.Equal(t, []string{"ALPHA", "MIKE", "ZULU"}, s.Names())
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	s := varstore.New()
	s.Set("KEY", "value")

	snap := s.Snapshot()
	snap["KEY"] = "mutated"
	snap["NEW"] = "added"

	assert.Equal(t, "value", s.Get("KEY"))
	_, ok := s.Lookup("NEW")
	assert.False(t, ok)
}

func TestStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := varstore.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("VAR_%d", n)
			s.Set(name, "value")
			s.MarkDecoded(fmt.Sprintf("secret-%d", n), n)
			_ = s.Get(name)
			_ = s.Has(fmt.Sprintf("secret-%d", n))
			_ = s.Names()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	for i := 0; i < 50; i++ {
		assert.True(t, s.Has(fmt.Sprintf("secret-%d", i)))
	}
}

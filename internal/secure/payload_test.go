package secure_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretmap/internal/secure"
)

func TestPayloadExpose(t *testing.T) {
	t.Parallel()

	p := secure.NewPayload(`{"username":"app","password":"pw"}`)
	defer p.Destroy()

	var seen string
	err := p.Expose(func(value string) error {
		seen = string([]byte(value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, `{"username":"app","password":"pw"}`, seen)
}

func TestPayloadExposeRepeatedly(t *testing.T) {
	t.Parallel()

	p := secure.NewPayload("payload")
	defer p.Destroy()

	for i := 0; i < 3; i++ {
		err := p.Expose(func(value string) error {
			assert.Equal(t, "payload", value)
			return nil
		})
		require.NoError(t, err)
	}
}

func TestPayloadExposePropagatesError(t *testing.T) {
	t.Parallel()

	p := secure.NewPayload("payload")
	defer p.Destroy()

	sentinel := errors.New("apply failed")
	err := p.Expose(func(string) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestPayloadLen(t *testing.T) {
	t.Parallel()

	p := secure.NewPayload("12345")
	assert.Equal(t, 5, p.Len())

	p.Destroy()
	assert.Zero(t, p.Len())
}

func TestPayloadEmpty(t *testing.T) {
	t.Parallel()

	p := secure.NewPayload("")
	defer p.Destroy()

	assert.Zero(t, p.Len())

	err := p.Expose(func(value string) error {
		assert.Empty(t, value)
		return nil
	})
	assert.NoError(t, err)
}

func TestPayloadDestroyedExposeFails(t *testing.T) {
	t.Parallel()

	p := secure.NewPayload("payload")
	p.Destroy()
	p.Destroy()

	err := p.Expose(func(string) error { return nil })
	assert.ErrorIs(t, err, secure.ErrDestroyed)
}

func TestPayloadConcurrentExpose(t *testing.T) {
	t.Parallel()

	p := secure.NewPayload("shared")
	defer p.Destroy()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Expose(func(value string) error {
				if value != "shared" {
					return errors.New("corrupted read")
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

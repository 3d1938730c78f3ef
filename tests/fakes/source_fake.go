package fakes

import (
	"context"
	"sync"
	"time"

	"github.com/systmms/secretmap/internal/sources"
)

// FakeSource is a configurable in-memory source for runner and command
// tests. It is safe for concurrent use.
//
//	src := fakes.NewFakeSource("fake").
//	    WithValue("prod/db", `{"username":"app","password":"pw"}`).
//	    WithError("broken", errors.New("connection reset"))
type FakeSource struct {
	scheme string

	mu     sync.Mutex
	values map[string]string
	errors map[string]error
	calls  map[string]int

	// Delay simulates backend latency on every fetch.
	Delay time.Duration
	// HealthyErr is returned by Healthy.
	HealthyErr error
}

// NewFakeSource creates an empty fake answering to the given scheme.
func NewFakeSource(scheme string) *FakeSource {
	return &FakeSource{
		scheme: scheme,
		values: make(map[string]string),
		errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// WithValue registers a payload for a reference.
func (f *FakeSource) WithValue(ref, value string) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[ref] = value
	return f
}

// WithError makes a reference fail with the given error.
func (f *FakeSource) WithError(ref string, err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[ref] = err
	return f
}

// Factory returns a registry factory handing out this fake.
func (f *FakeSource) Factory(_ sources.Options) (sources.Source, error) {
	return f, nil
}

func (f *FakeSource) Scheme() string {
	return f.scheme
}

func (f *FakeSource) Fetch(ctx context.Context, ref string) (string, error) {
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[ref]++

	if err, ok := f.errors[ref]; ok {
		return "", err
	}

	value, ok := f.values[ref]
	if !ok {
		return "", &sources.NotFoundError{Source: f.scheme, Ref: ref}
	}
	return value, nil
}

func (f *FakeSource) Healthy(_ context.Context) error {
	return f.HealthyErr
}

// Calls reports how many times a reference was fetched.
func (f *FakeSource) Calls(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ref]
}

// Package varstore provides the process-wide variable namespace that mapped
// secret fields are written into.
//
// A Store is an explicit object rather than ambient global state so that
// callers (and tests) can instantiate isolated namespaces. It carries two
// things:
//
//   - the variable namespace itself: flat name → string value pairs, written
//     by the secret mapper and read by whatever configuration layer consumes
//     the mapped variables afterwards;
//   - the decoded-secret cache: the parsed payload of every secret that was
//     successfully decoded, keyed by the secret's diagnostic name.
//
// The two are deliberately separate lookups. Has reports on the cache ("was
// a secret with this name decoded?"), which lets callers mark dependent
// configuration optional when a secret was never loaded. Lookup reports on
// the namespace ("is this variable set?").
//
// All methods are safe for concurrent use; handler invocations for distinct
// secrets may run in parallel and write through the same Store.
package varstore

import (
	"sort"
	"sync"
)

// Store is a mutable variable namespace plus a decoded-secret cache.
// The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	values  map[string]string
	decoded map[string]any
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		values:  make(map[string]string),
		decoded: make(map[string]any),
	}
}

// Set creates or overwrites a variable. Variables are never deleted; the
// last write wins.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
}

// Get returns the value of a variable, or the empty string when it is not
// set. Use Lookup to distinguish an empty value from an absent one.
func (s *Store) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name]
}

// Lookup returns the value of a variable and whether it is set.
func (s *Store) Lookup(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether a secret with the given name was previously decoded,
// i.e. whether its cache entry exists. It says nothing about variables; a
// secret can be decoded and still fail mapping before any variable is set.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.decoded[name]
	return ok
}

// MarkDecoded records the decoded payload for a secret name. Re-decoding the
// same name overwrites the earlier entry (last write wins).
func (s *Store) MarkDecoded(name string, value any) {
	s.mu.Lock()
	s.decoded[name] = value
	s.mu.Unlock()
}

// Decoded returns the cached decoded payload for a secret name.
func (s *Store) Decoded(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.decoded[name]
	return v, ok
}

// Len returns the number of variables set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Names returns the names of all set variables in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the variable namespace. Mutating the returned
// map does not affect the Store.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for name, value := range s.values {
		out[name] = value
	}
	return out
}

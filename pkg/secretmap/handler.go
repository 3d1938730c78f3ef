package secretmap

import "github.com/systmms/secretmap/pkg/varstore"

// Factory builds handlers for one secret kind. It is pre-bound to the
// kind's default mapping; per-handler overrides are merged in once, when
// the handler is constructed, not per invocation.
type Factory struct {
	kind     Kind
	defaults Mapping
}

// NewFactory creates a factory for a kind with the given default mapping.
func NewFactory(kind Kind, defaults Mapping) *Factory {
	return &Factory{kind: kind, defaults: defaults.Clone()}
}

// DefaultFactory creates a factory carrying the kind's built-in default
// mapping. For key_value the defaults are empty and every handler needs a
// full mapping supplied through overrides.
func DefaultFactory(kind Kind) *Factory {
	return NewFactory(kind, DefaultMapping(kind))
}

// Kind returns the kind this factory builds handlers for.
func (f *Factory) Kind() Kind {
	return f.kind
}

// Handler builds a handler writing into the given store, with overrides
// shallow-merged over the factory's defaults.
func (f *Factory) Handler(store *varstore.Store, overrides Mapping) *Handler {
	return &Handler{
		kind:    f.kind,
		mapping: f.defaults.Merge(overrides),
		store:   store,
	}
}

// NewHandler is shorthand for DefaultFactory(kind).Handler(store, overrides).
func NewHandler(store *varstore.Store, kind Kind, overrides Mapping) *Handler {
	return DefaultFactory(kind).Handler(store, overrides)
}

// Handler applies the decode → validate → project pipeline for one secret
// kind with one effective mapping. Handlers are stateless between calls
// except for the store they write into; a handler may be reused for any
// number of secrets of its kind.
type Handler struct {
	kind    Kind
	mapping Mapping
	store   *varstore.Store
}

// Kind returns the handler's secret kind.
func (h *Handler) Kind() Kind {
	return h.kind
}

// Mapping returns a copy of the handler's effective mapping.
func (h *Handler) Mapping() Mapping {
	return h.mapping.Clone()
}

// Apply decodes the payload, records it in the store's decoded cache, and
// projects the mapped fields. Any failure propagates to the caller. The
// cache entry is written after a successful decode even if shape validation
// fails afterwards, so Store.Has reflects "was decoded".
func (h *Handler) Apply(name, payload string) error {
	value, err := Decode(name, payload)
	if err != nil {
		return err
	}
	h.store.MarkDecoded(name, value)
	return project(h.store, name, value, h.kind, h.mapping)
}

// ApplyOptional behaves like Apply, except an empty payload is a no-op: the
// store is untouched and no error is returned.
func (h *Handler) ApplyOptional(name, payload string) error {
	if payload == "" {
		return nil
	}
	return h.Apply(name, payload)
}

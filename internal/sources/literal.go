package sources

import (
	"context"
)

// LiteralSource returns the reference itself as the payload. It exists for
// smoke-testing manifests and pipelines without touching any backend.
//
// The reference is taken verbatim: no fragment handling, so values may
// contain '#' freely.
type LiteralSource struct{}

// NewLiteralSourceFactory is the registry entry point for literal.
func NewLiteralSourceFactory(_ Options) (Source, error) {
	return &LiteralSource{}, nil
}

func (s *LiteralSource) Scheme() string {
	return "literal"
}

func (s *LiteralSource) Fetch(_ context.Context, ref string) (string, error) {
	return ref, nil
}

func (s *LiteralSource) Healthy(_ context.Context) error {
	return nil
}

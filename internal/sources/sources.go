// Package sources fetches raw secret payloads from the configured backends.
//
// A secret declaration names its backend with a URI-style reference such as
// aws-sm://prod/db or file:///run/secrets/db.json. The scheme selects the
// source, the remainder is interpreted by it. Sources return the payload as
// an opaque string; decoding and projection happen elsewhere.
package sources

import (
	"context"
	"fmt"
	"strings"
)

// Source fetches raw payloads for one backend scheme.
type Source interface {
	// Scheme returns the reference scheme this source serves.
	Scheme() string

	// Fetch retrieves the payload for a reference (the part after
	// scheme://). A missing entry yields *NotFoundError.
	Fetch(ctx context.Context, ref string) (string, error)

	// Healthy checks that the backend is reachable with the configured
	// credentials. Used by the doctor command.
	Healthy(ctx context.Context) error
}

// ParseRef splits a scheme://reference string into its parts.
func ParseRef(raw string) (scheme, ref string, err error) {
	idx := strings.Index(raw, "://")
	if idx <= 0 {
		return "", "", fmt.Errorf("invalid source reference %q: expected scheme://reference", raw)
	}

	scheme = raw[:idx]
	ref = raw[idx+len("://"):]
	if ref == "" {
		return "", "", fmt.Errorf("invalid source reference %q: empty reference", raw)
	}
	return scheme, ref, nil
}

package commands

import (
	"sort"

	"github.com/systmms/secretmap/internal/config"
	"github.com/systmms/secretmap/internal/sources"
)

// newRegistry builds the source registry from the loaded manifest defaults.
func newRegistry(cfg *config.Config) *sources.Registry {
	return sources.NewRegistry(sources.Options{
		Defaults: cfg.Manifest.Defaults,
		Logger:   cfg.Logger,
	})
}

// manifestSchemes returns the sorted set of source schemes the manifest
// references.
func manifestSchemes(m *config.Manifest) []string {
	seen := make(map[string]bool)
	for _, secret := range m.Secrets {
		scheme, _, err := sources.ParseRef(secret.Source)
		if err != nil {
			continue
		}
		seen[scheme] = true
	}

	schemes := make([]string, 0, len(seen))
	for scheme := range seen {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

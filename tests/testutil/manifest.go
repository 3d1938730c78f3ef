// Package testutil provides shared test helpers for secretmap tests:
// manifest builders and log-capturing loggers.
//
// Helpers here are for tests only and never ship in the binary.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/systmms/secretmap/internal/config"
)

// ManifestBuilder provides a fluent API for building test manifests.
//
// The builder allows programmatic creation of secretmap.yaml content
// without writing YAML strings by hand.
//
// Example usage:
//
//	path := testutil.NewManifest(t).
//	    WithSecret(config.SecretSpec{
//	        Name:   "app-login",
//	        Kind:   "basic_credentials",
//	        Source: `literal://{"username":"app","password":"pw"}`,
//	    }).
//	    Write()
type ManifestBuilder struct {
	t        *testing.T
	manifest *config.Manifest
}

// NewManifest creates a builder holding a minimal valid manifest.
func NewManifest(t *testing.T) *ManifestBuilder {
	t.Helper()

	return &ManifestBuilder{
		t:        t,
		manifest: &config.Manifest{Version: 0},
	}
}

// WithDefaults sets the manifest's defaults section.
func (b *ManifestBuilder) WithDefaults(d config.Defaults) *ManifestBuilder {
	b.manifest.Defaults = d
	return b
}

// WithSecret appends a secret declaration.
func (b *ManifestBuilder) WithSecret(spec config.SecretSpec) *ManifestBuilder {
	b.manifest.Secrets = append(b.manifest.Secrets, spec)
	return b
}

// WithVar appends a variable expectation.
func (b *ManifestBuilder) WithVar(spec config.VarSpec) *ManifestBuilder {
	b.manifest.Vars = append(b.manifest.Vars, spec)
	return b
}

// Build returns the manifest under construction.
func (b *ManifestBuilder) Build() *config.Manifest {
	return b.manifest
}

// Write marshals the manifest into a temp secretmap.yaml and returns its
// path. The file goes away with the test's temp directory.
func (b *ManifestBuilder) Write() string {
	b.t.Helper()

	return WriteManifest(b.t, b.manifest)
}

// WriteManifest marshals a manifest into a temp secretmap.yaml and returns
// its path.
func WriteManifest(t *testing.T, manifest *config.Manifest) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secretmap.yaml")
	data, err := yaml.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

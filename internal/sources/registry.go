package sources

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/systmms/secretmap/internal/config"
	"github.com/systmms/secretmap/internal/logging"
)

// Options carries the manifest defaults and runtime collaborators every
// source is built from.
type Options struct {
	Defaults config.Defaults
	Logger   *logging.Logger
}

// Factory builds a source instance from the registry options.
type Factory func(opts Options) (Source, error)

// Registry manages source creation and registration. Sources are built
// lazily on first use and cached; construction may dial a backend, so only
// schemes the manifest references pay that cost.
type Registry struct {
	opts Options

	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]Source
}

// NewRegistry creates a registry with the built-in sources registered.
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = logging.New(false, true)
	}

	r := &Registry{
		opts:      opts,
		factories: make(map[string]Factory),
		instances: make(map[string]Source),
	}

	r.RegisterFactory("aws-sm", NewSecretsManagerSourceFactory)
	r.RegisterFactory("aws-ssm", NewParameterStoreSourceFactory)
	r.RegisterFactory("azure-kv", NewKeyVaultSourceFactory)
	r.RegisterFactory("gcp-sm", NewGCPSourceFactory)
	r.RegisterFactory("akeyless", NewAkeylessSourceFactory)
	r.RegisterFactory("keyring", NewKeyringSourceFactory)
	r.RegisterFactory("env", NewEnvSourceFactory)
	r.RegisterFactory("file", NewFileSourceFactory)
	r.RegisterFactory("literal", NewLiteralSourceFactory)

	return r
}

// RegisterFactory registers a source factory for a scheme, replacing any
// existing factory and cached instance. Tests use this to inject fakes.
func (r *Registry) RegisterFactory(scheme string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[scheme] = factory
	delete(r.instances, scheme)
}

// Get returns the source for a scheme, constructing it on first use.
func (r *Registry) Get(scheme string) (Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if src, ok := r.instances[scheme]; ok {
		return src, nil
	}

	factory, ok := r.factories[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown source scheme %q (supported: %s)",
			scheme, strings.Join(r.schemesLocked(), ", "))
	}

	src, err := factory(r.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s source: %w", scheme, err)
	}

	r.instances[scheme] = src
	return src, nil
}

// ForRef resolves a full scheme://reference string to its source and the
// backend-specific remainder.
func (r *Registry) ForRef(raw string) (Source, string, error) {
	scheme, ref, err := ParseRef(raw)
	if err != nil {
		return nil, "", err
	}

	src, err := r.Get(scheme)
	if err != nil {
		return nil, "", err
	}
	return src, ref, nil
}

// IsSupported checks if a scheme is registered.
func (r *Registry) IsSupported(scheme string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.factories[scheme]
	return ok
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.schemesLocked()
}

func (r *Registry) schemesLocked() []string {
	schemes := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

package sources

import (
	"context"
	"os"
)

// EnvSource fetches payloads from the process environment. Useful for CI
// pipelines that inject secrets as environment variables.
//
// Reference grammar: VAR_NAME[#json.path].
type EnvSource struct{}

// NewEnvSourceFactory is the registry entry point for env.
func NewEnvSourceFactory(_ Options) (Source, error) {
	return &EnvSource{}, nil
}

func (s *EnvSource) Scheme() string {
	return "env"
}

func (s *EnvSource) Fetch(_ context.Context, ref string) (string, error) {
	name, jsonPath := splitFragment(ref)

	value, ok := os.LookupEnv(name)
	if !ok {
		return "", &NotFoundError{Source: s.Scheme(), Ref: name}
	}

	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

func (s *EnvSource) Healthy(_ context.Context) error {
	return nil
}

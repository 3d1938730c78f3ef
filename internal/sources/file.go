package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSource fetches payloads from local files, such as mounted Kubernetes
// secrets or sops output.
//
// Reference grammar: /path/to/file[#json.path]; a leading ~/ expands to the
// home directory.
type FileSource struct{}

// NewFileSourceFactory is the registry entry point for file.
func NewFileSourceFactory(_ Options) (Source, error) {
	return &FileSource{}, nil
}

func (s *FileSource) Scheme() string {
	return "file"
}

func (s *FileSource) Fetch(_ context.Context, ref string) (string, error) {
	path, jsonPath := splitFragment(ref)

	path, err := expandHome(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Source: s.Scheme(), Ref: path}
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	value := string(data)
	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

func (s *FileSource) Healthy(_ context.Context) error {
	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, path[2:]), nil
}

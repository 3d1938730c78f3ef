package sources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringSource fetches payloads from the operating system keyring: the
// macOS Keychain, the freedesktop Secret Service on Linux, or the Windows
// Credential Manager.
//
// Reference grammar: service/account[#json.path].
type KeyringSource struct{}

// NewKeyringSourceFactory is the registry entry point for keyring.
func NewKeyringSourceFactory(_ Options) (Source, error) {
	return &KeyringSource{}, nil
}

func (s *KeyringSource) Scheme() string {
	return "keyring"
}

func (s *KeyringSource) Fetch(_ context.Context, ref string) (string, error) {
	base, jsonPath := splitFragment(ref)

	service, account, err := parseKeyringRef(base)
	if err != nil {
		return "", err
	}

	value, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", &NotFoundError{Source: s.Scheme(), Ref: base}
		}
		return "", fmt.Errorf("failed to read keyring entry %s: %w", base, err)
	}

	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

// Healthy warns about environments where no keyring daemon is reachable.
// An SSH session or CI runner has no Secret Service to talk to.
func (s *KeyringSource) Healthy(_ context.Context) error {
	if os.Getenv("SSH_TTY") != "" {
		return fmt.Errorf("keyring unavailable over SSH sessions")
	}
	if os.Getenv("CI") != "" {
		return fmt.Errorf("keyring unavailable in CI environments")
	}
	if runtime.GOOS == "linux" &&
		os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return fmt.Errorf("keyring unavailable without a desktop session")
	}
	return nil
}

// parseKeyringRef splits service/account. The account may itself contain
// slashes; only the first one delimits.
func parseKeyringRef(ref string) (service, account string, err error) {
	idx := strings.Index(ref, "/")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("invalid keyring reference %q, expected service/account", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

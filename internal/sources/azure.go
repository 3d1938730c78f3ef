package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/secretmap/internal/config"
	smerrors "github.com/systmms/secretmap/internal/errors"
)

// KeyVaultAPI is the subset of the Key Vault secrets client the source
// uses, kept narrow so tests can substitute a mock.
type KeyVaultAPI interface {
	GetSecret(ctx context.Context, name string, version string,
		options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// KeyVaultSource fetches payloads from Azure Key Vault.
//
// Reference grammar: name[/version][#json.path].
type KeyVaultSource struct {
	client KeyVaultAPI
}

// KeyVaultOption customizes source construction.
type KeyVaultOption func(*KeyVaultSource)

// WithKeyVaultClient injects a preconfigured client, primarily for testing.
func WithKeyVaultClient(client KeyVaultAPI) KeyVaultOption {
	return func(s *KeyVaultSource) {
		s.client = client
	}
}

// NewKeyVaultSourceFactory is the registry entry point for azure-kv.
func NewKeyVaultSourceFactory(opts Options) (Source, error) {
	return NewKeyVaultSource(opts)
}

// NewKeyVaultSource builds the source from the manifest's Azure defaults.
// A service principal is used when the manifest carries a full client
// secret triple; otherwise the ambient credential chain (CLI login,
// managed identity, environment) applies.
func NewKeyVaultSource(opts Options, srcOpts ...KeyVaultOption) (*KeyVaultSource, error) {
	s := &KeyVaultSource{}

	for _, opt := range srcOpts {
		opt(s)
	}

	if s.client == nil {
		defaults := opts.Defaults.Azure
		if defaults == nil || defaults.VaultURL == "" {
			return nil, &smerrors.ConfigError{
				Field:      "defaults.azure.vault_url",
				Message:    "vault URL is required for the azure-kv source",
				Suggestion: "Add 'defaults: azure: vault_url: https://<vault>.vault.azure.net' to the manifest",
			}
		}

		cred, err := azureCredential(defaults)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}

		client, err := azsecrets.NewClient(defaults.VaultURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
		}
		s.client = client
	}

	return s, nil
}

func azureCredential(defaults *config.AzureDefaults) (azcore.TokenCredential, error) {
	if defaults.TenantID != "" && defaults.ClientID != "" && defaults.ClientSecret != "" {
		return azidentity.NewClientSecretCredential(
			defaults.TenantID, defaults.ClientID, defaults.ClientSecret, nil)
	}
	return azidentity.NewDefaultAzureCredential(nil)
}

func (s *KeyVaultSource) Scheme() string {
	return "azure-kv"
}

func (s *KeyVaultSource) Fetch(ctx context.Context, ref string) (string, error) {
	base, jsonPath := splitFragment(ref)
	name, version := parseKeyVaultRef(base)

	resp, err := s.client.GetSecret(ctx, name, version, nil)
	if err != nil {
		return "", s.mapError(name, err)
	}

	if resp.Value == nil {
		return "", fmt.Errorf("secret %s has no value", name)
	}

	value := *resp.Value
	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

// Healthy lists one page of secret properties to verify credentials and
// reachability. Injected mocks skip the check since only the real client
// exposes the pager.
func (s *KeyVaultSource) Healthy(ctx context.Context) error {
	client, ok := s.client.(*azsecrets.Client)
	if !ok {
		return nil
	}

	pager := client.NewListSecretPropertiesPager(nil)
	if _, err := pager.NextPage(ctx); err != nil {
		if isAzureAuthError(err) {
			return &AuthError{Source: s.Scheme(), Message: err.Error()}
		}
		return fmt.Errorf("key vault unreachable: %w", err)
	}
	return nil
}

func (s *KeyVaultSource) mapError(name string, err error) error {
	if isAzureNotFound(err) {
		return &NotFoundError{Source: s.Scheme(), Ref: name}
	}
	if isAzureAuthError(err) {
		return &AuthError{Source: s.Scheme(), Message: err.Error()}
	}
	return fmt.Errorf("failed to get secret %s: %w", name, err)
}

// isAzureNotFound matches on the service error code since the SDK does not
// export a typed not-found error.
func isAzureNotFound(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "SecretNotFound") ||
		strings.Contains(errStr, "404")
}

func isAzureAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "Forbidden") ||
		strings.Contains(errStr, "Unauthorized") ||
		strings.Contains(errStr, "DefaultAzureCredential")
}

// parseKeyVaultRef splits name/version. Key Vault secret names cannot
// contain slashes, so the first one delimits the version.
func parseKeyVaultRef(ref string) (name, version string) {
	if idx := strings.Index(ref, "/"); idx > 0 {
		return ref[:idx], ref[idx+1:]
	}
	return ref, ""
}

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/logging"
	"github.com/systmms/secretmap/pkg/secretmap"
)

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Manifest       *Manifest
}

// Manifest represents the secretmap.yaml structure
type Manifest struct {
	Version  int          `yaml:"version"`
	Defaults Defaults     `yaml:"defaults,omitempty"`
	Secrets  []SecretSpec `yaml:"secrets"`
	Vars     []VarSpec    `yaml:"vars,omitempty"`
}

// Defaults holds per-backend connection settings shared by every secret
// using that backend
type Defaults struct {
	TimeoutMs int               `yaml:"timeout_ms,omitempty"`
	AWS       *AWSDefaults      `yaml:"aws,omitempty"`
	Azure     *AzureDefaults    `yaml:"azure,omitempty"`
	GCP       *GCPDefaults      `yaml:"gcp,omitempty"`
	Akeyless  *AkeylessDefaults `yaml:"akeyless,omitempty"`
}

// AWSDefaults configures the aws-sm and aws-ssm sources
type AWSDefaults struct {
	Region          string       `yaml:"region,omitempty"`
	Profile         string       `yaml:"profile,omitempty"`
	Endpoint        string       `yaml:"endpoint,omitempty"`
	AccessKeyID     string       `yaml:"access_key_id,omitempty"`
	SecretAccessKey string       `yaml:"secret_access_key,omitempty"`
	SessionToken    string       `yaml:"session_token,omitempty"`
	AssumeRole      string       `yaml:"assume_role,omitempty"`
	SSO             *SSODefaults `yaml:"sso,omitempty"`
}

// SSODefaults configures AWS IAM Identity Center credentials
type SSODefaults struct {
	StartURL  string `yaml:"start_url"`
	Region    string `yaml:"region,omitempty"`
	AccountID string `yaml:"account_id"`
	RoleName  string `yaml:"role_name"`
}

// AzureDefaults configures the azure-kv source
type AzureDefaults struct {
	VaultURL     string `yaml:"vault_url"`
	TenantID     string `yaml:"tenant_id,omitempty"`
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
}

// GCPDefaults configures the gcp-sm source
type GCPDefaults struct {
	Project            string `yaml:"project"`
	CredentialsFile    string `yaml:"credentials_file,omitempty"`
	ImpersonateAccount string `yaml:"impersonate_account,omitempty"`
}

// AkeylessDefaults configures the akeyless source
type AkeylessDefaults struct {
	GatewayURL string `yaml:"gateway_url,omitempty"`
	AccessID   string `yaml:"access_id,omitempty"`
	AccessKey  string `yaml:"access_key,omitempty"`
	Token      string `yaml:"token,omitempty"`
}

// SecretSpec declares one secret to fetch, decode and project into
// variables
type SecretSpec struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Source   string            `yaml:"source"`
	Optional bool              `yaml:"optional,omitempty"`
	Mapping  map[string]string `yaml:"mapping,omitempty"`
	Verify   bool              `yaml:"verify,omitempty"`
}

// VarSpec declares an expectation on the final variable set, checked after
// every secret has been projected
type VarSpec struct {
	Name       string `yaml:"name"`
	Required   bool   `yaml:"required,omitempty"`
	WhenSecret string `yaml:"when_secret,omitempty"`
	Pattern    string `yaml:"pattern,omitempty"`
}

// envVarName matches POSIX-style environment variable names.
var envVarName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads and parses the secretmap.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return smerrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "manifest file not found",
				Suggestion: "Create a secretmap.yaml with a 'secrets:' section, or pass --config",
			}
		}
		return smerrors.UserError{
			Message:    "Failed to read manifest file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return smerrors.ConfigError{
			Message:    "invalid YAML syntax in manifest file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if err := validateManifestStructure(doc); err != nil {
		return err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return smerrors.ConfigError{
			Message:    "invalid YAML syntax in manifest file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if manifest.Version != 0 {
		return smerrors.ConfigError{
			Field:      "version",
			Value:      manifest.Version,
			Message:    "unsupported manifest version",
			Suggestion: "Set 'version: 0' at the top of your secretmap.yaml file",
		}
	}

	if err := manifest.Validate(); err != nil {
		return err
	}

	c.Manifest = &manifest
	return nil
}

// Validate checks the manifest for structural problems before any source is
// contacted
func (m *Manifest) Validate() error {
	seenSecrets := make(map[string]bool)

	for i, secret := range m.Secrets {
		field := fmt.Sprintf("secrets[%d]", i)

		if secret.Name == "" {
			return smerrors.ConfigError{
				Field:      field + ".name",
				Message:    "secret name is required",
				Suggestion: "Give every entry under 'secrets:' a unique name",
			}
		}
		if seenSecrets[secret.Name] {
			return smerrors.ConfigError{
				Field:      field + ".name",
				Value:      secret.Name,
				Message:    "duplicate secret name",
				Suggestion: "Each secret name may appear only once",
			}
		}
		seenSecrets[secret.Name] = true

		kind, err := secretmap.ParseKind(secret.Kind)
		if err != nil {
			return smerrors.ConfigError{
				Field:      field + ".kind",
				Value:      secret.Kind,
				Message:    "unknown secret kind",
				Suggestion: fmt.Sprintf("Use one of: %s", kindList()),
			}
		}

		if secret.Source == "" {
			return smerrors.ConfigError{
				Field:      field + ".source",
				Message:    "secret source is required",
				Suggestion: "Reference a source like 'aws-sm://prod/db' or 'env://DB_SECRET'",
			}
		}
		if !strings.Contains(secret.Source, "://") {
			return smerrors.ConfigError{
				Field:      field + ".source",
				Value:      secret.Source,
				Message:    "source must use scheme://reference form",
				Suggestion: "Reference a source like 'aws-sm://prod/db' or 'file:///run/secrets/db.json'",
			}
		}

		// key_value has no default mapping; without one the secret could
		// never project a variable.
		if kind == secretmap.KindKeyValue && len(secret.Mapping) == 0 {
			return smerrors.ConfigError{
				Field:      field + ".mapping",
				Value:      secret.Name,
				Message:    "key_value secrets need an explicit mapping",
				Suggestion: "Add a 'mapping:' block naming each field and its target variable",
			}
		}

		for fieldName, variable := range secret.Mapping {
			if !envVarName.MatchString(variable) {
				return smerrors.ConfigError{
					Field:      field + ".mapping." + fieldName,
					Value:      variable,
					Message:    "mapped variable is not a valid environment variable name",
					Suggestion: "Use letters, digits and underscores, not starting with a digit",
				}
			}
		}

		if secret.Verify && kind != secretmap.KindDatabaseCredentials {
			return smerrors.ConfigError{
				Field:      field + ".verify",
				Value:      secret.Kind,
				Message:    "verify is only supported for database_credentials",
				Suggestion: "Remove 'verify: true' or change the secret kind",
			}
		}
	}

	seenVars := make(map[string]bool)
	for i, v := range m.Vars {
		field := fmt.Sprintf("vars[%d]", i)

		if !envVarName.MatchString(v.Name) {
			return smerrors.ConfigError{
				Field:      field + ".name",
				Value:      v.Name,
				Message:    "invalid variable name",
				Suggestion: "Use letters, digits and underscores, not starting with a digit",
			}
		}
		if seenVars[v.Name] {
			return smerrors.ConfigError{
				Field:      field + ".name",
				Value:      v.Name,
				Message:    "duplicate variable expectation",
				Suggestion: "Each variable may appear only once under 'vars:'",
			}
		}
		seenVars[v.Name] = true

		if v.Pattern != "" {
			if _, err := regexp.Compile(v.Pattern); err != nil {
				return smerrors.ConfigError{
					Field:      field + ".pattern",
					Value:      v.Pattern,
					Message:    "pattern is not a valid regular expression",
					Suggestion: "Check the pattern against Go's regexp syntax",
				}
			}
		}

		if v.WhenSecret != "" && !seenSecrets[v.WhenSecret] {
			return smerrors.ConfigError{
				Field:      field + ".when_secret",
				Value:      v.WhenSecret,
				Message:    "when_secret references an undeclared secret",
				Suggestion: fmt.Sprintf("Declare %q under 'secrets:' or drop the condition", v.WhenSecret),
			}
		}
	}

	return nil
}

// GetSecret returns the declaration for a named secret
func (c *Config) GetSecret(name string) (SecretSpec, error) {
	if c.Manifest == nil {
		return SecretSpec{}, smerrors.UserError{
			Message:    "Manifest not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	for _, secret := range c.Manifest.Secrets {
		if secret.Name == name {
			return secret, nil
		}
	}

	suggestion := "Add the secret to the 'secrets:' section of your secretmap.yaml"
	if names := c.SecretNames(); len(names) > 0 {
		suggestion = fmt.Sprintf("Available secrets: %s", strings.Join(names, ", "))
	}

	return SecretSpec{}, smerrors.ConfigError{
		Field:      "secret",
		Value:      name,
		Message:    "secret not found in manifest",
		Suggestion: suggestion,
	}
}

// SecretNames returns the declared secret names in manifest order
func (c *Config) SecretNames() []string {
	if c.Manifest == nil {
		return nil
	}
	names := make([]string, 0, len(c.Manifest.Secrets))
	for _, secret := range c.Manifest.Secrets {
		names = append(names, secret.Name)
	}
	return names
}

// FetchTimeout returns the per-secret fetch timeout
func (d Defaults) FetchTimeout() time.Duration {
	if d.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.TimeoutMs) * time.Millisecond
}

func kindList() string {
	kinds := secretmap.Kinds()
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ", ")
}

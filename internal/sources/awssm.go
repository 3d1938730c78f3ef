package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the subset of the Secrets Manager client the source
// uses, kept narrow so tests can substitute a mock.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// SecretsManagerSource fetches payloads from AWS Secrets Manager.
//
// Reference grammar: name[@version][#json.path] where version is either a
// staging label or a version id (UUID).
type SecretsManagerSource struct {
	client SecretsManagerAPI
}

// SecretsManagerOption customizes source construction.
type SecretsManagerOption func(*SecretsManagerSource)

// WithSecretsManagerClient injects a preconfigured client, primarily for
// testing.
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsManagerOption {
	return func(s *SecretsManagerSource) {
		s.client = client
	}
}

// NewSecretsManagerSourceFactory is the registry entry point for aws-sm.
func NewSecretsManagerSourceFactory(opts Options) (Source, error) {
	return NewSecretsManagerSource(opts)
}

// NewSecretsManagerSource builds the source from the manifest's AWS
// defaults. Credential resolution is deferred until the first fetch.
func NewSecretsManagerSource(opts Options, srcOpts ...SecretsManagerOption) (*SecretsManagerSource, error) {
	s := &SecretsManagerSource{}

	for _, opt := range srcOpts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := loadAWSConfig(context.Background(), opts.Defaults.AWS)
		if err != nil {
			return nil, err
		}

		s.client = secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
			if opts.Defaults.AWS != nil && opts.Defaults.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Defaults.AWS.Endpoint)
			}
		})
	}

	return s, nil
}

func (s *SecretsManagerSource) Scheme() string {
	return "aws-sm"
}

func (s *SecretsManagerSource) Fetch(ctx context.Context, ref string) (string, error) {
	base, jsonPath := splitFragment(ref)
	name, version := parseSecretsManagerRef(base)

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	}
	if version != "" {
		if isVersionID(version) {
			input.VersionId = aws.String(version)
		} else {
			input.VersionStage = aws.String(version)
		}
	}

	result, err := s.client.GetSecretValue(ctx, input)
	if err != nil {
		return "", s.mapError(name, err)
	}

	var value string
	switch {
	case result.SecretString != nil:
		value = *result.SecretString
	case result.SecretBinary != nil:
		value = string(result.SecretBinary)
	default:
		return "", fmt.Errorf("secret %s has no value", name)
	}

	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

// Healthy verifies that credentials resolve and the API is reachable.
func (s *SecretsManagerSource) Healthy(ctx context.Context) error {
	_, err := s.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		if isAWSAuthError(err) {
			return &AuthError{Source: s.Scheme(), Message: err.Error()}
		}
		return fmt.Errorf("secrets manager unreachable: %w", err)
	}
	return nil
}

func (s *SecretsManagerSource) mapError(name string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &NotFoundError{Source: s.Scheme(), Ref: name}
	}
	if isAWSAuthError(err) {
		return &AuthError{Source: s.Scheme(), Message: err.Error()}
	}
	return fmt.Errorf("failed to get secret %s: %w", name, err)
}

// parseSecretsManagerRef splits name@version. The version suffix is
// optional; '@' may not appear in secret names so the last one wins.
func parseSecretsManagerRef(ref string) (name, version string) {
	if idx := strings.LastIndex(ref, "@"); idx > 0 {
		return ref[:idx], ref[idx+1:]
	}
	return ref, ""
}

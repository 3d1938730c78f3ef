package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI is the subset of the Systems Manager client the source uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput,
		optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// ParameterStoreSource fetches payloads from AWS Systems Manager Parameter
// Store. SecureString parameters are decrypted transparently.
//
// Reference grammar: /path/to/param[#json.path].
type ParameterStoreSource struct {
	client SSMAPI
}

// ParameterStoreOption customizes source construction.
type ParameterStoreOption func(*ParameterStoreSource)

// WithSSMClient injects a preconfigured client, primarily for testing.
func WithSSMClient(client SSMAPI) ParameterStoreOption {
	return func(s *ParameterStoreSource) {
		s.client = client
	}
}

// NewParameterStoreSourceFactory is the registry entry point for aws-ssm.
func NewParameterStoreSourceFactory(opts Options) (Source, error) {
	return NewParameterStoreSource(opts)
}

// NewParameterStoreSource builds the source from the manifest's AWS
// defaults, sharing the credential chain with aws-sm.
func NewParameterStoreSource(opts Options, srcOpts ...ParameterStoreOption) (*ParameterStoreSource, error) {
	s := &ParameterStoreSource{}

	for _, opt := range srcOpts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := loadAWSConfig(context.Background(), opts.Defaults.AWS)
		if err != nil {
			return nil, err
		}

		s.client = ssm.NewFromConfig(cfg, func(o *ssm.Options) {
			if opts.Defaults.AWS != nil && opts.Defaults.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Defaults.AWS.Endpoint)
			}
		})
	}

	return s, nil
}

func (s *ParameterStoreSource) Scheme() string {
	return "aws-ssm"
}

func (s *ParameterStoreSource) Fetch(ctx context.Context, ref string) (string, error) {
	name, jsonPath := splitFragment(ref)

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", s.mapError(name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}

	value := *result.Parameter.Value
	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

// Healthy verifies that credentials resolve and the API is reachable.
func (s *ParameterStoreSource) Healthy(ctx context.Context) error {
	_, err := s.client.DescribeParameters(ctx, &ssm.DescribeParametersInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		if isAWSAuthError(err) {
			return &AuthError{Source: s.Scheme(), Message: err.Error()}
		}
		return fmt.Errorf("parameter store unreachable: %w", err)
	}
	return nil
}

func (s *ParameterStoreSource) mapError(name string, err error) error {
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return &NotFoundError{Source: s.Scheme(), Ref: name}
	}
	if isAWSAuthError(err) {
		return &AuthError{Source: s.Scheme(), Message: err.Error()}
	}
	return fmt.Errorf("failed to get parameter %s: %w", name, err)
}

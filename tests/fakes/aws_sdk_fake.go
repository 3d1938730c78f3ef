package fakes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// DefaultVersionID is the version id AddSecretString registers under the
// AWSCURRENT stage.
const DefaultVersionID = "11111111-2222-3333-4444-555555555555"

// SecretVersions holds the versions of one fake secret. Stages map staging
// labels (AWSCURRENT, AWSPREVIOUS) to version ids.
type SecretVersions struct {
	Values map[string]string
	Binary map[string][]byte
	Stages map[string]string
}

// FakeSecretsManagerClient is an in-memory Secrets Manager for tests.
type FakeSecretsManagerClient struct {
	Secrets map[string]*SecretVersions
	Errors  map[string]error

	// ListSecretsFunc overrides the health check behavior.
	ListSecretsFunc func(ctx context.Context, params *secretsmanager.ListSecretsInput) (*secretsmanager.ListSecretsOutput, error)

	GetSecretValueCalls int
}

// NewFakeSecretsManagerClient creates an empty fake.
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*SecretVersions),
		Errors:  make(map[string]error),
	}
}

// AddSecretString stores a value under DefaultVersionID with AWSCURRENT.
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.AddSecretVersion(name, DefaultVersionID, "AWSCURRENT", value)
}

// AddSecretVersion stores a value under an explicit version id, optionally
// attaching a staging label.
func (f *FakeSecretsManagerClient) AddSecretVersion(name, versionID, stage, value string) {
	sv := f.secret(name)
	sv.Values[versionID] = value
	if stage != "" {
		sv.Stages[stage] = versionID
	}
}

// AddSecretBinary stores a binary value under DefaultVersionID.
func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	sv := f.secret(name)
	sv.Binary[DefaultVersionID] = value
	sv.Stages["AWSCURRENT"] = DefaultVersionID
}

// AddError makes GetSecretValue fail for one secret name.
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.Errors[name] = err
}

func (f *FakeSecretsManagerClient) secret(name string) *SecretVersions {
	sv := f.Secrets[name]
	if sv == nil {
		sv = &SecretVersions{
			Values: make(map[string]string),
			Binary: make(map[string][]byte),
			Stages: make(map[string]string),
		}
		f.Secrets[name] = sv
	}
	return sv
}

func (f *FakeSecretsManagerClient) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.GetSecretValueCalls++

	name := aws.ToString(params.SecretId)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}

	sv, ok := f.Secrets[name]
	if !ok {
		return nil, &smtypes.ResourceNotFoundException{
			Message: aws.String("Secrets Manager can't find the specified secret."),
		}
	}

	var versionID string
	switch {
	case params.VersionId != nil:
		versionID = *params.VersionId
	case params.VersionStage != nil:
		versionID = sv.Stages[*params.VersionStage]
	default:
		versionID = sv.Stages["AWSCURRENT"]
	}

	if value, ok := sv.Values[versionID]; ok {
		return &secretsmanager.GetSecretValueOutput{
			Name:         params.SecretId,
			SecretString: aws.String(value),
			VersionId:    aws.String(versionID),
		}, nil
	}
	if value, ok := sv.Binary[versionID]; ok {
		return &secretsmanager.GetSecretValueOutput{
			Name:         params.SecretId,
			SecretBinary: value,
			VersionId:    aws.String(versionID),
		}, nil
	}

	return nil, &smtypes.ResourceNotFoundException{
		Message: aws.String("Secrets Manager can't find the specified secret version."),
	}
}

func (f *FakeSecretsManagerClient) ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput,
	_ ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	if f.ListSecretsFunc != nil {
		return f.ListSecretsFunc(ctx, params)
	}

	out := &secretsmanager.ListSecretsOutput{}
	for name := range f.Secrets {
		out.SecretList = append(out.SecretList, smtypes.SecretListEntry{
			Name: aws.String(name),
		})
	}
	return out, nil
}

// FakeSSMClient is an in-memory Parameter Store for tests.
type FakeSSMClient struct {
	Parameters map[string]string
	Errors     map[string]error

	// DescribeParametersFunc overrides the health check behavior.
	DescribeParametersFunc func(ctx context.Context, params *ssm.DescribeParametersInput) (*ssm.DescribeParametersOutput, error)

	// LastWithDecryption records the decryption flag of the most recent
	// GetParameter call.
	LastWithDecryption bool
}

// NewFakeSSMClient creates an empty fake.
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]string),
		Errors:     make(map[string]error),
	}
}

// AddParameter stores a parameter value.
func (f *FakeSSMClient) AddParameter(name, value string) {
	f.Parameters[name] = value
}

// AddError makes GetParameter fail for one parameter name.
func (f *FakeSSMClient) AddError(name string, err error) {
	f.Errors[name] = err
}

func (f *FakeSSMClient) GetParameter(_ context.Context, params *ssm.GetParameterInput,
	_ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(params.Name)
	f.LastWithDecryption = aws.ToBool(params.WithDecryption)

	if err, ok := f.Errors[name]; ok {
		return nil, err
	}

	value, ok := f.Parameters[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{
			Message: aws.String("parameter not found"),
		}
	}

	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:  params.Name,
			Value: aws.String(value),
			Type:  ssmtypes.ParameterTypeSecureString,
		},
	}, nil
}

func (f *FakeSSMClient) DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput,
	_ ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	if f.DescribeParametersFunc != nil {
		return f.DescribeParametersFunc(ctx, params)
	}
	return &ssm.DescribeParametersOutput{}, nil
}

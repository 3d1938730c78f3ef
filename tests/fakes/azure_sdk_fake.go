package fakes

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeKeyVaultClient is an in-memory Key Vault for tests. Keys are either
// a bare secret name (latest) or name/version.
type FakeKeyVaultClient struct {
	Secrets map[string]string
	Errors  map[string]error

	// GetSecretFunc overrides lookup entirely.
	GetSecretFunc func(ctx context.Context, name, version string) (azsecrets.GetSecretResponse, error)
}

// NewFakeKeyVaultClient creates an empty fake.
func NewFakeKeyVaultClient() *FakeKeyVaultClient {
	return &FakeKeyVaultClient{
		Secrets: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// AddSecret stores a latest-version value.
func (f *FakeKeyVaultClient) AddSecret(name, value string) {
	f.Secrets[name] = value
}

// AddSecretVersion stores a value for one explicit version.
func (f *FakeKeyVaultClient) AddSecretVersion(name, version, value string) {
	f.Secrets[name+"/"+version] = value
}

// AddError makes GetSecret fail for one secret name.
func (f *FakeKeyVaultClient) AddError(name string, err error) {
	f.Errors[name] = err
}

func (f *FakeKeyVaultClient) GetSecret(ctx context.Context, name string, version string,
	_ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if f.GetSecretFunc != nil {
		return f.GetSecretFunc(ctx, name, version)
	}

	if err, ok := f.Errors[name]; ok {
		return azsecrets.GetSecretResponse{}, err
	}

	key := name
	if version != "" {
		key = name + "/" + version
	}

	value, ok := f.Secrets[key]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{
			StatusCode: 404,
			ErrorCode:  "SecretNotFound",
		}
	}

	id := azsecrets.ID(fmt.Sprintf("https://fake.vault.azure.net/secrets/%s/%s", name, version))
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:    &id,
			Value: to.Ptr(value),
		},
	}, nil
}

package fakes

import (
	"context"
	"fmt"
	"time"
)

// FakeAkeylessAPI is an in-memory Akeyless gateway for tests.
type FakeAkeylessAPI struct {
	// Token and TTL are handed out by Authenticate.
	Token string
	TTL   time.Duration

	AuthErr   error
	AuthCalls int

	// Secrets maps paths to values; versioned entries use path@version.
	Secrets map[string]string
	Errors  map[string]error

	// LastToken records the token of the most recent GetSecretValue call.
	LastToken string
}

// NewFakeAkeylessAPI creates a fake that hands out the given token.
func NewFakeAkeylessAPI(token string) *FakeAkeylessAPI {
	return &FakeAkeylessAPI{
		Token:   token,
		TTL:     25 * time.Minute,
		Secrets: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// AddSecret stores a latest-version value for a path.
func (f *FakeAkeylessAPI) AddSecret(path, value string) {
	f.Secrets[path] = value
}

// AddSecretVersion stores a value for one explicit version.
func (f *FakeAkeylessAPI) AddSecretVersion(path string, version int32, value string) {
	f.Secrets[fmt.Sprintf("%s@%d", path, version)] = value
}

// AddError makes GetSecretValue fail for one path.
func (f *FakeAkeylessAPI) AddError(path string, err error) {
	f.Errors[path] = err
}

func (f *FakeAkeylessAPI) Authenticate(_ context.Context) (string, time.Duration, error) {
	f.AuthCalls++
	if f.AuthErr != nil {
		return "", 0, f.AuthErr
	}
	return f.Token, f.TTL, nil
}

func (f *FakeAkeylessAPI) GetSecretValue(_ context.Context, token, path string, version int32) (string, error) {
	f.LastToken = token

	if err, ok := f.Errors[path]; ok {
		return "", err
	}

	key := path
	if version > 0 {
		key = fmt.Sprintf("%s@%d", path, version)
	}

	value, ok := f.Secrets[key]
	if !ok {
		return "", fmt.Errorf("Item not found: %s", path)
	}
	return value, nil
}

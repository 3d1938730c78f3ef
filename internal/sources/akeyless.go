package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	akeyless "github.com/akeylesslabs/akeyless-go/v3"

	smerrors "github.com/systmms/secretmap/internal/errors"
)

const defaultAkeylessGateway = "https://api.akeyless.io"

// AkeylessAPI is the subset of the Akeyless gateway API the source uses.
// Version 0 fetches the latest secret version.
type AkeylessAPI interface {
	Authenticate(ctx context.Context) (token string, ttl time.Duration, err error)
	GetSecretValue(ctx context.Context, token, path string, version int32) (string, error)
}

// AkeylessSource fetches payloads from an Akeyless gateway.
//
// Reference grammar: /path/to/item[@version][#json.path] where version is a
// positive integer.
type AkeylessSource struct {
	api         AkeylessAPI
	tokens      tokenCache
	staticToken string
}

// AkeylessOption customizes source construction.
type AkeylessOption func(*AkeylessSource)

// WithAkeylessAPI injects a gateway API implementation, primarily for
// testing.
func WithAkeylessAPI(api AkeylessAPI) AkeylessOption {
	return func(s *AkeylessSource) {
		s.api = api
	}
}

// NewAkeylessSourceFactory is the registry entry point for akeyless.
func NewAkeylessSourceFactory(opts Options) (Source, error) {
	return NewAkeylessSource(opts)
}

// NewAkeylessSource builds the source from the manifest's Akeyless
// defaults. A static token skips authentication entirely; otherwise an
// access id and key pair is required.
func NewAkeylessSource(opts Options, srcOpts ...AkeylessOption) (*AkeylessSource, error) {
	s := &AkeylessSource{}

	defaults := opts.Defaults.Akeyless
	if defaults != nil {
		s.staticToken = defaults.Token
	}

	for _, opt := range srcOpts {
		opt(s)
	}

	if s.api == nil {
		gateway := defaultAkeylessGateway
		var accessID, accessKey string
		if defaults != nil {
			if defaults.GatewayURL != "" {
				gateway = defaults.GatewayURL
			}
			accessID = defaults.AccessID
			accessKey = defaults.AccessKey
		}

		if s.staticToken == "" && (accessID == "" || accessKey == "") {
			return nil, &smerrors.ConfigError{
				Field:      "defaults.akeyless",
				Message:    "access_id and access_key (or a token) are required for the akeyless source",
				Suggestion: "Add 'defaults: akeyless: access_id: p-..., access_key: ...' to the manifest",
			}
		}

		s.api = newAkeylessSDK(gateway, accessID, accessKey)
	}

	return s, nil
}

func (s *AkeylessSource) Scheme() string {
	return "akeyless"
}

func (s *AkeylessSource) Fetch(ctx context.Context, ref string) (string, error) {
	base, jsonPath := splitFragment(ref)
	path, version := parseAkeylessRef(base)

	token, err := s.bearer(ctx)
	if err != nil {
		return "", err
	}

	value, err := s.api.GetSecretValue(ctx, token, path, version)
	if err != nil {
		return "", s.mapError(path, err)
	}

	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

// Healthy verifies that authentication succeeds. With a static token there
// is nothing to check up front.
func (s *AkeylessSource) Healthy(ctx context.Context) error {
	_, err := s.bearer(ctx)
	return err
}

// bearer returns a valid gateway token, authenticating when the cache is
// empty or stale.
func (s *AkeylessSource) bearer(ctx context.Context) (string, error) {
	if s.staticToken != "" {
		return s.staticToken, nil
	}

	if token, ok := s.tokens.Get(); ok {
		return token, nil
	}

	token, ttl, err := s.api.Authenticate(ctx)
	if err != nil {
		return "", &AuthError{Source: s.Scheme(), Message: err.Error()}
	}

	s.tokens.Set(token, ttl)
	return token, nil
}

func (s *AkeylessSource) mapError(path string, err error) error {
	if IsNotFound(err) {
		return err
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "NotFound"):
		return &NotFoundError{Source: s.Scheme(), Ref: path}
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "Unauthorized") ||
		strings.Contains(errStr, "invalid token"):
		// The token may have been revoked server side.
		s.tokens.Clear()
		return &AuthError{Source: s.Scheme(), Message: errStr}
	}
	return fmt.Errorf("failed to get secret %s: %w", path, err)
}

// parseAkeylessRef splits path@version. A trailing suffix that is not a
// positive integer stays part of the path.
func parseAkeylessRef(ref string) (path string, version int32) {
	idx := strings.LastIndex(ref, "@")
	if idx <= 0 {
		return ref, 0
	}

	v, err := strconv.ParseInt(ref[idx+1:], 10, 32)
	if err != nil || v <= 0 {
		return ref, 0
	}
	return ref[:idx], int32(v)
}

// akeylessSDK adapts the official client to AkeylessAPI.
type akeylessSDK struct {
	client    *akeyless.APIClient
	accessID  string
	accessKey string
}

func newAkeylessSDK(gatewayURL, accessID, accessKey string) *akeylessSDK {
	configuration := akeyless.NewConfiguration()
	configuration.Servers = []akeyless.ServerConfiguration{
		{URL: gatewayURL},
	}

	return &akeylessSDK{
		client:    akeyless.NewAPIClient(configuration),
		accessID:  accessID,
		accessKey: accessKey,
	}
}

func (c *akeylessSDK) Authenticate(ctx context.Context) (string, time.Duration, error) {
	body := akeyless.NewAuthWithDefaults()
	body.SetAccessId(c.accessID)
	body.SetAccessKey(c.accessKey)

	res, _, err := c.client.V2Api.Auth(ctx).Body(*body).Execute()
	if err != nil {
		return "", 0, fmt.Errorf("akeyless authentication failed: %w", err)
	}

	// Gateway tokens last about half an hour; renew well before that.
	return res.GetToken(), 25 * time.Minute, nil
}

func (c *akeylessSDK) GetSecretValue(ctx context.Context, token, path string, version int32) (string, error) {
	body := akeyless.NewGetSecretValue([]string{path})
	body.SetToken(token)
	if version > 0 {
		body.SetVersion(version)
	}

	res, _, err := c.client.V2Api.GetSecretValue(ctx).Body(*body).Execute()
	if err != nil {
		return "", err
	}

	value, ok := res[path]
	if !ok {
		return "", &NotFoundError{Source: "akeyless", Ref: path}
	}
	return value, nil
}
